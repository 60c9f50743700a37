package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := New()
	c.Test = "data/test-clean.lst"
	c.Tokens = "data/tokens.txt"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid_defaults", mutate: func(c *Config) {}},
		{name: "missing_test", mutate: func(c *Config) { c.Test = "" }, wantErr: true},
		{name: "missing_tokens", mutate: func(c *Config) { c.Tokens = "" }, wantErr: true},
		{name: "unknown_criterion", mutate: func(c *Config) { c.Criterion = "transducer" }, wantErr: true},
		{name: "missing_separator", mutate: func(c *Config) { c.WordSeparator = "" }, wantErr: true},
		{name: "lexicon_with_asg", mutate: func(c *Config) { c.Lexicon = "lex.txt"; c.Criterion = CriterionASG }},
		{
			// Ambiguous word-mapping selection: both the lexicon path and a
			// seq2seq criterion would claim the mapping policy.
			name:    "lexicon_with_seq2seq",
			mutate:  func(c *Config) { c.Lexicon = "lex.txt"; c.Criterion = CriterionSeq2Seq },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUseWordDictionary(t *testing.T) {
	c := validConfig()
	assert.False(t, c.UseWordDictionary())

	c.Lexicon = "lex.txt"
	c.Criterion = CriterionASG
	assert.True(t, c.UseWordDictionary())

	c.Criterion = CriterionSeq2Seq
	assert.False(t, c.UseWordDictionary())
}

func TestSerializeRoundTrip(t *testing.T) {
	c := validConfig()
	c.Lexicon = "data/lexicon.txt"
	c.MaxWord = 20000
	c.Criterion = CriterionASG
	c.MaxLoad = 100
	c.Show = true
	c.EmissionDir = "/tmp/emissions"

	got, err := Deserialize(c.Serialize())
	require.NoError(t, err)

	assert.Equal(t, c.RunID, got.RunID)
	assert.Equal(t, c.Test, got.Test)
	assert.Equal(t, c.Tokens, got.Tokens)
	assert.Equal(t, c.Lexicon, got.Lexicon)
	assert.Equal(t, c.MaxWord, got.MaxWord)
	assert.Equal(t, c.Criterion, got.Criterion)
	assert.Equal(t, c.WordSeparator, got.WordSeparator)
	assert.Equal(t, c.MaxLoad, got.MaxLoad)
	assert.Equal(t, c.Show, got.Show)
	assert.Equal(t, c.EmissionDir, got.EmissionDir)
}

func TestDeserializeMalformed(t *testing.T) {
	_, err := Deserialize("criterion ctc")
	assert.Error(t, err)

	_, err = Deserialize("maxload=ten")
	assert.Error(t, err)
}

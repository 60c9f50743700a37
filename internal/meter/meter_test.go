package meter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		hyp  []string
		ref  []string
		want int
	}{
		{"identical", []string{"c", "a", "t"}, []string{"c", "a", "t"}, 0},
		{"one_deletion", []string{"c", "a", "t"}, []string{"c", "a", "a", "t"}, 1},
		{"one_substitution", []string{"c", "o", "t"}, []string{"c", "a", "t"}, 1},
		{"one_insertion", []string{"c", "a", "t", "s"}, []string{"c", "a", "t"}, 1},
		{"empty_reference", []string{"a", "b"}, nil, 2},
		{"empty_hypothesis", nil, []string{"a", "b", "c"}, 3},
		{"both_empty", nil, nil, 0},
		{"disjoint", []string{"x", "y"}, []string{"a", "b"}, 2},
		{"words", []string{"the", "cat", "sat"}, []string{"the", "cat", "sat", "down"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, distance(tt.hyp, tt.ref))
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][2][]string{
		{{"a", "b", "c"}, {"a", "c"}},
		{{"x"}, {"y", "z"}},
		{{"w", "w", "w"}, {"w"}},
		{nil, {"a"}},
	}
	for _, p := range pairs {
		assert.Equal(t, distance(p[0], p[1]), distance(p[1], p[0]))
	}
}

func TestDistanceIdentity(t *testing.T) {
	seqs := [][]string{nil, {"a"}, {"a", "b", "a", "b"}, {"hello", "world"}}
	for _, s := range seqs {
		assert.Equal(t, 0, distance(s, s))
	}
}

func TestMeterAccumulation(t *testing.T) {
	m := NewEditDistanceMeter()
	assert.Equal(t, []float64{0}, m.Value(), "zero-length reference must report 0, not divide by zero")

	// First utterance: one deletion against a 4-symbol reference, 25%.
	m.Add([]string{"c", "a", "t"}, []string{"c", "a", "a", "t"})
	assert.InDelta(t, 25.0, m.Value()[0], 1e-9)
	assert.Equal(t, int64(1), m.Edits())
	assert.Equal(t, int64(4), m.RefLength())

	// Second utterance: perfect 5-symbol match pulls the corpus rate down
	// to 100*1/9.
	m.Add([]string{"h", "o", "u", "s", "e"}, []string{"h", "o", "u", "s", "e"})
	assert.InDelta(t, 100.0/9.0, m.Value()[0], 1e-9)
}

func TestMeterMonotonic(t *testing.T) {
	m := NewEditDistanceMeter()
	var prevEdits, prevLen int64
	adds := [][2][]string{
		{{"a"}, {"b"}},
		{{"a", "b"}, {"a", "b"}},
		{nil, {"x", "y", "z"}},
		{{"q"}, nil},
	}
	for _, p := range adds {
		m.Add(p[0], p[1])
		assert.GreaterOrEqual(t, m.Edits(), prevEdits)
		assert.GreaterOrEqual(t, m.RefLength(), prevLen)
		prevEdits, prevLen = m.Edits(), m.RefLength()
	}
}

func TestMeterReset(t *testing.T) {
	m := NewEditDistanceMeter()
	m.Add([]string{"a"}, []string{"b", "c"})
	require.NotZero(t, m.Edits())

	m.Reset()
	assert.Equal(t, int64(0), m.Edits())
	assert.Equal(t, int64(0), m.RefLength())
	assert.Equal(t, []float64{0}, m.Value())
}

func TestTimeMeter(t *testing.T) {
	tm := NewTimeMeter()
	assert.Equal(t, 0.0, tm.Seconds())

	tm.Resume()
	time.Sleep(10 * time.Millisecond)
	tm.Stop()
	first := tm.Seconds()
	assert.Greater(t, first, 0.0)

	// Stopped meter does not advance.
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, first, tm.Seconds())

	tm.Resume()
	time.Sleep(5 * time.Millisecond)
	tm.Stop()
	assert.Greater(t, tm.Seconds(), first)

	tm.Reset()
	assert.Equal(t, 0.0, tm.Seconds())
}

func TestTestMeters(t *testing.T) {
	tms := NewTestMeters()
	tms.LER.Add([]string{"a"}, []string{"b"})
	tms.SampleLER.Add([]string{"a"}, []string{"b"})

	tms.ResetSample()
	assert.Equal(t, int64(0), tms.SampleLER.Edits())
	assert.Equal(t, int64(0), tms.SampleWER.Edits())
	// Corpus meters are untouched by the per-sample reset.
	assert.Equal(t, int64(1), tms.LER.Edits())
}

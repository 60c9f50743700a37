package config

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Criterion families understood by the evaluation stage. The criterion itself
// is an external collaborator; the family name decides word-mapping policy and
// whether a transition vector is attached to the emission artifact.
const (
	CriterionCTC     = "ctc"
	CriterionASG     = "asg"
	CriterionSeq2Seq = "seq2seq"
)

// Config is the immutable run configuration for the evaluation stage. It is
// built once (from CLI flags or from a serialized blob), validated, and passed
// by pointer to the driver and the emission collector. Nothing mutates it after
// Validate.
type Config struct {
	// RunID uniquely identifies this evaluation run. Stamped into the
	// serialized config blob and used for object-store artifact names.
	RunID string

	// Test is the path of the dataset list file to evaluate.
	Test string
	// DataDir is the directory feature files in the list are resolved against.
	DataDir string

	// Tokens is the path of the token dictionary (one symbol per line).
	Tokens string
	// Lexicon is the optional word->spelling lexicon path. When present (and
	// the criterion is not seq2seq) word references come from the word
	// dictionary derived from it instead of letter collapse.
	Lexicon string
	// MaxWord caps the number of lexicon entries loaded; <= 0 means no cap.
	MaxWord int

	// Criterion names the criterion family: ctc, asg or seq2seq.
	Criterion string

	// WordSeparator is the token symbol that marks word boundaries.
	WordSeparator string

	// MaxLoad caps the number of utterances evaluated; <= 0 means the whole set.
	MaxLoad int
	// Show enables per-utterance diagnostics (per-sample meters plus |T|/|P|
	// transcript lines on stdout).
	Show bool

	// EmissionDir is the directory the emission artifact is written to.
	EmissionDir string

	// Object storage settings for the optional artifact upload. Upload is
	// skipped when Endpoint is empty.
	StoreEndpoint  string
	StoreAccessKey string
	StoreSecretKey string
	StoreBucket    string
	StoreUseSSL    bool
}

// New returns a Config with defaults applied and a fresh run ID.
func New() *Config {
	return &Config{
		RunID:         uuid.New().String(),
		Criterion:     CriterionCTC,
		WordSeparator: "|",
		EmissionDir:   ".",
	}
}

// Validate checks the configuration before a run starts. Invalid configuration
// is fatal for the whole run, so this is called once, up front.
func (c *Config) Validate() error {
	if c.Test == "" {
		return fmt.Errorf("config: test list path is required")
	}
	if c.Tokens == "" {
		return fmt.Errorf("config: token dictionary path is required")
	}
	switch c.Criterion {
	case CriterionCTC, CriterionASG, CriterionSeq2Seq:
	default:
		return fmt.Errorf("config: unknown criterion %q", c.Criterion)
	}
	// A lexicon selects the word-dictionary mapping path, which seq2seq runs
	// do not use. Rather than silently picking one, reject the combination.
	if c.Lexicon != "" && c.Criterion == CriterionSeq2Seq {
		return fmt.Errorf("config: lexicon %q cannot be combined with the seq2seq criterion; word mapping would be ambiguous", c.Lexicon)
	}
	if c.WordSeparator == "" {
		return fmt.Errorf("config: word separator symbol is required")
	}
	return nil
}

// UseWordDictionary reports whether word references should come from the
// lexicon-derived word dictionary rather than letter collapse. Must be applied
// consistently to hypothesis and reference; the decision is per run.
func (c *Config) UseWordDictionary() bool {
	return c.Lexicon != "" && c.Criterion != CriterionSeq2Seq
}

// Serialize renders the configuration as an opaque key=value blob. The blob is
// embedded in the emission artifact so the decoding stage can reconstruct the
// exact settings emissions were produced under.
func (c *Config) Serialize() string {
	kv := map[string]string{
		"runid":       c.RunID,
		"test":        c.Test,
		"datadir":     c.DataDir,
		"tokens":      c.Tokens,
		"lexicon":     c.Lexicon,
		"maxword":     strconv.Itoa(c.MaxWord),
		"criterion":   c.Criterion,
		"wordsep":     c.WordSeparator,
		"maxload":     strconv.Itoa(c.MaxLoad),
		"show":        strconv.FormatBool(c.Show),
		"emissiondir": c.EmissionDir,
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, kv[k])
	}
	return b.String()
}

// Deserialize reconstructs a Config from a blob produced by Serialize.
// Unknown keys are ignored so older decoders keep working against newer blobs.
func Deserialize(blob string) (*Config, error) {
	c := &Config{}
	sc := bufio.NewScanner(strings.NewReader(blob))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("config: malformed blob line %q", line)
		}
		var err error
		switch k {
		case "runid":
			c.RunID = v
		case "test":
			c.Test = v
		case "datadir":
			c.DataDir = v
		case "tokens":
			c.Tokens = v
		case "lexicon":
			c.Lexicon = v
		case "maxword":
			c.MaxWord, err = strconv.Atoi(v)
		case "criterion":
			c.Criterion = v
		case "wordsep":
			c.WordSeparator = v
		case "maxload":
			c.MaxLoad, err = strconv.Atoi(v)
		case "show":
			c.Show, err = strconv.ParseBool(v)
		case "emissiondir":
			c.EmissionDir = v
		}
		if err != nil {
			return nil, fmt.Errorf("config: bad value for %s: %w", k, err)
		}
	}
	return c, nil
}

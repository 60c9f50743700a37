// Package dataset iterates a labeled test set: a list file of utterances,
// each pairing a sample id and a precomputed feature file with its reference
// transcription. Samples come back aligned: input features, token targets and
// word targets for the same utterance.
package dataset

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"speech-eval-pipeline/internal/dict"
)

// Sample is one aligned utterance tuple.
type Sample struct {
	ID string

	// Input is the flattened feature matrix fed to the network forward pass.
	Input       []float32
	InputFrames int
	InputDim    int

	// TokenTargets is the transcription tokenized against the token
	// dictionary, with the word separator between words.
	TokenTargets []int
	// Words is the whitespace-split reference transcription.
	Words []string
}

// Dataset reads a list file line by line. Lines are tab separated:
// sample_id, feature file (relative to the data dir), transcription.
// Iteration order is file order; the driver processes strictly one sample at
// a time.
type Dataset struct {
	f       *os.File
	sc      *bufio.Scanner
	dataDir string
	tokens  *dict.Dictionary
	wordSep int
	line    int
}

// Open opens the list file at listPath. Feature paths are resolved against
// dataDir. The token dictionary tokenizes transcriptions and must contain the
// word separator symbol.
func Open(listPath, dataDir string, tokens *dict.Dictionary, wordSeparator string) (*Dataset, error) {
	sepIdx, ok := tokens.Index(wordSeparator)
	if !ok {
		return nil, errors.Errorf("dataset: word separator %q not in token dictionary", wordSeparator)
	}
	f, err := os.Open(listPath)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open list file")
	}
	return &Dataset{
		f:       f,
		sc:      bufio.NewScanner(f),
		dataDir: dataDir,
		tokens:  tokens,
		wordSep: sepIdx,
	}, nil
}

// Next returns the next sample, or io.EOF when the set is exhausted. A
// malformed line or an unresolvable feature file is a fatal data error; the
// iterator does not skip past it.
func (d *Dataset) Next() (*Sample, error) {
	for d.sc.Scan() {
		d.line++
		text := strings.TrimSpace(d.sc.Text())
		if text == "" {
			continue
		}
		parts := strings.SplitN(text, "\t", 3)
		if len(parts) != 3 {
			return nil, errors.Errorf("dataset: line %d: want 3 tab-separated fields, got %d", d.line, len(parts))
		}
		id, featFile, transcript := parts[0], parts[1], strings.TrimSpace(parts[2])
		if transcript == "" {
			return nil, errors.Errorf("dataset: line %d: sample %q has no transcription", d.line, id)
		}

		input, frames, dim, err := ReadFeatures(filepath.Join(d.dataDir, featFile))
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: line %d: sample %q", d.line, id)
		}

		words := strings.Fields(transcript)
		tokens, err := d.tokenize(words)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: line %d: sample %q", d.line, id)
		}

		return &Sample{
			ID:           id,
			Input:        input,
			InputFrames:  frames,
			InputDim:     dim,
			TokenTargets: tokens,
			Words:        words,
		}, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, errors.Wrap(err, "dataset: reading list file")
	}
	return nil, io.EOF
}

// Close releases the underlying list file.
func (d *Dataset) Close() error {
	return d.f.Close()
}

// tokenize maps each word's letters through the token dictionary, joining
// words with the separator index. An out-of-dictionary letter means the token
// set does not cover the corpus, which is fatal.
func (d *Dataset) tokenize(words []string) ([]int, error) {
	var out []int
	for i, w := range words {
		if i > 0 {
			out = append(out, d.wordSep)
		}
		for _, r := range w {
			idx, ok := d.tokens.Index(string(r))
			if !ok {
				return nil, errors.Errorf("letter %q of word %q not in token dictionary", string(r), w)
			}
			out = append(out, idx)
		}
	}
	return out, nil
}

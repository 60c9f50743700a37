// Package dict holds the token and word dictionaries consumed by the
// evaluation stage, plus the index-to-symbol mapping helpers used to turn
// decoded index sequences into letter and word transcripts.
package dict

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// UnknownWord is the reserved entry out-of-vocabulary words map to in the
// word dictionary.
const UnknownWord = "<unk>"

// UnknownIndexError reports an index with no dictionary entry. Every index
// emitted by the model or present in ground truth must resolve; a miss is a
// configuration problem (wrong token set for the model), not a per-sample one.
type UnknownIndexError struct {
	Index int
	Size  int
}

func (e *UnknownIndexError) Error() string {
	return fmt.Sprintf("dict: index %d outside dictionary of size %d", e.Index, e.Size)
}

// Dictionary is a read-only bijection between integer indices and symbol
// strings. It is never mutated after construction and is safe to share across
// the whole run.
type Dictionary struct {
	symbols []string
	indices map[string]int
}

// NewDictionary reads a dictionary from r, one symbol per line in index order.
// Blank lines are skipped; duplicate symbols are rejected.
func NewDictionary(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{indices: make(map[string]int)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		sym := strings.TrimSpace(sc.Text())
		if sym == "" {
			continue
		}
		if _, ok := d.indices[sym]; ok {
			return nil, errors.Errorf("dict: duplicate symbol %q at line %d", sym, line)
		}
		d.indices[sym] = len(d.symbols)
		d.symbols = append(d.symbols, sym)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "dict: reading dictionary")
	}
	if len(d.symbols) == 0 {
		return nil, errors.New("dict: empty dictionary")
	}
	return d, nil
}

// LoadDictionary reads a dictionary from the file at path.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dict: open dictionary")
	}
	defer f.Close()
	d, err := NewDictionary(f)
	if err != nil {
		return nil, errors.Wrapf(err, "dict: %s", path)
	}
	return d, nil
}

// FromList builds a dictionary from an ordered symbol list. Used by the word
// dictionary derivation and by tests.
func FromList(symbols []string) (*Dictionary, error) {
	d := &Dictionary{indices: make(map[string]int, len(symbols))}
	for _, sym := range symbols {
		if _, ok := d.indices[sym]; ok {
			return nil, errors.Errorf("dict: duplicate symbol %q", sym)
		}
		d.indices[sym] = len(d.symbols)
		d.symbols = append(d.symbols, sym)
	}
	if len(d.symbols) == 0 {
		return nil, errors.New("dict: empty dictionary")
	}
	return d, nil
}

// Symbol resolves an index to its symbol.
func (d *Dictionary) Symbol(index int) (string, error) {
	if index < 0 || index >= len(d.symbols) {
		return "", &UnknownIndexError{Index: index, Size: len(d.symbols)}
	}
	return d.symbols[index], nil
}

// Index resolves a symbol to its index.
func (d *Dictionary) Index(symbol string) (int, bool) {
	i, ok := d.indices[symbol]
	return i, ok
}

// IndexSize returns the number of entries. For the token dictionary this is
// the class cardinality the model must emit.
func (d *Dictionary) IndexSize() int {
	return len(d.symbols)
}

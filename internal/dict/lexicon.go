package dict

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Lexicon maps words to their allowed token spellings. A word may carry
// several spellings (one per line in the source file). Entry order is
// preserved so the derived word dictionary is stable across runs.
type Lexicon struct {
	spellings map[string][][]string
	order     []string
}

// LoadWords reads a lexicon from r. Each line is a word followed by its
// spelling tokens, whitespace separated. maxWords caps the number of distinct
// words loaded; <= 0 loads everything.
func LoadWords(r io.Reader, maxWords int) (*Lexicon, error) {
	lex := &Lexicon{spellings: make(map[string][][]string)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, errors.Errorf("dict: lexicon line %d has no spelling for word %q", line, fields[0])
		}
		word := fields[0]
		if _, seen := lex.spellings[word]; !seen {
			if maxWords > 0 && len(lex.order) >= maxWords {
				break
			}
			lex.order = append(lex.order, word)
		}
		lex.spellings[word] = append(lex.spellings[word], fields[1:])
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "dict: reading lexicon")
	}
	if len(lex.order) == 0 {
		return nil, errors.New("dict: empty lexicon")
	}
	return lex, nil
}

// LoadLexicon reads a lexicon from the file at path.
func LoadLexicon(path string, maxWords int) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dict: open lexicon")
	}
	defer f.Close()
	lex, err := LoadWords(f, maxWords)
	if err != nil {
		return nil, errors.Wrapf(err, "dict: %s", path)
	}
	return lex, nil
}

// Size returns the number of distinct words.
func (l *Lexicon) Size() int {
	return len(l.order)
}

// Spellings returns the spellings recorded for word, or nil when the word is
// out of vocabulary.
func (l *Lexicon) Spellings(word string) [][]string {
	return l.spellings[word]
}

// WordDictionary derives the word dictionary from the lexicon: every word in
// load order plus the reserved unknown entry.
func (l *Lexicon) WordDictionary() (*Dictionary, error) {
	symbols := make([]string, 0, len(l.order)+1)
	symbols = append(symbols, l.order...)
	symbols = append(symbols, UnknownWord)
	return FromList(symbols)
}

// Normalize maps words through the word dictionary, replacing out-of-vocabulary
// words with the unknown entry. Applied to references on the word-dictionary
// mapping path so WER compares against what the decoder could produce.
func Normalize(words []string, wordDict *Dictionary) []string {
	out := make([]string, len(words))
	for i, w := range words {
		if _, ok := wordDict.Index(w); ok {
			out[i] = w
		} else {
			out[i] = UnknownWord
		}
	}
	return out
}

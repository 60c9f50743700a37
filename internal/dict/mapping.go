package dict

// IndicesToSymbols maps an index sequence through the dictionary, index by
// index, preserving order and repeats. Any unresolvable index aborts the
// mapping with an UnknownIndexError.
func IndicesToSymbols(seq []int, d *Dictionary) ([]string, error) {
	out := make([]string, len(seq))
	for i, idx := range seq {
		sym, err := d.Symbol(idx)
		if err != nil {
			return nil, err
		}
		out[i] = sym
	}
	return out, nil
}

// LettersToWords collapses a letter-symbol sequence into words: contiguous
// non-separator symbols form a word and the separator symbol ends it. Leading,
// trailing and doubled separators produce no empty words.
func LettersToWords(letters []string, separator string) []string {
	var words []string
	var cur []byte
	for _, l := range letters {
		if l == separator {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, l...)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

// SymbolsToString joins a symbol sequence for display, the form the driver
// prints in per-utterance diagnostics.
func SymbolsToString(symbols []string, separator string) string {
	var b []byte
	for _, s := range symbols {
		if s == separator {
			b = append(b, ' ')
			continue
		}
		b = append(b, s...)
	}
	return string(b)
}

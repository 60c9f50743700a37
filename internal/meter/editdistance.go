// Package meter implements the streaming error-rate accumulators for the
// evaluation stage: an edit-distance meter fed with hypothesis/reference
// symbol pairs, a wall-clock meter, and the grouping used by the test driver.
package meter

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// unitCosts is the Levenshtein configuration for error-rate metrics: unit
// substitution, insertion and deletion costs, exact item equality.
var unitCosts = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// EditDistanceMeter accumulates edit operations and reference length over a
// stream of hypothesis/reference pairs. Error rate is reported as a
// percentage of the cumulative reference length. Not safe for concurrent use;
// the driver feeds it from a single goroutine.
type EditDistanceMeter struct {
	edits  int64
	length int64
}

// NewEditDistanceMeter returns an empty meter.
func NewEditDistanceMeter() *EditDistanceMeter {
	return &EditDistanceMeter{}
}

// Add computes the unit-cost Levenshtein distance between hypothesis and
// reference and folds it into the running totals. An empty reference
// contributes zero length, so a non-empty hypothesis against it counts purely
// as insertions.
func (m *EditDistanceMeter) Add(hypothesis, reference []string) {
	m.edits += int64(distance(hypothesis, reference))
	m.length += int64(len(reference))
}

// Value returns the cumulative error rate as a single-element slice,
// 100 * edits / length. A zero cumulative reference length reports 0 rather
// than dividing by zero.
func (m *EditDistanceMeter) Value() []float64 {
	if m.length == 0 {
		return []float64{0}
	}
	return []float64{100 * float64(m.edits) / float64(m.length)}
}

// Edits returns the cumulative edit-operation count.
func (m *EditDistanceMeter) Edits() int64 {
	return m.edits
}

// RefLength returns the cumulative reference length.
func (m *EditDistanceMeter) RefLength() int64 {
	return m.length
}

// Reset zeroes both accumulators.
func (m *EditDistanceMeter) Reset() {
	m.edits = 0
	m.length = 0
}

// distance is the minimum edit-operation count between two symbol sequences.
// The levenshtein package aligns rune sequences, so symbols are interned into
// synthetic runes first; equal symbols get equal runes, which is all the
// unit-cost alignment observes.
func distance(hypothesis, reference []string) int {
	codes := make(map[string]rune, len(hypothesis)+len(reference))
	intern := func(seq []string) []rune {
		out := make([]rune, len(seq))
		for i, s := range seq {
			code, ok := codes[s]
			if !ok {
				code = rune(len(codes))
				codes[s] = code
			}
			out[i] = code
		}
		return out
	}
	return levenshtein.DistanceForStrings(intern(hypothesis), intern(reference), unitCosts)
}

// Package emission accumulates per-utterance model emissions during an
// evaluation run and serializes the whole set as a single self-describing
// binary artifact for the downstream decoding stage.
package emission

import (
	"fmt"

	"github.com/pkg/errors"
)

// ClassMismatchError reports an utterance whose emission class count differs
// from the one fixed by the first utterance. A model must not change its
// output cardinality mid-run, so this is a fatal configuration error.
type ClassMismatchError struct {
	SampleID string
	Got      int
	Want     int
}

func (e *ClassMismatchError) Error() string {
	return fmt.Sprintf("emission: sample %q has %d classes, set is fixed at %d", e.SampleID, e.Got, e.Want)
}

// Record is one utterance's worth of evaluation output.
type Record struct {
	// Emission is the raw class-by-frame score matrix, row-major, flattened:
	// len(Emission) == Classes*Frames.
	Emission []float32
	Classes  int
	Frames   int

	TokenTarget []int
	WordTarget  []string
	SampleID    string
}

// Set is the append-only record store for one run. Records are held as
// parallel slices of equal length; the class count is fixed by the first
// append. The set is owned by a single driver goroutine and is immutable once
// serialization has begun.
type Set struct {
	// Classes is the emission class cardinality, 0 until the first append.
	Classes int
	// Transition holds the criterion's learned pairwise transition scores.
	// Present only for the ASG criterion family, nil otherwise.
	Transition []float32
	// Config is the serialized run configuration, an opaque blob the decoding
	// stage hands back to config.Deserialize.
	Config string

	Emissions    [][]float32
	FrameCounts  []int
	TokenTargets [][]int
	WordTargets  [][]string
	SampleIDs    []string

	sealed bool
}

// NewSet returns an empty emission set.
func NewSet() *Set {
	return &Set{}
}

// Append adds one utterance record. The first record fixes the class count;
// later records must match it. Records are validated before anything is
// stored, so a failed append leaves the set unchanged.
func (s *Set) Append(r Record) error {
	if s.sealed {
		return errors.New("emission: set already serialized, no further appends")
	}
	if r.Classes <= 0 || r.Frames <= 0 {
		return errors.Errorf("emission: sample %q has degenerate dimensions %dx%d", r.SampleID, r.Classes, r.Frames)
	}
	if len(r.Emission) != r.Classes*r.Frames {
		return errors.Errorf("emission: sample %q emission has %d values, want %d (%d classes x %d frames)",
			r.SampleID, len(r.Emission), r.Classes*r.Frames, r.Classes, r.Frames)
	}
	if s.Classes == 0 {
		s.Classes = r.Classes
	} else if r.Classes != s.Classes {
		return &ClassMismatchError{SampleID: r.SampleID, Got: r.Classes, Want: s.Classes}
	}

	s.Emissions = append(s.Emissions, r.Emission)
	s.FrameCounts = append(s.FrameCounts, r.Frames)
	s.TokenTargets = append(s.TokenTargets, r.TokenTarget)
	s.WordTargets = append(s.WordTargets, r.WordTarget)
	s.SampleIDs = append(s.SampleIDs, r.SampleID)
	return nil
}

// Len returns the number of utterance records.
func (s *Set) Len() int {
	return len(s.SampleIDs)
}

// Package model defines the contracts the evaluation driver consumes from
// the acoustic model and its criterion, plus the reference implementations
// used for decoding emissions locally and for exercising the pipeline in
// tests and dry runs.
package model

import "github.com/pkg/errors"

// Emission is a frame-by-frame score matrix produced by one network forward
// pass: one row per output class, one column per time frame, flattened
// row-major. The flattened-plus-frame-count layout matches the emission
// artifact, so records move into the collector without reshaping.
type Emission struct {
	Scores  []float32
	Classes int
	Frames  int
}

// Score returns the score of class c at frame t.
func (e *Emission) Score(c, t int) float32 {
	return e.Scores[c*e.Frames+t]
}

// Network is the acoustic model collaborator: a forward pass over one
// utterance's input features producing an emission matrix. Implementations
// may batch or vectorize internally; the driver calls it one utterance at a
// time.
type Network interface {
	Forward(input []float32) (*Emission, error)
}

// Criterion scores emissions and produces the most likely token-index
// sequence for one utterance.
type Criterion interface {
	// Name identifies the criterion family (config.CriterionCTC etc).
	Name() string
	// ViterbiPath decodes the best token sequence from an emission. The
	// returned sequence is already collapsed: no blanks, no frame repeats.
	ViterbiPath(e *Emission) ([]int, error)
}

// TransitionCriterion is implemented by criterion families that carry learned
// pairwise transition scores (the ASG family). The vector is attached to the
// emission artifact so the decoding stage can rescore with it.
type TransitionCriterion interface {
	Criterion
	Transition() []float32
}

func validateEmission(e *Emission) error {
	if e == nil {
		return errors.New("model: nil emission")
	}
	if e.Classes <= 0 || e.Frames <= 0 {
		return errors.Errorf("model: degenerate emission %dx%d", e.Classes, e.Frames)
	}
	if len(e.Scores) != e.Classes*e.Frames {
		return errors.Errorf("model: emission has %d scores, want %d", len(e.Scores), e.Classes*e.Frames)
	}
	return nil
}

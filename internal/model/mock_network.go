package model

import "github.com/pkg/errors"

// MockNetwork is a Network that replays scripted emissions in order, one per
// Forward call. It stands in for a real acoustic model in tests and dry runs
// of the evaluation pipeline.
type MockNetwork struct {
	emissions []*Emission
	calls     int
}

// NewMockNetwork returns a network that serves the given emissions in order.
func NewMockNetwork(emissions ...*Emission) *MockNetwork {
	return &MockNetwork{emissions: emissions}
}

// Forward returns the next scripted emission. The input features are ignored
// beyond being accepted; the mock fails once the script is exhausted so a
// test iterating too far surfaces it.
func (m *MockNetwork) Forward(input []float32) (*Emission, error) {
	if m.calls >= len(m.emissions) {
		return nil, errors.Errorf("model: mock network exhausted after %d forward calls", len(m.emissions))
	}
	e := m.emissions[m.calls]
	m.calls++
	if err := validateEmission(e); err != nil {
		return nil, err
	}
	return e, nil
}

// GreedyPathEmission builds an emission whose per-frame argmax follows path:
// the planted class scores peak at its frame, every other class scores floor.
// One frame per path entry.
func GreedyPathEmission(path []int, classes int, peak, floor float32) *Emission {
	frames := len(path)
	e := &Emission{
		Scores:  make([]float32, classes*frames),
		Classes: classes,
		Frames:  frames,
	}
	for i := range e.Scores {
		e.Scores[i] = floor
	}
	for t, cls := range path {
		e.Scores[cls*frames+t] = peak
	}
	return e
}

package model

import (
	"testing"

	"speech-eval-pipeline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreedyCriterion(t *testing.T) {
	// Planted path includes repeats and blanks (class 0); the decode must
	// collapse repeats first, then drop blanks.
	path := []int{0, 2, 2, 0, 3, 3, 4}
	e := GreedyPathEmission(path, 6, 1.0, 0.0)

	crit := NewGreedyCriterion(0)
	got, err := crit.ViterbiPath(e)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, got)
	assert.Equal(t, config.CriterionCTC, crit.Name())
}

func TestGreedyCriterionNoBlank(t *testing.T) {
	e := GreedyPathEmission([]int{1, 1, 0, 2}, 3, 0.9, 0.01)
	crit := NewGreedyCriterion(-1)
	got, err := crit.ViterbiPath(e)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, got)
}

func TestGreedyCriterionRejectsBadEmission(t *testing.T) {
	crit := NewGreedyCriterion(0)
	_, err := crit.ViterbiPath(nil)
	assert.Error(t, err)

	_, err = crit.ViterbiPath(&Emission{Scores: make([]float32, 5), Classes: 2, Frames: 3})
	assert.Error(t, err)
}

func TestASGCriterion(t *testing.T) {
	// Two classes, flat transitions: reduces to per-frame argmax.
	trans := []float32{0, 0, 0, 0}
	crit := NewASGCriterion(trans, 2)
	assert.Equal(t, config.CriterionASG, crit.Name())
	assert.Equal(t, trans, crit.Transition())

	e := GreedyPathEmission([]int{0, 1, 1, 0}, 2, 2.0, 0.0)
	got, err := crit.ViterbiPath(e)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, got)
}

func TestASGCriterionTransitionsSteerPath(t *testing.T) {
	// Emissions mildly prefer class 1 at frame 1, but the transition out of
	// class 0 into class 1 is penalized hard enough to keep the path at 0.
	e := &Emission{
		Scores: []float32{
			1.0, 0.4, // class 0 over frames
			0.0, 0.6, // class 1 over frames
		},
		Classes: 2,
		Frames:  2,
	}
	trans := []float32{
		0, 0, // into class 0: from 0, from 1
		-10, 0, // into class 1: from 0 (penalized), from 1
	}
	crit := NewASGCriterion(trans, 2)
	got, err := crit.ViterbiPath(e)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got, "collapsed stay-at-0 path")
}

func TestASGCriterionClassMismatch(t *testing.T) {
	crit := NewASGCriterion(make([]float32, 9), 3)
	e := GreedyPathEmission([]int{0}, 2, 1, 0)
	_, err := crit.ViterbiPath(e)
	assert.Error(t, err)
}

func TestMockNetwork(t *testing.T) {
	e1 := GreedyPathEmission([]int{1}, 2, 1, 0)
	e2 := GreedyPathEmission([]int{0, 1}, 2, 1, 0)
	net := NewMockNetwork(e1, e2)

	got, err := net.Forward(nil)
	require.NoError(t, err)
	assert.Same(t, e1, got)

	got, err = net.Forward(nil)
	require.NoError(t, err)
	assert.Same(t, e2, got)

	_, err = net.Forward(nil)
	assert.Error(t, err, "exhausted script must fail")
}

func TestEmissionScoreLayout(t *testing.T) {
	e := &Emission{Scores: []float32{1, 2, 3, 4, 5, 6}, Classes: 2, Frames: 3}
	assert.Equal(t, float32(1), e.Score(0, 0))
	assert.Equal(t, float32(3), e.Score(0, 2))
	assert.Equal(t, float32(4), e.Score(1, 0))
	assert.Equal(t, float32(6), e.Score(1, 2))
}

package model

import (
	"fmt"

	"speech-eval-pipeline/internal/config"
)

// GreedyCriterion decodes CTC-style emissions: per-frame argmax followed by
// collapsing frame repeats and dropping the blank class. With unit emissions
// and no transitions the per-frame argmax path is the Viterbi path.
type GreedyCriterion struct {
	// BlankIndex is the blank class removed after collapse; -1 disables
	// blank handling (for criteria trained without a blank).
	BlankIndex int
}

// NewGreedyCriterion returns a CTC greedy decoder with the given blank class.
func NewGreedyCriterion(blankIndex int) *GreedyCriterion {
	return &GreedyCriterion{BlankIndex: blankIndex}
}

// Name returns the criterion family name.
func (c *GreedyCriterion) Name() string {
	return config.CriterionCTC
}

// ViterbiPath returns the collapsed argmax path.
func (c *GreedyCriterion) ViterbiPath(e *Emission) ([]int, error) {
	if err := validateEmission(e); err != nil {
		return nil, err
	}
	path := make([]int, e.Frames)
	for t := 0; t < e.Frames; t++ {
		best := 0
		bestScore := e.Score(0, t)
		for cls := 1; cls < e.Classes; cls++ {
			if s := e.Score(cls, t); s > bestScore {
				best, bestScore = cls, s
			}
		}
		path[t] = best
	}
	return collapse(path, c.BlankIndex), nil
}

// ASGCriterion decodes with learned pairwise transition scores: a first-order
// Viterbi pass over emission scores plus transitions, then repeat collapse
// (ASG has no blank).
type ASGCriterion struct {
	// transition[i*classes+j] scores moving from class j at frame t-1 to
	// class i at frame t.
	transition []float32
	classes    int
}

// NewASGCriterion builds an ASG decoder over a classes x classes transition
// matrix, flattened row-major.
func NewASGCriterion(transition []float32, classes int) *ASGCriterion {
	return &ASGCriterion{transition: transition, classes: classes}
}

// Name returns the criterion family name.
func (c *ASGCriterion) Name() string {
	return config.CriterionASG
}

// Transition exposes the learned transition vector for the emission artifact.
func (c *ASGCriterion) Transition() []float32 {
	return c.transition
}

// ViterbiPath runs the transition-aware Viterbi recursion and collapses frame
// repeats from the best path.
func (c *ASGCriterion) ViterbiPath(e *Emission) ([]int, error) {
	if err := validateEmission(e); err != nil {
		return nil, err
	}
	if e.Classes != c.classes {
		return nil, &classCountError{got: e.Classes, want: c.classes}
	}

	n := e.Classes
	// score[j] is the best path score ending in class j at the current
	// frame; back[t][j] is its predecessor class.
	score := make([]float32, n)
	next := make([]float32, n)
	back := make([][]int, e.Frames)
	for j := 0; j < n; j++ {
		score[j] = e.Score(j, 0)
	}

	for t := 1; t < e.Frames; t++ {
		back[t] = make([]int, n)
		for j := 0; j < n; j++ {
			bestPrev := 0
			bestScore := score[0] + c.transition[j*n]
			for k := 1; k < n; k++ {
				if s := score[k] + c.transition[j*n+k]; s > bestScore {
					bestPrev, bestScore = k, s
				}
			}
			next[j] = bestScore + e.Score(j, t)
			back[t][j] = bestPrev
		}
		score, next = next, score
	}

	best := 0
	for j := 1; j < n; j++ {
		if score[j] > score[best] {
			best = j
		}
	}
	path := make([]int, e.Frames)
	path[e.Frames-1] = best
	for t := e.Frames - 1; t > 0; t-- {
		path[t-1] = back[t][path[t]]
	}
	return collapse(path, -1), nil
}

type classCountError struct {
	got, want int
}

func (e *classCountError) Error() string {
	return fmt.Sprintf("model: emission class count %d does not match criterion transitions for %d classes", e.got, e.want)
}

// collapse removes consecutive repeats, then every blank occurrence.
func collapse(path []int, blank int) []int {
	var out []int
	prev := -1
	for _, p := range path {
		if p == prev {
			continue
		}
		prev = p
		if p == blank {
			continue
		}
		out = append(out, p)
	}
	return out
}

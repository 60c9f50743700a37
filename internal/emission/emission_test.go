package emission

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet(t *testing.T) *Set {
	t.Helper()
	s := NewSet()
	require.NoError(t, s.Append(Record{
		Emission:    []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
		Classes:     3,
		Frames:      2,
		TokenTarget: []int{1, 2, 2, 3},
		WordTarget:  []string{"cat"},
		SampleID:    "utt-0001",
	}))
	require.NoError(t, s.Append(Record{
		Emission:    []float32{1, 2, 3, 4, 5, 6, 7, 8, 9},
		Classes:     3,
		Frames:      3,
		TokenTarget: []int{0, 3},
		WordTarget:  []string{"a", "house"},
		SampleID:    "utt-0002",
	}))
	s.Transition = []float32{0.5, -0.5, 1.25}
	s.Config = "criterion=asg\ntest=test-clean.lst\n"
	return s
}

func TestAppendFixesClassCount(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Append(Record{
		Emission: make([]float32, 8), Classes: 4, Frames: 2, SampleID: "a",
	}))
	assert.Equal(t, 4, s.Classes)

	// A diverging class count must fail before anything is stored.
	err := s.Append(Record{
		Emission: make([]float32, 10), Classes: 5, Frames: 2, SampleID: "b",
	})
	var mismatch *ClassMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 5, mismatch.Got)
	assert.Equal(t, 4, mismatch.Want)
	assert.Equal(t, 1, s.Len())
}

func TestAppendValidatesShape(t *testing.T) {
	s := NewSet()
	err := s.Append(Record{Emission: make([]float32, 7), Classes: 4, Frames: 2, SampleID: "a"})
	assert.Error(t, err)
	assert.Zero(t, s.Len())

	err = s.Append(Record{Emission: nil, Classes: 0, Frames: 0, SampleID: "a"})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	s := sampleSet(t)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, s.Classes, got.Classes)
	assert.Equal(t, s.Transition, got.Transition)
	assert.Equal(t, s.Config, got.Config)
	assert.Equal(t, s.Len(), got.Len())
	assert.Equal(t, s.Emissions, got.Emissions)
	assert.Equal(t, s.FrameCounts, got.FrameCounts)
	assert.Equal(t, s.TokenTargets, got.TokenTargets)
	assert.Equal(t, s.WordTargets, got.WordTargets)
	assert.Equal(t, s.SampleIDs, got.SampleIDs)
}

func TestRoundTripEmptyOptionals(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Append(Record{
		Emission: []float32{1, 2}, Classes: 2, Frames: 1, SampleID: "only",
	}))
	// No transition vector (non-ASG run), empty word target.

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Nil(t, got.Transition)
	assert.Nil(t, got.WordTargets[0])
	assert.Equal(t, "only", got.SampleIDs[0])
}

func TestSealedAfterWrite(t *testing.T) {
	s := sampleSet(t)
	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))

	err := s.Append(Record{Emission: make([]float32, 3), Classes: 3, Frames: 1, SampleID: "late"})
	assert.Error(t, err)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not an emission set")))
	assert.Error(t, err)

	_, err = Read(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run", "test-clean.bin")

	s := sampleSet(t)
	require.NoError(t, s.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.SampleIDs, got.SampleIDs)

	// The atomic rename leaves no temp files behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test-clean.bin", entries[0].Name())
}

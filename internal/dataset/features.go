package dataset

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Feature files hold one utterance's precomputed acoustic features: two
// little-endian int32 dimensions (frames, dim) followed by frames*dim
// float32 values, frame-major.

// ReadFeatures loads a feature file, returning the flattened matrix and its
// dimensions.
func ReadFeatures(path string) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "open feature file")
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var frames, dim int32
	if err := binary.Read(br, binary.LittleEndian, &frames); err != nil {
		return nil, 0, 0, errors.Wrap(err, "read frame count")
	}
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, 0, 0, errors.Wrap(err, "read feature dim")
	}
	if frames <= 0 || dim <= 0 {
		return nil, 0, 0, errors.Errorf("degenerate feature dimensions %dx%d", frames, dim)
	}

	data := make([]float32, int(frames)*int(dim))
	if err := binary.Read(br, binary.LittleEndian, data); err != nil {
		return nil, 0, 0, errors.Wrap(err, "read feature data")
	}
	return data, int(frames), int(dim), nil
}

// WriteFeatures writes a feature matrix in the format ReadFeatures expects.
// Used by corpus preparation tooling and tests.
func WriteFeatures(w io.Writer, data []float32, frames, dim int) error {
	if len(data) != frames*dim {
		return errors.Errorf("feature data has %d values, want %d", len(data), frames*dim)
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(frames)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(dim)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, data); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFeatureFile writes a feature file at path.
func WriteFeatureFile(path string, data []float32, frames, dim int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create feature file")
	}
	if err := WriteFeatures(f, data, frames, dim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

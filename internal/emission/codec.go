package emission

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Artifact framing. Everything after the magic and version is little-endian
// and length-prefixed, so a reader needs no external metadata to reconstruct
// the set.
var magic = [6]byte{'E', 'M', 'S', 'E', 'T', 0}

const codecVersion uint16 = 1

// maxStringLen bounds length prefixes read back from an artifact so a
// corrupted header cannot drive a giant allocation.
const maxStringLen = 1 << 20

// Write serializes the set to w. The set is sealed afterwards; further
// appends fail.
func (s *Set) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(magic[:]); err != nil {
		return errors.Wrap(err, "emission: write magic")
	}
	le := func(v interface{}) error {
		return binary.Write(bw, binary.LittleEndian, v)
	}
	if err := le(codecVersion); err != nil {
		return errors.Wrap(err, "emission: write version")
	}
	if err := le(int32(s.Classes)); err != nil {
		return errors.Wrap(err, "emission: write class count")
	}
	if err := le(int32(len(s.Transition))); err != nil {
		return errors.Wrap(err, "emission: write transition length")
	}
	if err := le(s.Transition); err != nil {
		return errors.Wrap(err, "emission: write transition")
	}
	if err := writeString(bw, s.Config); err != nil {
		return errors.Wrap(err, "emission: write config blob")
	}
	if err := le(int32(s.Len())); err != nil {
		return errors.Wrap(err, "emission: write record count")
	}

	for i := 0; i < s.Len(); i++ {
		if err := le(int32(s.FrameCounts[i])); err != nil {
			return errors.Wrapf(err, "emission: record %d frame count", i)
		}
		if err := le(s.Emissions[i]); err != nil {
			return errors.Wrapf(err, "emission: record %d matrix", i)
		}
		tokens := make([]int32, len(s.TokenTargets[i]))
		for j, t := range s.TokenTargets[i] {
			tokens[j] = int32(t)
		}
		if err := le(int32(len(tokens))); err != nil {
			return errors.Wrapf(err, "emission: record %d target length", i)
		}
		if err := le(tokens); err != nil {
			return errors.Wrapf(err, "emission: record %d target", i)
		}
		if err := le(int32(len(s.WordTargets[i]))); err != nil {
			return errors.Wrapf(err, "emission: record %d word count", i)
		}
		for _, w := range s.WordTargets[i] {
			if err := writeString(bw, w); err != nil {
				return errors.Wrapf(err, "emission: record %d word", i)
			}
		}
		if err := writeString(bw, s.SampleIDs[i]); err != nil {
			return errors.Wrapf(err, "emission: record %d sample id", i)
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "emission: flush")
	}
	s.sealed = true
	return nil
}

// Read deserializes a set previously produced by Write.
func Read(r io.Reader) (*Set, error) {
	br := bufio.NewReader(r)

	var m [6]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		return nil, errors.Wrap(err, "emission: read magic")
	}
	if m != magic {
		return nil, errors.Errorf("emission: bad magic %q, not an emission set", m)
	}
	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "emission: read version")
	}
	if version != codecVersion {
		return nil, errors.Errorf("emission: unsupported artifact version %d", version)
	}

	s := &Set{}
	classes, err := readCount(br, "class count")
	if err != nil {
		return nil, err
	}
	s.Classes = classes

	transLen, err := readCount(br, "transition length")
	if err != nil {
		return nil, err
	}
	if transLen > 0 {
		s.Transition = make([]float32, transLen)
		if err := binary.Read(br, binary.LittleEndian, s.Transition); err != nil {
			return nil, errors.Wrap(err, "emission: read transition")
		}
	}
	if s.Config, err = readString(br); err != nil {
		return nil, errors.Wrap(err, "emission: read config blob")
	}

	n, err := readCount(br, "record count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		frames, err := readCount(br, "frame count")
		if err != nil {
			return nil, errors.Wrapf(err, "emission: record %d", i)
		}
		em := make([]float32, s.Classes*frames)
		if err := binary.Read(br, binary.LittleEndian, em); err != nil {
			return nil, errors.Wrapf(err, "emission: record %d matrix", i)
		}

		tokLen, err := readCount(br, "target length")
		if err != nil {
			return nil, errors.Wrapf(err, "emission: record %d", i)
		}
		tokens32 := make([]int32, tokLen)
		if err := binary.Read(br, binary.LittleEndian, tokens32); err != nil {
			return nil, errors.Wrapf(err, "emission: record %d target", i)
		}
		tokens := make([]int, tokLen)
		for j, t := range tokens32 {
			tokens[j] = int(t)
		}

		wordCount, err := readCount(br, "word count")
		if err != nil {
			return nil, errors.Wrapf(err, "emission: record %d", i)
		}
		var words []string
		for j := 0; j < wordCount; j++ {
			w, err := readString(br)
			if err != nil {
				return nil, errors.Wrapf(err, "emission: record %d word %d", i, j)
			}
			words = append(words, w)
		}

		id, err := readString(br)
		if err != nil {
			return nil, errors.Wrapf(err, "emission: record %d sample id", i)
		}

		s.Emissions = append(s.Emissions, em)
		s.FrameCounts = append(s.FrameCounts, frames)
		s.TokenTargets = append(s.TokenTargets, tokens)
		s.WordTargets = append(s.WordTargets, words)
		s.SampleIDs = append(s.SampleIDs, id)
	}
	return s, nil
}

// Save writes the artifact atomically: the set is serialized to a temp file
// in the target directory and renamed into place, so a failed run never
// leaves a truncated artifact behind.
func (s *Set) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "emission: create emission dir")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "emission: create temp artifact")
	}
	if err := s.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "emission: close temp artifact")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "emission: rename artifact into place")
	}
	return nil
}

// Load reads the artifact at path.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "emission: open artifact")
	}
	defer f.Close()
	s, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "emission: %s", path)
	}
	return s, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", errors.Errorf("string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readCount(r io.Reader, what string) (int, error) {
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, errors.Wrapf(err, "emission: read %s", what)
	}
	if v < 0 {
		return 0, errors.Errorf("emission: negative %s %d", what, v)
	}
	return int(v), nil
}

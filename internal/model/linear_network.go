package model

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// amMagic frames serialized acoustic model files.
var amMagic = [6]byte{'A', 'M', 'L', 'I', 'N', 0}

// LinearNetwork is an affine frame classifier: scores = W*x + b applied to
// every input frame independently. It is the simplest Network that turns a
// feature stream into an emission matrix; heavier architectures live outside
// this stage and only need to satisfy the Network interface.
type LinearNetwork struct {
	// W is classes x dim, row-major; B is one bias per class.
	W       []float32
	B       []float32
	Classes int
	Dim     int

	// TransitionParams holds the ASG transition matrix trained alongside the
	// network, classes x classes row-major. Nil for criteria without
	// transitions.
	TransitionParams []float32
}

// Forward scores every frame of the flattened frame-major input. The input
// length must be a whole number of feature frames.
func (n *LinearNetwork) Forward(input []float32) (*Emission, error) {
	if n.Dim <= 0 || len(input)%n.Dim != 0 {
		return nil, errors.Errorf("model: input of %d values is not a multiple of feature dim %d", len(input), n.Dim)
	}
	frames := len(input) / n.Dim
	if frames == 0 {
		return nil, errors.New("model: empty input")
	}

	e := &Emission{
		Scores:  make([]float32, n.Classes*frames),
		Classes: n.Classes,
		Frames:  frames,
	}
	for t := 0; t < frames; t++ {
		x := input[t*n.Dim : (t+1)*n.Dim]
		for c := 0; c < n.Classes; c++ {
			w := n.W[c*n.Dim : (c+1)*n.Dim]
			sum := n.B[c]
			for d, v := range x {
				sum += w[d] * v
			}
			e.Scores[c*frames+t] = sum
		}
	}
	return e, nil
}

// SaveNetwork serializes the network to w: magic, classes, dim, weights,
// biases, transition length and data, all little-endian.
func SaveNetwork(w io.Writer, n *LinearNetwork) error {
	if len(n.W) != n.Classes*n.Dim || len(n.B) != n.Classes {
		return errors.Errorf("model: inconsistent network shape %dx%d", n.Classes, n.Dim)
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(amMagic[:]); err != nil {
		return errors.Wrap(err, "model: write magic")
	}
	for _, v := range []interface{}{
		int32(n.Classes), int32(n.Dim), n.W, n.B,
		int32(len(n.TransitionParams)), n.TransitionParams,
	} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return errors.Wrap(err, "model: write network")
		}
	}
	return bw.Flush()
}

// LoadNetwork reads a network serialized by SaveNetwork.
func LoadNetwork(r io.Reader) (*LinearNetwork, error) {
	br := bufio.NewReader(r)
	var m [6]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		return nil, errors.Wrap(err, "model: read magic")
	}
	if m != amMagic {
		return nil, errors.Errorf("model: bad magic %q, not an acoustic model file", m)
	}

	var classes, dim int32
	if err := binary.Read(br, binary.LittleEndian, &classes); err != nil {
		return nil, errors.Wrap(err, "model: read class count")
	}
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, errors.Wrap(err, "model: read feature dim")
	}
	if classes <= 0 || dim <= 0 {
		return nil, errors.Errorf("model: degenerate network shape %dx%d", classes, dim)
	}

	n := &LinearNetwork{
		W:       make([]float32, int(classes)*int(dim)),
		B:       make([]float32, classes),
		Classes: int(classes),
		Dim:     int(dim),
	}
	if err := binary.Read(br, binary.LittleEndian, n.W); err != nil {
		return nil, errors.Wrap(err, "model: read weights")
	}
	if err := binary.Read(br, binary.LittleEndian, n.B); err != nil {
		return nil, errors.Wrap(err, "model: read biases")
	}
	var transLen int32
	if err := binary.Read(br, binary.LittleEndian, &transLen); err != nil {
		return nil, errors.Wrap(err, "model: read transition length")
	}
	if transLen < 0 {
		return nil, errors.Errorf("model: negative transition length %d", transLen)
	}
	if transLen > 0 {
		if transLen != classes*classes {
			return nil, errors.Errorf("model: transition vector of %d values, want %d", transLen, classes*classes)
		}
		n.TransitionParams = make([]float32, transLen)
		if err := binary.Read(br, binary.LittleEndian, n.TransitionParams); err != nil {
			return nil, errors.Wrap(err, "model: read transitions")
		}
	}
	return n, nil
}

// LoadNetworkFile reads a network from the file at path.
func LoadNetworkFile(path string) (*LinearNetwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "model: open acoustic model")
	}
	defer f.Close()
	n, err := LoadNetwork(f)
	if err != nil {
		return nil, errors.Wrapf(err, "model: %s", path)
	}
	return n, nil
}

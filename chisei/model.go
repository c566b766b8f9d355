package chisei

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// ModelSuffix is the canonical extension for serialized models.
// SaveModel appends it when the given filename lacks it.
const ModelSuffix = ".chisei"

var modelMagic = [2]byte{'C', 'S'}

// maxModelLayers bounds the layer count accepted from a model header, so
// a corrupt file cannot drive a huge allocation.
const maxModelLayers = 1 << 16

// SaveModel serializes the network parameters to filename, appending
// ModelSuffix if missing.
//
// The stream layout is: the two magic bytes "CS", the layer count and
// the layer widths as little-endian uint64, then for each inter-layer
// gap the weight matrix rows in ascending row order, and finally the
// bias vectors, all as little-endian float64.
//
// The activation pair is not persisted; callers supply it again on load.
func (net *Network) SaveModel(filename string) error {
	if !strings.HasSuffix(filename, ModelSuffix) {
		filename += ModelSuffix
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelIO, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if _, err := w.Write(modelMagic[:]); err != nil {
		return fmt.Errorf("while writing magic: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(net.sizes))); err != nil {
		return fmt.Errorf("while writing layer count: %w", err)
	}
	for _, s := range net.sizes {
		if err := binary.Write(w, binary.LittleEndian, uint64(s)); err != nil {
			return fmt.Errorf("while writing layer sizes: %w", err)
		}
	}

	for k, wk := range net.weights {
		if err := binary.Write(w, binary.LittleEndian, wk); err != nil {
			return fmt.Errorf("while writing weights for gap %d: %w", k, err)
		}
	}
	for k, bk := range net.biases {
		if err := binary.Write(w, binary.LittleEndian, bk); err != nil {
			return fmt.Errorf("while writing biases for gap %d: %w", k, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("while flushing model file: %w", err)
	}
	return nil
}

// LoadModel deserializes a network written by SaveModel.  The stream
// does not record which activation the network was trained with, so the
// caller must supply it.  It panics if act is Custom; use LoadModelFunc
// to restore a network with a caller-supplied pair.
func LoadModel(filename string, act Activation) (*Network, error) {
	fn, deriv := act.Func(), act.Derivative()
	if fn == nil || deriv == nil {
		panic("chisei: LoadModel needs a built-in activation; use LoadModelFunc for custom pairs")
	}
	return loadModel(filename, act, fn, deriv)
}

// LoadModelFunc is LoadModel for a caller-supplied activation pair.
func LoadModelFunc(filename string, fn, deriv ActivationFunc) (*Network, error) {
	if fn == nil || deriv == nil {
		panic("chisei: LoadModelFunc needs both an activation and its derivative")
	}
	return loadModel(filename, Custom, fn, deriv)
}

func loadModel(filename string, act Activation, fn, deriv ActivationFunc) (*Network, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelIO, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [2]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: missing magic bytes", ErrModelFormat)
	}
	if magic != modelMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrModelFormat, magic[:])
	}

	var layerCount uint64
	if err := binary.Read(r, binary.LittleEndian, &layerCount); err != nil {
		return nil, fmt.Errorf("%w: truncated layer count", ErrModelFormat)
	}
	if layerCount < 2 || layerCount > maxModelLayers {
		return nil, fmt.Errorf("%w: implausible layer count %d", ErrModelFormat, layerCount)
	}

	sizes := make([]int, layerCount)
	for i := range sizes {
		var s uint64
		if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
			return nil, fmt.Errorf("%w: truncated layer sizes", ErrModelFormat)
		}
		if s < 1 || s > math.MaxInt32 {
			return nil, fmt.Errorf("%w: implausible layer width %d", ErrModelFormat, s)
		}
		sizes[i] = int(s)
	}

	// Runs the usual random initialization; every parameter is
	// overwritten from the stream below.
	net := newNetwork(sizes, act, fn, deriv)

	for k := range net.weights {
		if err := binary.Read(r, binary.LittleEndian, net.weights[k]); err != nil {
			return nil, fmt.Errorf("%w: truncated weights for gap %d", ErrModelFormat, k)
		}
	}
	for k := range net.biases {
		if err := binary.Read(r, binary.LittleEndian, net.biases[k]); err != nil {
			return nil, fmt.Errorf("%w: truncated biases for gap %d", ErrModelFormat, k)
		}
	}

	return net, nil
}

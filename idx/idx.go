// Package idx reads the classic handwritten-digit image/label binary
// format and produces training pairs for a chisei network.
package idx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nthnn/chisei-go/chisei"
)

// ErrFormat reports an image or label stream with a wrong magic number
// or truncated contents.
var ErrFormat = errors.New("idx: invalid dataset format")

const (
	imageMagic = 0x00000803
	labelMagic = 0x00000801

	// maxSamples clamps how many samples a single load produces.
	maxSamples = 5000

	// classes is the number of output classes; targets are one-hot
	// vectors of this length.
	classes = 10
)

// Dataset holds decoded samples.  Inputs are row-major pixel vectors
// scaled to [0, 1]; Targets are one-hot vectors of length 10.
type Dataset struct {
	Inputs  [][]float64
	Targets [][]float64

	Rows int
	Cols int
}

// InputSize returns the length of every input vector.
func (d *Dataset) InputSize() int {
	return d.Rows * d.Cols
}

// Load decodes a paired images and labels file.
//
// The images file starts with the big-endian magic 0x00000803 followed
// by big-endian image, row, and column counts, then raw pixel bytes.
// The labels file starts with the big-endian magic 0x00000801 and a
// count, then raw label bytes.  At most 5000 samples are decoded.
func Load(imagesPath, labelsPath string) (*Dataset, error) {
	images, err := os.Open(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("while opening images file: %w", err)
	}
	defer images.Close()

	labels, err := os.Open(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("while opening labels file: %w", err)
	}
	defer labels.Close()

	return decode(images, labels)
}

func decode(images, labels io.Reader) (*Dataset, error) {
	var imageHeader struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(images, binary.BigEndian, &imageHeader); err != nil {
		return nil, fmt.Errorf("%w: truncated image header", ErrFormat)
	}
	if imageHeader.Magic != imageMagic {
		return nil, fmt.Errorf("%w: image magic 0x%08x, want 0x%08x", ErrFormat, imageHeader.Magic, uint32(imageMagic))
	}

	var labelHeader struct {
		Magic, Count uint32
	}
	if err := binary.Read(labels, binary.BigEndian, &labelHeader); err != nil {
		return nil, fmt.Errorf("%w: truncated label header", ErrFormat)
	}
	if labelHeader.Magic != labelMagic {
		return nil, fmt.Errorf("%w: label magic 0x%08x, want 0x%08x", ErrFormat, labelHeader.Magic, uint32(labelMagic))
	}

	count := int(imageHeader.Count)
	if count > maxSamples {
		count = maxSamples
	}
	inputSize := int(imageHeader.Rows) * int(imageHeader.Cols)

	ds := &Dataset{
		Inputs:  make([][]float64, 0, count),
		Targets: make([][]float64, 0, count),
		Rows:    int(imageHeader.Rows),
		Cols:    int(imageHeader.Cols),
	}

	pixels := make([]byte, inputSize)
	label := make([]byte, 1)
	for s := 0; s < count; s++ {
		if _, err := io.ReadFull(images, pixels); err != nil {
			return nil, fmt.Errorf("%w: truncated pixel data at sample %d", ErrFormat, s)
		}
		if _, err := io.ReadFull(labels, label); err != nil {
			return nil, fmt.Errorf("%w: truncated label data at sample %d", ErrFormat, s)
		}
		if label[0] >= classes {
			return nil, fmt.Errorf("%w: label %d out of range at sample %d", ErrFormat, label[0], s)
		}

		input := make([]float64, inputSize)
		for j, p := range pixels {
			input[j] = float64(p) / 255
		}

		target := make([]float64, classes)
		target[label[0]] = 1

		ds.Inputs = append(ds.Inputs, input)
		ds.Targets = append(ds.Targets, target)
	}

	return ds, nil
}

// FromMNIST loads an image/label pair and trains a fresh
// {pixels, 256, 128, 10} sigmoid network on it.
func FromMNIST(imagesPath, labelsPath string, learningRate float64, epochs int) (*chisei.Network, error) {
	ds, err := Load(imagesPath, labelsPath)
	if err != nil {
		return nil, err
	}

	net := chisei.NewNetwork([]int{ds.InputSize(), 256, 128, classes}, chisei.Sigmoid)
	if err := net.Train(ds.Inputs, ds.Targets, learningRate, epochs); err != nil {
		return nil, fmt.Errorf("while training on dataset: %w", err)
	}
	return net, nil
}

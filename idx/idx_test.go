package idx

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeImagesFile(t *testing.T, dir string, count, rows, cols uint32, pixels []byte) string {
	t.Helper()

	header := make([]byte, 16)
	binary.BigEndian.PutUint32(header[0:], 0x00000803)
	binary.BigEndian.PutUint32(header[4:], count)
	binary.BigEndian.PutUint32(header[8:], rows)
	binary.BigEndian.PutUint32(header[12:], cols)

	path := filepath.Join(dir, "images")
	if err := os.WriteFile(path, append(header, pixels...), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeLabelsFile(t *testing.T, dir string, count uint32, labels []byte) string {
	t.Helper()

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:], 0x00000801)
	binary.BigEndian.PutUint32(header[4:], count)

	path := filepath.Join(dir, "labels")
	if err := os.WriteFile(path, append(header, labels...), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	images := writeImagesFile(t, dir, 2, 2, 2, []byte{0, 128, 255, 64, 10, 20, 30, 40})
	labels := writeLabelsFile(t, dir, 2, []byte{3, 7})

	ds, err := Load(images, labels)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if ds.Rows != 2 || ds.Cols != 2 {
		t.Errorf("Rows/Cols = %d/%d, want 2/2", ds.Rows, ds.Cols)
	}
	if ds.InputSize() != 4 {
		t.Errorf("InputSize() = %d, want 4", ds.InputSize())
	}

	wantInputs := [][]float64{
		{0, 128.0 / 255, 1, 64.0 / 255},
		{10.0 / 255, 20.0 / 255, 30.0 / 255, 40.0 / 255},
	}
	if diff := cmp.Diff(ds.Inputs, wantInputs); diff != "" {
		t.Errorf("Wrong inputs; diff (-got +want)\n%s", diff)
	}

	wantTargets := [][]float64{
		{0, 0, 0, 1, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 1, 0, 0},
	}
	if diff := cmp.Diff(ds.Targets, wantTargets); diff != "" {
		t.Errorf("Wrong targets; diff (-got +want)\n%s", diff)
	}
}

// The on-disk headers are big-endian: the byte sequence 0x00 0x00 0x08
// 0x03 must decode as the image magic.
func TestHeaderEndianness(t *testing.T) {
	dir := t.TempDir()

	raw := []byte{
		0x00, 0x00, 0x08, 0x03, // magic
		0x00, 0x00, 0x00, 0x01, // 1 image
		0x00, 0x00, 0x00, 0x01, // 1 row
		0x00, 0x00, 0x00, 0x01, // 1 col
		0xff,
	}
	images := filepath.Join(dir, "images")
	if err := os.WriteFile(images, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	labels := writeLabelsFile(t, dir, 1, []byte{0})

	ds, err := Load(images, labels)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Inputs) != 1 || ds.Inputs[0][0] != 1 {
		t.Errorf("Inputs = %v, want one sample of [1]", ds.Inputs)
	}
}

func TestLoadWrongMagic(t *testing.T) {
	dir := t.TempDir()

	badImages := filepath.Join(dir, "bad-images")
	raw := make([]byte, 16)
	binary.BigEndian.PutUint32(raw, 0x00000801) // label magic in an images file
	if err := os.WriteFile(badImages, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	labels := writeLabelsFile(t, dir, 1, []byte{0})

	if _, err := Load(badImages, labels); !errors.Is(err, ErrFormat) {
		t.Errorf("Load with wrong image magic returned %v, want ErrFormat", err)
	}

	images := writeImagesFile(t, dir, 1, 1, 1, []byte{0})
	badLabels := filepath.Join(dir, "bad-labels")
	binary.BigEndian.PutUint32(raw, 0x00000803) // image magic in a labels file
	if err := os.WriteFile(badLabels, raw[:8], 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(images, badLabels); !errors.Is(err, ErrFormat) {
		t.Errorf("Load with wrong label magic returned %v, want ErrFormat", err)
	}
}

func TestLoadTruncatedPixels(t *testing.T) {
	dir := t.TempDir()
	images := writeImagesFile(t, dir, 2, 2, 2, []byte{0, 1, 2}) // 8 pixel bytes missing
	labels := writeLabelsFile(t, dir, 2, []byte{1, 2})

	if _, err := Load(images, labels); !errors.Is(err, ErrFormat) {
		t.Errorf("Load with truncated pixels returned %v, want ErrFormat", err)
	}
}

func TestLoadClampsSampleCount(t *testing.T) {
	dir := t.TempDir()

	pixels := make([]byte, 6000)
	labelBytes := make([]byte, 6000)
	images := writeImagesFile(t, dir, 6000, 1, 1, pixels)
	labels := writeLabelsFile(t, dir, 6000, labelBytes)

	ds, err := Load(images, labels)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Inputs) != 5000 {
		t.Errorf("Loaded %d samples, want the 5000-sample clamp", len(ds.Inputs))
	}
}

func TestFromMNIST(t *testing.T) {
	dir := t.TempDir()
	images := writeImagesFile(t, dir, 2, 2, 2, []byte{0, 128, 255, 64, 10, 20, 30, 40})
	labels := writeLabelsFile(t, dir, 2, []byte{3, 7})

	net, err := FromMNIST(images, labels, 0.1, 1)
	if err != nil {
		t.Fatalf("FromMNIST: %v", err)
	}

	if diff := cmp.Diff(net.Sizes(), []int{4, 256, 128, 10}); diff != "" {
		t.Errorf("Wrong network shape; diff (-got +want)\n%s", diff)
	}

	prediction, err := net.Predict([]float64{0, 0.5, 1, 0.25})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(prediction) != 10 {
		t.Errorf("Predict returned %d outputs, want 10", len(prediction))
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/google/subcommands"
	"github.com/nthnn/chisei-go/chisei"
	"github.com/nthnn/chisei-go/idx"
	"github.com/sbinet/npyio/npz"
)

// maxNPZSamples matches the idx package's clamp, so both data paths
// train on comparable sets.
const maxNPZSamples = 5000

type TrainCommand struct {
	imagesFile string
	labelsFile string
	dataFile   string

	outputModelFile string
	learningRate    float64
	epochs          int

	cpuProfileFile string
}

var _ subcommands.Command = (*TrainCommand)(nil)

func (*TrainCommand) Name() string {
	return "train"
}

func (*TrainCommand) Synopsis() string {
	return "Train the model"
}

func (*TrainCommand) Usage() string {
	return ``
}

func (c *TrainCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.imagesFile, "images", "", "Path to the training images file (big-endian image/label binary format)")
	f.StringVar(&c.labelsFile, "labels", "", "Path to the training labels file")
	f.StringVar(&c.dataFile, "data-file", "", "Path to an mnist.npz file (alternative to --images/--labels)")
	f.StringVar(&c.outputModelFile, "output-model", "mnist.chisei", "Path to save the trained model")
	f.Float64Var(&c.learningRate, "learning-rate", 0.1, "Learning rate for online SGD")
	f.IntVar(&c.epochs, "epochs", 5, "Number of training epochs")

	f.StringVar(&c.cpuProfileFile, "cpu-profile", "", "Write a CPU profile")
}

func (c *TrainCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *TrainCommand) executeErr(ctx context.Context) error {
	if c.cpuProfileFile != "" {
		f, err := os.Create(c.cpuProfileFile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	inputs, targets, err := c.loadDataset()
	if err != nil {
		return fmt.Errorf("while loading training data: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("training set is empty")
	}
	log.Printf("Loaded %d training samples of %d pixels", len(inputs), len(inputs[0]))

	net := chisei.NewNetwork([]int{len(inputs[0]), 256, 128, 10}, chisei.Sigmoid)

	for epoch := 0; epoch < c.epochs; epoch++ {
		if err := net.Train(inputs, targets, c.learningRate, 1); err != nil {
			return fmt.Errorf("while training epoch %d: %w", epoch, err)
		}

		loss, accuracy, err := evaluate(net, inputs, targets)
		if err != nil {
			return fmt.Errorf("while evaluating epoch %d: %w", epoch, err)
		}
		log.Printf("epoch %d training-loss=%f training-pct=%.1f", epoch, loss, accuracy*100)
	}

	if err := net.SaveModel(c.outputModelFile); err != nil {
		return fmt.Errorf("while saving model: %w", err)
	}
	log.Printf("Model saved to %s", c.outputModelFile)

	return nil
}

func (c *TrainCommand) loadDataset() (inputs, targets [][]float64, err error) {
	if c.dataFile != "" {
		return loadNPZ(c.dataFile)
	}
	if c.imagesFile == "" || c.labelsFile == "" {
		return nil, nil, fmt.Errorf("need either --data-file or both --images and --labels")
	}

	ds, err := idx.Load(c.imagesFile, c.labelsFile)
	if err != nil {
		return nil, nil, err
	}
	return ds.Inputs, ds.Targets, nil
}

// evaluate returns the mean squared error and argmax accuracy of the
// network over the sample set.
func evaluate(net *chisei.Network, inputs, targets [][]float64) (loss, accuracy float64, err error) {
	for s := range inputs {
		prediction, err := net.Predict(inputs[s])
		if err != nil {
			return 0, 0, err
		}
		loss += chisei.MSE(prediction, targets[s])
	}
	loss /= float64(len(inputs))

	accuracy, err = net.Accuracy(inputs, targets)
	if err != nil {
		return 0, 0, err
	}
	return loss, accuracy, nil
}

// loadNPZ reads uint8 images and labels from an mnist.npz archive and
// converts them to the same normalized-input / one-hot-target pairs the
// idx package produces.
func loadNPZ(path string) (inputs, targets [][]float64, err error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("while opening npz data file: %w", err)
	}
	defer r.Close()

	imgHeader := r.Header("x_train.npy")
	if len(imgHeader.Descr.Shape) != 3 {
		return nil, nil, fmt.Errorf("x_train.npy has shape %v, want 3 dimensions", imgHeader.Descr.Shape)
	}

	var rawImages []uint8
	if err := r.Read("x_train.npy", &rawImages); err != nil {
		return nil, nil, fmt.Errorf("while reading x_train.npy: %w", err)
	}

	var rawLabels []uint8
	if err := r.Read("y_train.npy", &rawLabels); err != nil {
		return nil, nil, fmt.Errorf("while reading y_train.npy: %w", err)
	}

	count := imgHeader.Descr.Shape[0]
	if count > len(rawLabels) {
		count = len(rawLabels)
	}
	if count > maxNPZSamples {
		count = maxNPZSamples
	}
	inputSize := imgHeader.Descr.Shape[1] * imgHeader.Descr.Shape[2]

	inputs = make([][]float64, 0, count)
	targets = make([][]float64, 0, count)
	for s := 0; s < count; s++ {
		input := make([]float64, inputSize)
		for j := 0; j < inputSize; j++ {
			input[j] = float64(rawImages[s*inputSize+j]) / 255
		}

		target := make([]float64, 10)
		target[rawLabels[s]%10] = 1

		inputs = append(inputs, input)
		targets = append(targets, target)
	}

	return inputs, targets, nil
}

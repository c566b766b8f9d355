package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"
	"github.com/nthnn/chisei-go/chisei"
	"github.com/nthnn/chisei-go/idx"
)

type InferCommand struct {
	modelFile  string
	imagesFile string
	labelsFile string

	showSamples int
}

var _ subcommands.Command = (*InferCommand)(nil)

func (*InferCommand) Name() string {
	return "infer"
}

func (*InferCommand) Synopsis() string {
	return "Evaluate a trained model on a test set"
}

func (*InferCommand) Usage() string {
	return ``
}

func (c *InferCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.modelFile, "model", "mnist.chisei", "Path to the model produced by the train command")
	f.StringVar(&c.imagesFile, "images", "", "Path to the test images file")
	f.StringVar(&c.labelsFile, "labels", "", "Path to the test labels file")
	f.IntVar(&c.showSamples, "show-samples", 10, "Print predictions for this many leading samples")
}

func (c *InferCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *InferCommand) executeErr(ctx context.Context) error {
	// The model stream does not record the activation; the train command
	// always builds sigmoid networks.
	net, err := chisei.LoadModel(c.modelFile, chisei.Sigmoid)
	if err != nil {
		return err
	}

	ds, err := idx.Load(c.imagesFile, c.labelsFile)
	if err != nil {
		return err
	}

	for s := 0; s < c.showSamples && s < len(ds.Inputs); s++ {
		prediction, err := net.Predict(ds.Inputs[s])
		if err != nil {
			return err
		}

		correct := "-"
		if chisei.IsCorrectPrediction(prediction, ds.Targets[s]) {
			correct = "ok"
		}
		log.Printf("sample %d predicted=%d label=%d %s", s, argmax(prediction), argmax(ds.Targets[s]), correct)
	}

	accuracy, err := net.Accuracy(ds.Inputs, ds.Targets)
	if err != nil {
		return err
	}
	log.Printf("Accuracy over %d samples: %.1f%%", len(ds.Inputs), accuracy*100)

	return nil
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

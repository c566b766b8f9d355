// Command mnist trains and evaluates a handwritten-digit classifier.
//
// To train: `go run ./cmd/mnist train --images=train-images-idx3-ubyte --labels=train-labels-idx1-ubyte`
//
// To evaluate: `go run ./cmd/mnist infer --model=mnist.chisei --images=t10k-images-idx3-ubyte --labels=t10k-labels-idx1-ubyte`
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&TrainCommand{}, "")
	subcommands.Register(&InferCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

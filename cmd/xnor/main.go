// Command xnor trains a {2,4,1} sigmoid network on the exclusive-nor
// function, saves it, and evaluates the reloaded model.
package main

import (
	"fmt"
	"log"

	"github.com/nthnn/chisei-go/chisei"
)

func main() {
	inputs := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	targets := [][]float64{{1}, {0}, {0}, {1}}

	xnor := chisei.NewNetwork([]int{2, 4, 1}, chisei.Sigmoid)
	if err := xnor.Train(inputs, targets, 6, 10000); err != nil {
		log.Fatalf("Error: %v", err)
	}

	printPredictions(xnor, inputs)

	if err := xnor.SaveModel("xnor_model"); err != nil {
		log.Fatalf("Error: %v", err)
	}

	loaded, err := chisei.LoadModel("xnor_model.chisei", chisei.Sigmoid)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	accuracy, err := loaded.Accuracy(inputs, targets)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Network Accuracy: %v%%\n", accuracy*100)

	printPredictions(loaded, inputs)
}

func printPredictions(net *chisei.Network, inputs [][]float64) {
	for _, input := range inputs {
		prediction, err := net.Predict(input)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		// The network has a single output; argmax accuracy is degenerate
		// here, so threshold the raw prediction instead.
		thresholded := "0.0"
		if prediction[0] >= 0.5 {
			thresholded = "1.0"
		}

		fmt.Printf("Input: [%v, %v]\tPrediction: %s\tRaw: %v\n",
			input[0], input[1], thresholded, prediction[0])
	}
}

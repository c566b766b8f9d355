package chisei

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Network is a fully connected feedforward neural network.
//
// The shape is an ordered list of layer widths.  For every inter-layer
// gap k, weights[k] is the row-major (sizes[k] × sizes[k+1]) weight
// matrix — entry (i, j) connects input neuron i of layer k to neuron j
// of layer k+1 — and biases[k] is the length-sizes[k+1] bias vector.
//
// A Network is not safe for concurrent mutation.  Concurrent Predict
// calls are safe as long as no Train call is running.
type Network struct {
	sizes   []int
	weights [][]float64
	biases  [][]float64

	activation Activation
	fn         ActivationFunc
	deriv      ActivationFunc
}

// NewNetwork constructs a network with the given layer widths and a
// built-in activation pair.  Weights and biases are drawn independently
// from N(0, 0.1) using a per-network random source seeded from the
// operating system.
//
// It panics if the shape has fewer than two layers, any width is less
// than one, or act is Custom.
func NewNetwork(sizes []int, act Activation) *Network {
	fn, deriv := act.Func(), act.Derivative()
	if fn == nil || deriv == nil {
		panic("chisei: NewNetwork needs a built-in activation; use NewNetworkFunc for custom pairs")
	}
	return newNetwork(sizes, act, fn, deriv)
}

// NewNetworkFunc constructs a network from a caller-supplied activation
// pair.  The derivative must be expressed in terms of the activation's
// own output, like the built-in pairs.
func NewNetworkFunc(sizes []int, fn, deriv ActivationFunc) *Network {
	if fn == nil || deriv == nil {
		panic("chisei: NewNetworkFunc needs both an activation and its derivative")
	}
	return newNetwork(sizes, Custom, fn, deriv)
}

func newNetwork(sizes []int, act Activation, fn, deriv ActivationFunc) *Network {
	if len(sizes) < 2 {
		panic(fmt.Sprintf("chisei: invalid shape %v: need at least input and output layers", sizes))
	}
	for _, s := range sizes {
		if s < 1 {
			panic(fmt.Sprintf("chisei: invalid shape %v: layer widths must be positive", sizes))
		}
	}

	dist := distuv.Normal{
		Mu:    0,
		Sigma: 0.1,
		Src:   rand.NewSource(randomSeed()),
	}

	net := &Network{
		sizes:      append([]int(nil), sizes...),
		weights:    make([][]float64, len(sizes)-1),
		biases:     make([][]float64, len(sizes)-1),
		activation: act,
		fn:         fn,
		deriv:      deriv,
	}
	for k := 0; k < len(sizes)-1; k++ {
		w := make([]float64, sizes[k]*sizes[k+1])
		for i := range w {
			w[i] = dist.Rand()
		}
		b := make([]float64, sizes[k+1])
		for i := range b {
			b[i] = dist.Rand()
		}
		net.weights[k] = w
		net.biases[k] = b
	}

	return net
}

// randomSeed draws a seed from the operating system's cryptographic
// source, which is hardware-backed where the platform provides it.
func randomSeed() uint64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Sizes returns a copy of the layer widths.
func (net *Network) Sizes() []int {
	return append([]int(nil), net.sizes...)
}

// InputSize returns the width of the input layer.
func (net *Network) InputSize() int {
	return net.sizes[0]
}

// OutputSize returns the width of the output layer.
func (net *Network) OutputSize() int {
	return net.sizes[len(net.sizes)-1]
}

// Activation returns the activation the network was built with, or
// Custom for networks built with NewNetworkFunc.
func (net *Network) Activation() Activation {
	return net.activation
}

// Predict runs a forward pass and returns the output layer's
// activations.  It returns ErrInputShape if the input length does not
// match the input layer width.
func (net *Network) Predict(input []float64) ([]float64, error) {
	if len(input) != net.sizes[0] {
		return nil, fmt.Errorf("%w: input has length %d, want %d", ErrInputShape, len(input), net.sizes[0])
	}

	a := append([]float64(nil), input...)
	for k := range net.weights {
		a = net.applyLayer(k, a)
	}
	return a, nil
}

// applyLayer computes f(a·W_k + B_k) for one inter-layer gap.
func (net *Network) applyLayer(k int, a []float64) []float64 {
	in, out := net.sizes[k], net.sizes[k+1]
	w, b := net.weights[k], net.biases[k]

	next := make([]float64, out)
	for j := 0; j < out; j++ {
		z := b[j]
		for i := 0; i < in; i++ {
			z += a[i] * w[i*out+j]
		}
		next[j] = net.fn(z)
	}
	return next
}

// Train runs online stochastic gradient descent: for every epoch each
// sample, in input order, gets a forward pass, backpropagation, and an
// immediate parameter update.  Samples are never shuffled, so identical
// parameters and data produce identical updates.
//
// The backpropagated output error is (prediction − target)·f', which
// descends ½·MSE.  See MSE for how this relates to the reported loss.
//
// All input and target lengths are validated before any parameter is
// touched; a mismatch returns ErrInputShape and leaves the network
// unchanged.  A learningRate of 0.1 and 10000 epochs are reasonable
// starting points for small networks.
func (net *Network) Train(inputs, targets [][]float64, learningRate float64, epochs int) error {
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs but %d targets", ErrInputShape, len(inputs), len(targets))
	}
	for s := range inputs {
		if len(inputs[s]) != net.InputSize() {
			return fmt.Errorf("%w: input %d has length %d, want %d", ErrInputShape, s, len(inputs[s]), net.InputSize())
		}
		if len(targets[s]) != net.OutputSize() {
			return fmt.Errorf("%w: target %d has length %d, want %d", ErrInputShape, s, len(targets[s]), net.OutputSize())
		}
	}

	for epoch := 0; epoch < epochs; epoch++ {
		for s := range inputs {
			net.trainSample(inputs[s], targets[s], learningRate)
		}
	}

	return nil
}

func (net *Network) trainSample(input, target []float64, learningRate float64) {
	gaps := len(net.weights)

	// Forward pass, retaining every layer's output.
	outputs := make([][]float64, gaps+1)
	outputs[0] = input
	for k := 0; k < gaps; k++ {
		outputs[k+1] = net.applyLayer(k, outputs[k])
	}

	// Output error signal: gradient of ½·MSE with respect to the
	// pre-activation, with f' taken on the post-activation value.
	deltas := make([][]float64, gaps)
	last := outputs[gaps]
	outDelta := make([]float64, len(last))
	for j := range last {
		outDelta[j] = (last[j] - target[j]) * net.deriv(last[j])
	}
	deltas[gaps-1] = outDelta

	// Backward pass.  Row j of W_{k+1} is contiguous, so the error sum
	// for neuron j is a dot product with the next layer's deltas.
	for k := gaps - 2; k >= 0; k-- {
		width, nextWidth := net.sizes[k+1], net.sizes[k+2]
		w := net.weights[k+1]

		delta := make([]float64, width)
		for j := 0; j < width; j++ {
			sum := DotProduct(deltas[k+1], w[j*nextWidth:(j+1)*nextWidth])
			delta[j] = sum * net.deriv(outputs[k+1][j])
		}
		deltas[k] = delta
	}

	// Parameter update, all layers from the deltas captured above.
	for k := 0; k < gaps; k++ {
		in, out := net.sizes[k], net.sizes[k+1]
		w, b := net.weights[k], net.biases[k]
		a := outputs[k]
		delta := deltas[k]

		for i := 0; i < in; i++ {
			row := w[i*out : (i+1)*out]
			for j := 0; j < out; j++ {
				row[j] -= learningRate * delta[j] * a[i]
			}
		}
		for j := 0; j < out; j++ {
			b[j] -= learningRate * delta[j]
		}
	}
}

// MSE returns the mean squared error Σ(pᵢ−tᵢ)²/len(p).
//
// Train descends ½·MSE, so the loss it minimizes is half the value
// reported here.  Callers comparing the two should account for the
// factor of two.
func MSE(prediction, target []float64) float64 {
	if len(prediction) != len(target) {
		panic("chisei: MSE arguments have mismatched lengths")
	}

	var total float64
	for i := range prediction {
		diff := prediction[i] - target[i]
		total += diff * diff
	}
	return total / float64(len(prediction))
}

// OutputGradient returns the gradient 2(pᵢ−tᵢ) of the squared error
// Σ(pᵢ−tᵢ)² with respect to the prediction.  Train does not use it; its
// internal output error is the unscaled (p−t)·f' form (see Train).
func OutputGradient(prediction, target []float64) []float64 {
	if len(prediction) != len(target) {
		panic("chisei: OutputGradient arguments have mismatched lengths")
	}

	gradient := make([]float64, len(prediction))
	for i := range prediction {
		gradient[i] = 2 * (prediction[i] - target[i])
	}
	return gradient
}

// Accuracy predicts every input and returns the fraction of samples, in
// [0, 1], whose prediction argmax matches the target argmax.  It returns
// ErrInputShape if any vector length disagrees with the network shape,
// and 0 for an empty sample set.
func (net *Network) Accuracy(inputs, targets [][]float64) (float64, error) {
	if len(inputs) != len(targets) {
		return 0, fmt.Errorf("%w: %d inputs but %d targets", ErrInputShape, len(inputs), len(targets))
	}
	for s := range inputs {
		if len(inputs[s]) != net.InputSize() {
			return 0, fmt.Errorf("%w: input %d has length %d, want %d", ErrInputShape, s, len(inputs[s]), net.InputSize())
		}
		if len(targets[s]) != net.OutputSize() {
			return 0, fmt.Errorf("%w: target %d has length %d, want %d", ErrInputShape, s, len(targets[s]), net.OutputSize())
		}
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	correct := 0
	for s := range inputs {
		a := append([]float64(nil), inputs[s]...)
		for k := range net.weights {
			a = net.applyLayer(k, a)
		}
		if IsCorrectPrediction(a, targets[s]) {
			correct++
		}
	}
	return float64(correct) / float64(len(inputs)), nil
}

// IsCorrectPrediction reports whether the prediction's argmax matches
// the target's argmax, breaking ties toward the lowest index.  Both
// argmaxes of a length-1 vector are trivially zero, which makes this
// degenerate for single-output networks; threshold those predictions
// instead.
func IsCorrectPrediction(prediction, target []float64) bool {
	return argmax(prediction) == argmax(target)
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

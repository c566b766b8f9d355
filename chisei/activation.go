// Package chisei implements a small fully-connected feedforward neural
// network with online stochastic gradient descent training and binary
// model persistence.
package chisei

import "math"

// ActivationFunc is a scalar activation function or its derivative.
type ActivationFunc func(float64) float64

// Activation selects one of the built-in activation pairs.
//
// Each pair is an activation f and its derivative f'.  By convention f'
// takes the activated output f(z), not the pre-activation z: the sigmoid
// derivative is y*(1-y) and the tanh derivative is 1-y².  ReLU fits the
// same convention because its derivative depends only on the sign, which
// the activation preserves.
type Activation int

const (
	Sigmoid Activation = iota
	ReLU
	Tanh
	Identity

	// Custom marks a network built from a caller-supplied pair with
	// NewNetworkFunc.  It has no built-in functions of its own.
	Custom
)

func (a Activation) String() string {
	switch a {
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	case Tanh:
		return "tanh"
	case Identity:
		return "identity"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// Func returns the activation function, or nil for Custom.
func (a Activation) Func() ActivationFunc {
	switch a {
	case Sigmoid:
		return sigmoidActivation
	case ReLU:
		return reluActivation
	case Tanh:
		return tanhActivation
	case Identity:
		return identityActivation
	default:
		return nil
	}
}

// Derivative returns the derivative of the activation function,
// expressed in terms of the activation's own output.  It returns nil for
// Custom.
func (a Activation) Derivative() ActivationFunc {
	switch a {
	case Sigmoid:
		return sigmoidDerivative
	case ReLU:
		return reluDerivative
	case Tanh:
		return tanhDerivative
	case Identity:
		return identityDerivative
	default:
		return nil
	}
}

func sigmoidActivation(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// sigmoidDerivative expects y = sigmoid(x).
func sigmoidDerivative(y float64) float64 {
	return y * (1 - y)
}

func reluActivation(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func reluDerivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

func tanhActivation(x float64) float64 {
	return math.Tanh(x)
}

// tanhDerivative expects y = tanh(x).
func tanhDerivative(y float64) float64 {
	return 1 - y*y
}

func identityActivation(x float64) float64 {
	return x
}

func identityDerivative(float64) float64 {
	return 1
}

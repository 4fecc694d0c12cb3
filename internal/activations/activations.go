// Package activations provides the elementwise nonlinearities a dense layer
// can apply, looked up by their serialized name.
//
// Derivative receives the activation's own output y = f(x), not x. That is
// exact for the four activations here because each is monotonic and sign
// preserving, so the branch taken on y matches the branch on x. An activation
// without that property (softmax, for example) cannot be added without
// changing how the layer calls Derivative.
package activations

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidActivationName is returned by Lookup for an unknown name.
var ErrInvalidActivationName = errors.New("invalid activation name")

// Serialized names.
const (
	NameSigmoid   = "sigmoid"
	NameTanh      = "tanh"
	NameReLU      = "relu"
	NameLeakyReLU = "leakyRelu"
)

// LeakySlope is the LeakyReLU slope for non-positive inputs.
const LeakySlope = 0.01

// Activation is an activation function with derivative.
// The set of implementations is closed to this package.
type Activation interface {
	// Name is the stable tag used in saved models.
	Name() string

	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) given y = f(x)
	Derivative(y float64) float64

	sealed()
}

// ReLU activation function.
type ReLU struct{}

func (ReLU) Name() string { return NameReLU }

// Activate computes max(0, x)
func (ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if y > 0, else 0
func (ReLU) Derivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return 0
}

func (ReLU) sealed() {}

// Sigmoid activation function.
type Sigmoid struct{}

func (Sigmoid) Name() string { return NameSigmoid }

// Activate computes 1 / (1 + e^-x)
func (Sigmoid) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Derivative computes y * (1 - y)
func (Sigmoid) Derivative(y float64) float64 {
	return y * (1 - y)
}

func (Sigmoid) sealed() {}

// LeakyReLU activation function to prevent dying neurons.
type LeakyReLU struct{}

func (LeakyReLU) Name() string { return NameLeakyReLU }

// Activate computes x if x > 0, else LeakySlope*x
func (LeakyReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return LeakySlope * x
}

// Derivative returns 1 if y > 0, else LeakySlope
func (LeakyReLU) Derivative(y float64) float64 {
	if y > 0 {
		return 1
	}
	return LeakySlope
}

func (LeakyReLU) sealed() {}

// Tanh activation function.
type Tanh struct{}

func (Tanh) Name() string { return NameTanh }

// Activate computes tanh(x)
func (Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - y^2
func (Tanh) Derivative(y float64) float64 {
	return 1 - y*y
}

func (Tanh) sealed() {}

var registry = map[string]Activation{
	NameSigmoid:   Sigmoid{},
	NameTanh:      Tanh{},
	NameReLU:      ReLU{},
	NameLeakyReLU: LeakyReLU{},
}

// Lookup returns the activation registered under name.
func Lookup(name string) (Activation, error) {
	act, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActivationName, name)
	}
	return act, nil
}

// Names returns every registered name in a fixed order.
func Names() []string {
	return []string{NameSigmoid, NameTanh, NameReLU, NameLeakyReLU}
}

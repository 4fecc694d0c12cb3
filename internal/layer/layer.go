// Package layer provides the dense layer used by the network.
package layer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/opt"
)

// ErrMissingForwardPass is returned by Backward when no Forward result is
// cached, either because Forward was never called or because a previous
// Backward already consumed it.
var ErrMissingForwardPass = errors.New("backward called without a matching forward pass")

// Dense is a fully connected layer computing f(W·x + b).
//
// Gradients accumulate across Backward calls and are cleared only by
// UpdateWeights, so several Forward/Backward pairs between updates sum their
// contributions.
type Dense struct {
	id      int
	inSize  int
	outSize int
	act     activations.Activation

	// weights is outSize x inSize, biases is outSize x 1
	weights *matrix.Matrix
	biases  *matrix.Matrix

	weightGrads *matrix.Matrix
	biasGrads   *matrix.Matrix

	// single-slot cache written by Forward and consumed by Backward; nil when empty
	lastInput  *matrix.Matrix
	lastOutput *matrix.Matrix
}

// NewDense creates a dense layer with Xavier/Glorot uniform initialization:
// weights and biases are drawn from [-s, s] with s = sqrt(2 / (in + out)).
// id scopes the optimizer state keys. A nil rng uses the global source.
func NewDense(id, in, out int, act activations.Activation, rng *rand.Rand) (*Dense, error) {
	if act == nil {
		return nil, fmt.Errorf("%w: nil activation", activations.ErrInvalidActivationName)
	}
	weights, err := matrix.New(out, in)
	if err != nil {
		return nil, fmt.Errorf("layer %d: %w", id, err)
	}
	biases, err := matrix.New(out, 1)
	if err != nil {
		return nil, fmt.Errorf("layer %d: %w", id, err)
	}

	scale := math.Sqrt(2.0 / (float64(in) + float64(out)))
	weights.Randomize(rng, scale)
	biases.Randomize(rng, scale)

	return &Dense{
		id:          id,
		inSize:      in,
		outSize:     out,
		act:         act,
		weights:     weights,
		biases:      biases,
		weightGrads: weights.Copy().Scale(0),
		biasGrads:   biases.Copy().Scale(0),
	}, nil
}

// Forward computes the layer output for an inSize x 1 input and caches the
// input and output for Backward.
func (d *Dense) Forward(input *matrix.Matrix) (*matrix.Matrix, error) {
	out, err := d.Infer(input)
	if err != nil {
		return nil, err
	}
	d.lastInput = input.Copy()
	d.lastOutput = out.Copy()
	return out, nil
}

// Infer computes the layer output without touching the Backward cache.
func (d *Dense) Infer(input *matrix.Matrix) (*matrix.Matrix, error) {
	if r, c := input.Shape(); r != d.inSize || c != 1 {
		return nil, fmt.Errorf("%w: layer %d expects %dx1 input, got %dx%d",
			matrix.ErrDimensionMismatch, d.id, d.inSize, r, c)
	}

	z, err := matrix.Product(d.weights, input)
	if err != nil {
		return nil, err
	}
	if err := z.Add(d.biases); err != nil {
		return nil, err
	}
	return z.Map(func(v float64, _, _ int) float64 {
		return d.act.Activate(v)
	}), nil
}

// Backward takes dE/d(output), an outSize x 1 matrix, accumulates the
// weight and bias gradients and returns dE/d(input) as inSize x 1.
// The cached Forward result is consumed.
func (d *Dense) Backward(outputGrad *matrix.Matrix) (*matrix.Matrix, error) {
	if d.lastInput == nil || d.lastOutput == nil {
		return nil, fmt.Errorf("layer %d: %w", d.id, ErrMissingForwardPass)
	}
	if r, c := outputGrad.Shape(); r != d.outSize || c != 1 {
		return nil, fmt.Errorf("%w: layer %d expects %dx1 gradient, got %dx%d",
			matrix.ErrDimensionMismatch, d.id, d.outSize, r, c)
	}

	// local = f'(y) ⊙ dE/dy, with f' evaluated on the cached output
	local := matrix.Map(d.lastOutput, func(y float64, _, _ int) float64 {
		return d.act.Derivative(y)
	})
	if err := local.MulElem(outputGrad); err != nil {
		return nil, err
	}

	dW, err := matrix.Product(local, matrix.Transpose(d.lastInput))
	if err != nil {
		return nil, err
	}
	inputGrad, err := matrix.Product(matrix.Transpose(d.weights), local)
	if err != nil {
		return nil, err
	}

	if err := d.weightGrads.Add(dW); err != nil {
		return nil, err
	}
	if err := d.biasGrads.Add(local); err != nil {
		return nil, err
	}

	d.lastInput = nil
	d.lastOutput = nil
	return inputGrad, nil
}

// UpdateWeights applies the accumulated gradients through u, once for the
// weights and once for the biases, then clears the accumulators.
func (d *Dense) UpdateWeights(u opt.ParameterUpdater) error {
	if err := u.Update(d.weights, d.weightGrads, d.WeightsKey()); err != nil {
		return fmt.Errorf("layer %d weights: %w", d.id, err)
	}
	if err := u.Update(d.biases, d.biasGrads, d.BiasesKey()); err != nil {
		return fmt.Errorf("layer %d biases: %w", d.id, err)
	}
	d.weightGrads.Zero()
	d.biasGrads.Zero()
	return nil
}

// SetParams replaces weights and biases with copies of w and b.
func (d *Dense) SetParams(w, b *matrix.Matrix) error {
	if r, c := w.Shape(); r != d.outSize || c != d.inSize {
		return fmt.Errorf("%w: layer %d weights must be %dx%d, got %dx%d",
			matrix.ErrDimensionMismatch, d.id, d.outSize, d.inSize, r, c)
	}
	if r, c := b.Shape(); r != d.outSize || c != 1 {
		return fmt.Errorf("%w: layer %d biases must be %dx1, got %dx%d",
			matrix.ErrDimensionMismatch, d.id, d.outSize, r, c)
	}
	d.weights = w.Copy()
	d.biases = b.Copy()
	return nil
}

// WeightsKey is the optimizer state key for the weights.
func (d *Dense) WeightsKey() string {
	return fmt.Sprintf("weights-%d", d.id)
}

// BiasesKey is the optimizer state key for the biases.
func (d *Dense) BiasesKey() string {
	return fmt.Sprintf("biases-%d", d.id)
}

// Weights returns the live weight matrix. Callers must not modify it.
func (d *Dense) Weights() *matrix.Matrix {
	return d.weights
}

// Biases returns the live bias matrix. Callers must not modify it.
func (d *Dense) Biases() *matrix.Matrix {
	return d.biases
}

// WeightGradients returns a copy of the accumulated weight gradients.
func (d *Dense) WeightGradients() *matrix.Matrix {
	return d.weightGrads.Copy()
}

// BiasGradients returns a copy of the accumulated bias gradients.
func (d *Dense) BiasGradients() *matrix.Matrix {
	return d.biasGrads.Copy()
}

// ID returns the layer's position in its network.
func (d *Dense) ID() int {
	return d.id
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation {
	return d.act
}

// SetActivation swaps the activation. Any cached Forward result is dropped
// since its derivative would no longer match.
func (d *Dense) SetActivation(act activations.Activation) {
	d.act = act
	d.lastInput = nil
	d.lastOutput = nil
}

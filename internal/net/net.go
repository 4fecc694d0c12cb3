// Package net provides the feed-forward network that chains dense layers,
// trains them one example at a time and persists them as JSON.
//
// A Network is not safe for concurrent use.
package net

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/layer"
	"github.com/FlavioCFOliveira/densenet/internal/loss"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/opt"
)

// ErrInvalidTopology is returned for a topology with fewer than two entries
// or a non-positive layer size.
var ErrInvalidTopology = errors.New("invalid topology")

// DefaultLearningRate is the learning rate of the default Adam optimizer.
const DefaultLearningRate = 0.01

// Network is an ordered chain of dense layers with one live optimizer.
type Network struct {
	layers  []*layer.Dense
	updater opt.ParameterUpdater
	loss    loss.MSE
}

type config struct {
	rng     *rand.Rand
	updater opt.ParameterUpdater
}

// Option configures New.
type Option func(*config)

// WithRand sets the random source used for weight initialization.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) { c.rng = rng }
}

// WithSeed seeds a private random source for weight initialization.
func WithSeed(seed int64) Option {
	return func(c *config) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithUpdater sets the optimizer instead of the default Adam(0.01).
func WithUpdater(u opt.ParameterUpdater) Option {
	return func(c *config) { c.updater = u }
}

// New builds a network with len(topology)-1 dense layers, all using the named
// activation. topology[0] is the input size.
func New(topology []int, activation string, opts ...Option) (*Network, error) {
	if err := validateTopology(topology); err != nil {
		return nil, err
	}
	act, err := activations.Lookup(activation)
	if err != nil {
		return nil, err
	}

	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.updater == nil {
		cfg.updater = opt.NewAdam(DefaultLearningRate)
	}

	layers := make([]*layer.Dense, len(topology)-1)
	for i := range layers {
		l, err := layer.NewDense(i, topology[i], topology[i+1], act, cfg.rng)
		if err != nil {
			return nil, err
		}
		layers[i] = l
	}

	return &Network{
		layers:  layers,
		updater: cfg.updater,
	}, nil
}

func validateTopology(topology []int) error {
	if len(topology) < 2 {
		return fmt.Errorf("%w: need at least 2 layer sizes, got %d", ErrInvalidTopology, len(topology))
	}
	for i, n := range topology {
		if n <= 0 {
			return fmt.Errorf("%w: layer size %d at index %d", ErrInvalidTopology, n, i)
		}
	}
	return nil
}

// Predict runs a forward pass on input and returns the output vector. It does
// not touch any layer's training cache.
func (n *Network) Predict(input []float64) ([]float64, error) {
	curr, err := n.inputMatrix(input)
	if err != nil {
		return nil, err
	}
	for _, l := range n.layers {
		curr, err = l.Infer(curr)
		if err != nil {
			return nil, err
		}
	}
	return curr.ToArray(), nil
}

// Train performs one forward, backward and update cycle on a single example
// and returns the mean squared error of the pre-update output.
//
// The gradient fed into the last layer is output - target, the derivative of
// 0.5*(target-output)^2. The returned MSE is computed separately and is for
// monitoring only.
func (n *Network) Train(input, target []float64) (float64, error) {
	if len(target) != n.OutputSize() {
		return 0, fmt.Errorf("%w: target has %d values, network outputs %d",
			matrix.ErrDimensionMismatch, len(target), n.OutputSize())
	}
	curr, err := n.inputMatrix(input)
	if err != nil {
		return 0, err
	}

	// Forward pass
	for _, l := range n.layers {
		curr, err = l.Forward(curr)
		if err != nil {
			return 0, err
		}
	}
	output := curr.ToArray()

	mse, err := n.loss.Forward(output, target)
	if err != nil {
		return 0, err
	}
	grad, err := n.loss.Backward(output, target)
	if err != nil {
		return 0, err
	}

	// Backward pass
	g, err := matrix.FromArray(grad)
	if err != nil {
		return 0, err
	}
	for i := len(n.layers) - 1; i >= 0; i-- {
		g, err = n.layers[i].Backward(g)
		if err != nil {
			return 0, err
		}
	}

	// Every layer is updated exactly once per step; Adam's shared step
	// counter depends on it.
	for _, l := range n.layers {
		if err := l.UpdateWeights(n.updater); err != nil {
			return 0, err
		}
	}
	return mse, nil
}

func (n *Network) inputMatrix(input []float64) (*matrix.Matrix, error) {
	if len(input) != n.InputSize() {
		return nil, fmt.Errorf("%w: input has %d values, network expects %d",
			matrix.ErrDimensionMismatch, len(input), n.InputSize())
	}
	return matrix.FromArray(input)
}

// SetOptimizer replaces the optimizer with a fresh one of the given kind
// ("sgd" or "adam"). Prior optimizer state is discarded.
func (n *Network) SetOptimizer(kind string, lr float64) error {
	u, err := opt.New(kind, lr)
	if err != nil {
		return err
	}
	n.updater = u
	return nil
}

// SetUpdater installs u as the optimizer. u must not be shared with another
// network.
func (n *Network) SetUpdater(u opt.ParameterUpdater) {
	n.updater = u
}

// Updater returns the live optimizer.
func (n *Network) Updater() opt.ParameterUpdater {
	return n.updater
}

// SetLayerActivation changes the activation of layer i.
func (n *Network) SetLayerActivation(i int, name string) error {
	if i < 0 || i >= len(n.layers) {
		return fmt.Errorf("layer index %d out of range [0, %d)", i, len(n.layers))
	}
	act, err := activations.Lookup(name)
	if err != nil {
		return err
	}
	n.layers[i].SetActivation(act)
	return nil
}

// NodeCounts returns the topology derived from the layer chain.
func (n *Network) NodeCounts() []int {
	counts := make([]int, 0, len(n.layers)+1)
	counts = append(counts, n.layers[0].InSize())
	for _, l := range n.layers {
		counts = append(counts, l.OutSize())
	}
	return counts
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []*layer.Dense {
	return n.layers
}

// Layer returns layer i.
func (n *Network) Layer(i int) *layer.Dense {
	return n.layers[i]
}

// InputSize returns the length Predict and Train expect for input.
func (n *Network) InputSize() int {
	return n.layers[0].InSize()
}

// OutputSize returns the length of Predict's result.
func (n *Network) OutputSize() int {
	return n.layers[len(n.layers)-1].OutSize()
}

// NumParams returns the total number of weights and biases.
func (n *Network) NumParams() int {
	total := 0
	for _, l := range n.layers {
		total += l.OutSize()*l.InSize() + l.OutSize()
	}
	return total
}

// Summary writes a table of the network architecture to w.
func (n *Network) Summary(w io.Writer) error {
	const rule = "_________________________________________________________________\n"
	if _, err := fmt.Fprintf(w, "Model: Dense %v\n%s", n.NodeCounts(), rule); err != nil {
		return err
	}
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (activation)", "Output Shape", "Param #")
	fmt.Fprintln(w, "=================================================================")
	for i, l := range n.layers {
		params := l.OutSize()*l.InSize() + l.OutSize()
		fmt.Fprintf(w, "%-25s %-20s %-10d\n",
			fmt.Sprintf("dense_%d (%s)", i, l.Activation().Name()),
			fmt.Sprintf("(%d)", l.OutSize()), params)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Total params: %d\n", n.NumParams())
	fmt.Fprintf(w, "Optimizer: %s (lr=%g)\n", n.updater.Name(), n.updater.LearningRate())
	_, err := fmt.Fprint(w, rule)
	return err
}

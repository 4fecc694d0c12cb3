package net

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/layer"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/opt"
)

// ErrMalformedModel is returned when a saved model is structurally invalid.
var ErrMalformedModel = errors.New("malformed model")

// Model is the persisted form of a Network. Optimizer state is not part of it.
type Model struct {
	NodeCounts []int        `json:"nodeCounts"`
	Layers     []LayerModel `json:"layers"`
}

// LayerModel holds one layer's raw cells. Weights has nodeCounts[i+1] rows of
// nodeCounts[i] values; Biases has nodeCounts[i+1] rows of one value.
type LayerModel struct {
	Weights    [][]float64 `json:"weights"`
	Biases     [][]float64 `json:"biases"`
	Activation string      `json:"activation"`
}

// Model returns a snapshot of the network's parameters.
func (n *Network) Model() Model {
	m := Model{
		NodeCounts: n.NodeCounts(),
		Layers:     make([]LayerModel, len(n.layers)),
	}
	for i, l := range n.layers {
		m.Layers[i] = LayerModel{
			Weights:    l.Weights().ToRows(),
			Biases:     l.Biases().ToRows(),
			Activation: l.Activation().Name(),
		}
	}
	return m
}

// Serialize encodes the network as JSON.
func (n *Network) Serialize() ([]byte, error) {
	data, err := json.Marshal(n.Model())
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return data, nil
}

// Deserialize replaces the network's layers with the model in data. The
// whole input is validated first; on error the network is left unchanged.
// On success the optimizer's accumulated state is reset.
func (n *Network) Deserialize(data []byte) error {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedModel, err)
	}
	layers, err := m.build()
	if err != nil {
		return err
	}
	n.layers = layers
	if n.updater == nil {
		n.updater = opt.NewAdam(DefaultLearningRate)
	}
	n.updater.Reset()
	return nil
}

// Load builds a new network from JSON with the default optimizer.
func Load(data []byte) (*Network, error) {
	n := &Network{updater: opt.NewAdam(DefaultLearningRate)}
	if err := n.Deserialize(data); err != nil {
		return nil, err
	}
	return n, nil
}

// Encode writes the network to w as indented JSON.
func (n *Network) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n.Model()); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Decode reads a network from r.
func Decode(r io.Reader) (*Network, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return Load(data)
}

// Save writes the network to a file.
func (n *Network) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := n.Encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadFile reads a network from a file written by Save.
func LoadFile(filename string) (*Network, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Validate checks the model's structure without building anything.
func (m *Model) Validate() error {
	_, err := m.build()
	return err
}

func (m *Model) build() ([]*layer.Dense, error) {
	if len(m.NodeCounts) < 2 {
		return nil, fmt.Errorf("%w: nodeCounts must have at least 2 entries, got %d", ErrMalformedModel, len(m.NodeCounts))
	}
	for i, c := range m.NodeCounts {
		if c <= 0 {
			return nil, fmt.Errorf("%w: nodeCounts[%d] = %d", ErrMalformedModel, i, c)
		}
	}
	if len(m.Layers) != len(m.NodeCounts)-1 {
		return nil, fmt.Errorf("%w: %d layers for %d nodeCounts", ErrMalformedModel, len(m.Layers), len(m.NodeCounts))
	}

	layers := make([]*layer.Dense, len(m.Layers))
	for i, lm := range m.Layers {
		in, out := m.NodeCounts[i], m.NodeCounts[i+1]

		act, err := activations.Lookup(lm.Activation)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrMalformedModel, i, err)
		}
		w, err := checkedMatrix(lm.Weights, out, in)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d weights: %w", ErrMalformedModel, i, err)
		}
		b, err := checkedMatrix(lm.Biases, out, 1)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d biases: %w", ErrMalformedModel, i, err)
		}

		l, err := layer.NewDense(i, in, out, act, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrMalformedModel, i, err)
		}
		if err := l.SetParams(w, b); err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrMalformedModel, i, err)
		}
		layers[i] = l
	}
	return layers, nil
}

func checkedMatrix(cells [][]float64, rows, cols int) (*matrix.Matrix, error) {
	if len(cells) != rows {
		return nil, fmt.Errorf("%w: got %d rows, want %d", matrix.ErrDimensionMismatch, len(cells), rows)
	}
	for r, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", matrix.ErrDimensionMismatch, r, len(row), cols)
		}
	}
	return matrix.FromRows(cells)
}

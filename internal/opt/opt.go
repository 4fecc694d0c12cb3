// Package opt provides optimization algorithms.
package opt

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// ErrUnknownOptimizer is returned by New for an unrecognized kind.
var ErrUnknownOptimizer = errors.New("unknown optimizer")

// Optimizer kinds accepted by New.
const (
	KindSGD  = "sgd"
	KindAdam = "adam"
)

// ParameterUpdater updates a parameter tensor in place from its gradients.
type ParameterUpdater interface {
	// Update applies one step to params. key identifies the tensor for
	// optimizers that keep per-tensor state and must be stable across calls.
	Update(params, gradients *matrix.Matrix, key string) error

	// LearningRate returns the current learning rate.
	LearningRate() float64

	// SetLearningRate changes the learning rate for subsequent updates.
	SetLearningRate(lr float64)

	// Reset drops any accumulated state.
	Reset()

	// Name returns the optimizer kind.
	Name() string
}

// New returns a fresh optimizer of the given kind.
func New(kind string, lr float64) (ParameterUpdater, error) {
	switch strings.ToLower(kind) {
	case KindSGD:
		return &SGD{LR: lr}, nil
	case KindAdam:
		return NewAdam(lr), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOptimizer, kind)
	}
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LR float64
}

// Update computes params = params - lr * gradients in place. key is ignored.
func (s *SGD) Update(params, gradients *matrix.Matrix, _ string) error {
	step := matrix.Map(gradients, func(g float64, _, _ int) float64 {
		return -s.LR * g
	})
	return params.Add(step)
}

func (s *SGD) LearningRate() float64      { return s.LR }
func (s *SGD) SetLearningRate(lr float64) { s.LR = lr }
func (s *SGD) Reset()                     {}
func (s *SGD) Name() string               { return KindSGD }

// AdamConfig holds configuration for the Adam optimizer.
// Zero fields take the defaults.
type AdamConfig struct {
	LR      float64 // default 0.01
	Beta1   float64 // default 0.9
	Beta2   float64 // default 0.999
	Epsilon float64 // default 1e-8
}

type moments struct {
	m, v *matrix.Matrix
}

// Adam optimizer.
//
// The step counter t is shared by every key and advances on each Update call,
// so bias correction is only calibrated when every tracked tensor is updated
// exactly once per training step.
type Adam struct {
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64
	t       int
	state   map[string]*moments
}

// NewAdam creates a new Adam optimizer with default betas and epsilon.
func NewAdam(learningRate float64) *Adam {
	return NewAdamWithConfig(AdamConfig{LR: learningRate})
}

// NewAdamWithConfig creates an Adam optimizer, filling zero fields with defaults.
func NewAdamWithConfig(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Beta1 == 0 {
		config.Beta1 = 0.9
	}
	if config.Beta2 == 0 {
		config.Beta2 = 0.999
	}
	if config.Epsilon == 0 {
		config.Epsilon = 1e-8
	}
	return &Adam{
		lr:      config.LR,
		beta1:   config.Beta1,
		beta2:   config.Beta2,
		epsilon: config.Epsilon,
		state:   make(map[string]*moments),
	}
}

// Update applies one Adam step to params in place.
func (a *Adam) Update(params, gradients *matrix.Matrix, key string) error {
	pr, pc := params.Shape()
	gr, gc := gradients.Shape()
	if pr != gr || pc != gc {
		return fmt.Errorf("%w: params %dx%d, gradients %dx%d", matrix.ErrDimensionMismatch, pr, pc, gr, gc)
	}

	st, ok := a.state[key]
	if !ok {
		m, err := matrix.New(pr, pc)
		if err != nil {
			return err
		}
		st = &moments{m: m, v: m.Copy()}
		a.state[key] = st
	} else if r, c := st.m.Shape(); r != pr || c != pc {
		return fmt.Errorf("%w: key %q tracks %dx%d, got %dx%d", matrix.ErrDimensionMismatch, key, r, c, pr, pc)
	}

	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	st.m.Map(func(m float64, i, j int) float64 {
		return a.beta1*m + (1-a.beta1)*gradients.At(i, j)
	})
	st.v.Map(func(v float64, i, j int) float64 {
		g := gradients.At(i, j)
		return a.beta2*v + (1-a.beta2)*g*g
	})
	params.Map(func(p float64, i, j int) float64 {
		mHat := st.m.At(i, j) / bc1
		vHat := st.v.At(i, j) / bc2
		return p - a.lr*mHat/(math.Sqrt(vHat)+a.epsilon)
	})
	return nil
}

func (a *Adam) LearningRate() float64      { return a.lr }
func (a *Adam) SetLearningRate(lr float64) { a.lr = lr }
func (a *Adam) Name() string               { return KindAdam }

// Reset discards all moment estimates and the step counter.
func (a *Adam) Reset() {
	a.t = 0
	a.state = make(map[string]*moments)
}

// Step returns the global step counter.
func (a *Adam) Step() int {
	return a.t
}

// Tracked reports whether moments exist for key.
func (a *Adam) Tracked(key string) bool {
	_, ok := a.state[key]
	return ok
}

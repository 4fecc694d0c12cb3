// Package densenet is the public entry point for building, training and
// persisting dense feed-forward networks.
package densenet

import (
	"math/rand"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/layer"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/net"
	"github.com/FlavioCFOliveira/densenet/internal/opt"
)

// Re-export common types and functions for easier access
type (
	Network          = net.Network
	Option           = net.Option
	Model            = net.Model
	LayerModel       = net.LayerModel
	Dataset          = net.Dataset
	Activation       = activations.Activation
	ParameterUpdater = opt.ParameterUpdater
	AdamConfig       = opt.AdamConfig
	Scheduler        = opt.Scheduler
	Callback         = net.Callback
)

// Errors
var (
	ErrDimensionMismatch     = matrix.ErrDimensionMismatch
	ErrInvalidActivationName = activations.ErrInvalidActivationName
	ErrMissingForwardPass    = layer.ErrMissingForwardPass
	ErrInvalidTopology       = net.ErrInvalidTopology
	ErrMalformedModel        = net.ErrMalformedModel
	ErrUnknownOptimizer      = opt.ErrUnknownOptimizer
	ErrInvalidDataset        = net.ErrInvalidDataset
)

// Activation tags
const (
	Sigmoid   = activations.NameSigmoid
	Tanh      = activations.NameTanh
	ReLU      = activations.NameReLU
	LeakyReLU = activations.NameLeakyReLU
)

// Optimizer kinds
const (
	SGD  = opt.KindSGD
	Adam = opt.KindAdam
)

// New builds a network from a topology such as []int{2, 4, 1}.
func New(topology []int, activation string, opts ...Option) (*Network, error) {
	return net.New(topology, activation, opts...)
}

func WithSeed(seed int64) Option {
	return net.WithSeed(seed)
}

func WithRand(rng *rand.Rand) Option {
	return net.WithRand(rng)
}

func WithUpdater(u ParameterUpdater) Option {
	return net.WithUpdater(u)
}

// Model Persistence
func Load(data []byte) (*Network, error) {
	return net.Load(data)
}

func LoadFile(filename string) (*Network, error) {
	return net.LoadFile(filename)
}

// Datasets
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	return net.LoadCSV(filename, labelCols, hasHeader)
}

// Optimizers
func NewOptimizer(kind string, lr float64) (ParameterUpdater, error) {
	return opt.New(kind, lr)
}

func NewAdam(config AdamConfig) *opt.Adam {
	return opt.NewAdamWithConfig(config)
}

func NewSGD(lr float64) *opt.SGD {
	return &opt.SGD{LR: lr}
}

func StepLR(u ParameterUpdater, stepSize int, gamma float64) *opt.StepLR {
	return opt.NewStepLR(u, stepSize, gamma)
}

func ExponentialLR(u ParameterUpdater, gamma float64) *opt.ExponentialLR {
	return opt.NewExponentialLR(u, gamma)
}

func ReduceLROnPlateau(u ParameterUpdater, factor float64, patience int, threshold, minLR float64) *opt.ReduceLROnPlateau {
	return opt.NewReduceLROnPlateau(u, factor, patience, threshold, minLR)
}

// Callbacks
func Logger(interval int) *net.Logger {
	return net.NewLogger(interval)
}

func ModelCheckpoint(filename string) *net.ModelCheckpoint {
	return net.NewModelCheckpoint(filename)
}

func EarlyStopping(patience int, threshold float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, threshold)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

func SchedulerCallback(scheduler Scheduler) *net.SchedulerCallback {
	return net.NewSchedulerCallback(scheduler)
}

// Activations returns the registered activation tags.
func Activations() []string {
	return activations.Names()
}

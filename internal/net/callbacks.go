package net

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/FlavioCFOliveira/densenet/internal/opt"
)

// Callback defines the interface for training callbacks used by Fit.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
}

// Stopper is implemented by callbacks that can end training early.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(n *Network)                        {}
func (BaseCallback) OnTrainEnd(n *Network)                          {}
func (BaseCallback) OnEpochBegin(epoch int, n *Network)             {}
func (BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}

// SchedulerCallback is a callback that wraps a learning rate scheduler.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(epoch int, loss float64, n *Network) {
	c.scheduler.Step()
	c.scheduler.StepWithLoss(loss)
}

// EarlyStopping stops training when the epoch loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64
	Log       logrus.FieldLogger

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		Log:       logrus.StandardLogger(),
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience && !c.Stopped {
		c.Stopped = true
		c.Log.WithFields(logrus.Fields{
			"epoch":    epoch,
			"loss":     loss,
			"patience": c.Patience,
		}).Info("early stopping")
	}
}

func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// ModelCheckpoint saves the model whenever the epoch loss is the best so far.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
	Log      logrus.FieldLogger

	bestLoss float64
}

func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		Log:      logrus.StandardLogger(),
		bestLoss: math.MaxFloat64,
	}
}

func (c *ModelCheckpoint) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss >= c.bestLoss {
		return
	}
	c.bestLoss = loss
	entry := c.Log.WithFields(logrus.Fields{
		"epoch": epoch,
		"loss":  loss,
		"file":  c.Filename,
	})
	if err := n.Save(c.Filename); err != nil {
		entry.WithError(err).Error("checkpoint failed")
		return
	}
	entry.Debug("checkpoint saved")
}

// Logger logs training progress every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
	Log      logrus.FieldLogger
}

func NewLogger(interval int) *Logger {
	return &Logger{Interval: interval, Log: logrus.StandardLogger()}
}

func (c *Logger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		c.Log.WithFields(logrus.Fields{
			"epoch": epoch,
			"loss":  loss,
			"lr":    n.Updater().LearningRate(),
		}).Info("epoch complete")
	}
}

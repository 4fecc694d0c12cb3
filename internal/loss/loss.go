// Package loss provides the mean squared error used to train and monitor a
// network.
package loss

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrLengthMismatch is returned when prediction and target lengths differ.
var ErrLengthMismatch = errors.New("prediction and target lengths differ")

// MSE (Mean Squared Error) loss.
//
// Forward reports the plain mean of squared errors. Backward returns the
// gradient of 0.5*(target-output)^2 per output, which is output - target with
// no factor of 2 and no 1/n. The two are intentionally not a matched pair.
type MSE struct{}

// Forward computes (1/n) * sum((y_true - y_pred)^2)
func (MSE) Forward(yPred, yTrue []float64) (float64, error) {
	if err := checkLengths(yPred, yTrue); err != nil {
		return 0, err
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d / float64(len(yPred)), nil
}

// Backward computes dE/dy_pred = -(y_true - y_pred)
func (MSE) Backward(yPred, yTrue []float64) ([]float64, error) {
	if err := checkLengths(yPred, yTrue); err != nil {
		return nil, err
	}
	grad := make([]float64, len(yPred))
	floats.SubTo(grad, yPred, yTrue)
	return grad, nil
}

func checkLengths(yPred, yTrue []float64) error {
	if len(yPred) != len(yTrue) || len(yPred) == 0 {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(yPred), len(yTrue))
	}
	return nil
}

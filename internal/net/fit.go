package net

import "fmt"

// Fit trains on every example of ds in order, once per epoch, calling Train
// for each. It returns the mean loss of each completed epoch. Callbacks run
// in the order given; a Stopper callback returning true ends training after
// the current epoch.
func (n *Network) Fit(ds *Dataset, epochs int, callbacks ...Callback) ([]float64, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no examples", ErrInvalidDataset)
	}

	for _, cb := range callbacks {
		cb.OnTrainBegin(n)
	}
	defer func() {
		for _, cb := range callbacks {
			cb.OnTrainEnd(n)
		}
	}()

	history := make([]float64, 0, epochs)
	for epoch := 0; epoch < epochs; epoch++ {
		for _, cb := range callbacks {
			cb.OnEpochBegin(epoch, n)
		}

		total := 0.0
		for i := range ds.Inputs {
			l, err := n.Train(ds.Inputs[i], ds.Targets[i])
			if err != nil {
				return history, fmt.Errorf("epoch %d example %d: %w", epoch, i, err)
			}
			total += l
		}
		epochLoss := total / float64(ds.Len())
		history = append(history, epochLoss)

		stop := false
		for _, cb := range callbacks {
			cb.OnEpochEnd(epoch, epochLoss, n)
			if s, ok := cb.(Stopper); ok && s.ShouldStop() {
				stop = true
			}
		}
		if stop {
			break
		}
	}
	return history, nil
}

// Evaluate returns the mean MSE of Predict over ds without training.
func (n *Network) Evaluate(ds *Dataset) (float64, error) {
	if ds.Len() == 0 {
		return 0, fmt.Errorf("%w: no examples", ErrInvalidDataset)
	}
	total := 0.0
	for i := range ds.Inputs {
		out, err := n.Predict(ds.Inputs[i])
		if err != nil {
			return 0, err
		}
		l, err := n.loss.Forward(out, ds.Targets[i])
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total / float64(ds.Len()), nil
}

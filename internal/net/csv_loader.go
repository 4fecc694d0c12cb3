package net

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidDataset is returned by Dataset.Validate.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is a set of training examples. Inputs[i] pairs with Targets[i].
type Dataset struct {
	Inputs     [][]float64 `json:"inputs"`
	Targets    [][]float64 `json:"targets"`
	InputSize  int         `json:"inputSize"`
	OutputSize int         `json:"outputSize"`
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Inputs)
}

// Validate checks that every example has the declared sizes.
func (d *Dataset) Validate() error {
	if len(d.Inputs) != len(d.Targets) {
		return fmt.Errorf("%w: %d inputs, %d targets", ErrInvalidDataset, len(d.Inputs), len(d.Targets))
	}
	if d.InputSize <= 0 || d.OutputSize <= 0 {
		return fmt.Errorf("%w: sizes %d/%d", ErrInvalidDataset, d.InputSize, d.OutputSize)
	}
	for i := range d.Inputs {
		if len(d.Inputs[i]) != d.InputSize {
			return fmt.Errorf("%w: input %d has %d values, want %d", ErrInvalidDataset, i, len(d.Inputs[i]), d.InputSize)
		}
		if len(d.Targets[i]) != d.OutputSize {
			return fmt.Errorf("%w: target %d has %d values, want %d", ErrInvalidDataset, i, len(d.Targets[i]), d.OutputSize)
		}
	}
	return nil
}

// LoadCSV loads data from a CSV file.
// labelCols specifies the indices of columns to be used as targets, in order.
// All other columns are used as inputs.
// hasHeader skips the first line if true.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}

	numCols := len(records[0])
	isLabelCol := make(map[int]bool)
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("label column %d out of range [0, %d)", col, numCols)
		}
		isLabelCol[col] = true
	}
	if len(isLabelCol) == 0 || len(isLabelCol) == numCols {
		return nil, fmt.Errorf("need at least one input and one label column, got %d labels of %d columns", len(isLabelCol), numCols)
	}

	numSamples := len(records) - startRow
	ds := &Dataset{
		Inputs:     make([][]float64, numSamples),
		Targets:    make([][]float64, numSamples),
		InputSize:  numCols - len(isLabelCol),
		OutputSize: len(labelCols),
	}

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		inputRow := make([]float64, 0, ds.InputSize)
		labelValues := make(map[int]float64, len(labelCols))

		for j, valStr := range record {
			val, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			if isLabelCol[j] {
				labelValues[j] = val
			} else {
				inputRow = append(inputRow, val)
			}
		}

		// targets keep the order given by labelCols
		targetRow := make([]float64, 0, len(labelCols))
		for _, col := range labelCols {
			targetRow = append(targetRow, labelValues[col])
		}

		ds.Inputs[i-startRow] = inputRow
		ds.Targets[i-startRow] = targetRow
	}

	return ds, nil
}

// Normalize performs min-max normalization on each input feature.
// Constant features become 0.
func (d *Dataset) Normalize() {
	if len(d.Inputs) == 0 {
		return
	}

	column := make([]float64, len(d.Inputs))
	for f := 0; f < d.InputSize; f++ {
		for i, in := range d.Inputs {
			column[i] = in[f]
		}
		lo, hi := floats.Min(column), floats.Max(column)
		diff := hi - lo
		for _, in := range d.Inputs {
			if diff != 0 {
				in[f] = (in[f] - lo) / diff
			} else {
				in[f] = 0
			}
		}
	}
}

// Split splits the dataset into two based on the given ratio (0.0 to 1.0).
// The halves share the underlying example slices.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	splitIdx := int(float64(len(d.Inputs)) * ratio)
	if splitIdx < 0 {
		splitIdx = 0
	}
	if splitIdx > len(d.Inputs) {
		splitIdx = len(d.Inputs)
	}

	train := &Dataset{
		Inputs:     d.Inputs[:splitIdx],
		Targets:    d.Targets[:splitIdx],
		InputSize:  d.InputSize,
		OutputSize: d.OutputSize,
	}
	test := &Dataset{
		Inputs:     d.Inputs[splitIdx:],
		Targets:    d.Targets[splitIdx:],
		InputSize:  d.InputSize,
		OutputSize: d.OutputSize,
	}
	return train, test
}

// Shuffle permutes the examples in place, keeping input/target pairs together.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	swap := func(i, j int) {
		d.Inputs[i], d.Inputs[j] = d.Inputs[j], d.Inputs[i]
		d.Targets[i], d.Targets[j] = d.Targets[j], d.Targets[i]
	}
	if rng == nil {
		rand.Shuffle(len(d.Inputs), swap)
		return
	}
	rng.Shuffle(len(d.Inputs), swap)
}

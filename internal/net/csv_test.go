package net

import (
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "data.csv")
	file, err := os.Create(filename)
	require.NoError(t, err)
	w := csv.NewWriter(file)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, file.Close())
	return filename
}

func TestCSVLoader(t *testing.T) {
	filename := writeCSV(t, [][]string{
		{"f1", "f2", "l1", "f3", "l2"},
		{"1.0", "2.0", "0.0", "3.0", "1.0"},
		{"4.0", "5.0", "1.0", "6.0", "0.0"},
	})

	dataset, err := LoadCSV(filename, []int{2, 4}, true)
	require.NoError(t, err)
	require.NoError(t, dataset.Validate())

	assert.Equal(t, 2, dataset.Len())
	assert.Equal(t, 3, dataset.InputSize)
	assert.Equal(t, 2, dataset.OutputSize)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, dataset.Inputs)
	assert.Equal(t, [][]float64{{0, 1}, {1, 0}}, dataset.Targets)
}

func TestCSVLoaderLabelOrder(t *testing.T) {
	filename := writeCSV(t, [][]string{
		{"1", "2", "3"},
	})

	dataset, err := LoadCSV(filename, []int{2, 0}, false)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2}}, dataset.Inputs)
	assert.Equal(t, [][]float64{{3, 1}}, dataset.Targets)
}

func TestCSVLoaderErrors(t *testing.T) {
	tests := []struct {
		name      string
		rows      [][]string
		labelCols []int
		hasHeader bool
	}{
		{name: "header only", rows: [][]string{{"a", "b"}}, labelCols: []int{1}, hasHeader: true},
		{name: "label out of range", rows: [][]string{{"1", "2"}}, labelCols: []int{2}},
		{name: "negative label", rows: [][]string{{"1", "2"}}, labelCols: []int{-1}},
		{name: "no labels", rows: [][]string{{"1", "2"}}},
		{name: "all labels", rows: [][]string{{"1", "2"}}, labelCols: []int{0, 1}},
		{name: "not a number", rows: [][]string{{"1", "x"}}, labelCols: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := writeCSV(t, tt.rows)
			_, err := LoadCSV(filename, tt.labelCols, tt.hasHeader)
			assert.Error(t, err)
		})
	}

	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), []int{0}, false)
	assert.Error(t, err)
}

func TestDatasetValidate(t *testing.T) {
	ds := &Dataset{
		Inputs:     [][]float64{{0, 0}, {0, 1}},
		Targets:    [][]float64{{0}, {1}},
		InputSize:  2,
		OutputSize: 1,
	}
	require.NoError(t, ds.Validate())

	ds.Inputs[1] = []float64{1}
	assert.ErrorIs(t, ds.Validate(), ErrInvalidDataset)

	ds.Inputs[1] = []float64{0, 1}
	ds.Targets = ds.Targets[:1]
	assert.ErrorIs(t, ds.Validate(), ErrInvalidDataset)

	assert.ErrorIs(t, (&Dataset{}).Validate(), ErrInvalidDataset)
}

func TestDatasetNormalize(t *testing.T) {
	ds := &Dataset{
		Inputs:     [][]float64{{0, 5, 10}, {5, 5, 20}, {10, 5, 30}},
		Targets:    [][]float64{{1}, {2}, {3}},
		InputSize:  3,
		OutputSize: 1,
	}
	ds.Normalize()

	assert.Equal(t, [][]float64{{0, 0, 0}, {0.5, 0, 0.5}, {1, 0, 1}}, ds.Inputs)
	// targets are untouched
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, ds.Targets)
}

func TestDatasetSplit(t *testing.T) {
	ds := &Dataset{InputSize: 1, OutputSize: 1}
	for i := 0; i < 10; i++ {
		ds.Inputs = append(ds.Inputs, []float64{float64(i)})
		ds.Targets = append(ds.Targets, []float64{float64(i * 2)})
	}

	train, test := ds.Split(0.8)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, test.Len())
	assert.Equal(t, []float64{8}, test.Inputs[0])
	assert.Equal(t, []float64{16}, test.Targets[0])
	assert.Equal(t, 1, test.InputSize)

	all, none := ds.Split(1.5)
	assert.Equal(t, 10, all.Len())
	assert.Equal(t, 0, none.Len())

	none, all = ds.Split(-1)
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, 10, all.Len())
}

func TestDatasetShuffle(t *testing.T) {
	ds := &Dataset{InputSize: 1, OutputSize: 1}
	for i := 0; i < 20; i++ {
		ds.Inputs = append(ds.Inputs, []float64{float64(i)})
		ds.Targets = append(ds.Targets, []float64{float64(-i)})
	}

	ds.Shuffle(rand.New(rand.NewSource(3)))

	seen := make(map[float64]bool)
	moved := false
	for i := range ds.Inputs {
		assert.Equal(t, -ds.Inputs[i][0], ds.Targets[i][0])
		seen[ds.Inputs[i][0]] = true
		if ds.Inputs[i][0] != float64(i) {
			moved = true
		}
	}
	assert.Len(t, seen, 20)
	assert.True(t, moved)
}

func TestCSVLogger(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "log.csv")
	n := newNet(t, []int{2, 1}, "sigmoid", 1)

	logger := NewCSVLogger(filename, false)
	logger.OnTrainBegin(n)
	logger.OnEpochEnd(0, 0.5, n)
	logger.OnEpochEnd(1, 0.4, n)
	logger.OnTrainEnd(n)

	records := readCSV(t, filename)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"epoch", "loss", "learning_rate", "time_seconds"}, records[0])
	assert.Equal(t, "0", records[1][0])
	assert.Equal(t, "0.500000", records[1][1])
	assert.Equal(t, "0.01", records[1][2])
	assert.Equal(t, "1", records[2][0])
	assert.Equal(t, "0.400000", records[2][1])

	// appending keeps the existing rows and writes no second header
	logger = NewCSVLogger(filename, true)
	logger.OnTrainBegin(n)
	logger.OnEpochEnd(2, 0.3, n)
	logger.OnTrainEnd(n)

	records = readCSV(t, filename)
	require.Len(t, records, 4)
	assert.Equal(t, "2", records[3][0])
	assert.Equal(t, "0.300000", records[3][1])
}

func readCSV(t *testing.T, filename string) [][]string {
	t.Helper()
	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

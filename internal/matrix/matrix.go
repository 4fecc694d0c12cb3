// Package matrix provides a dense 2-D matrix with the linear-algebra
// primitives used by the layer and optimizer packages.
//
// Storage is a gonum mat.Dense. Every operation checks shapes before calling
// into gonum, so a mismatch is reported as ErrDimensionMismatch instead of a
// gonum panic.
package matrix

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when operand shapes are incompatible.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// MapFunc transforms a single cell. i and j are the row and column of v.
type MapFunc func(v float64, i, j int) float64

// Matrix is a dense rows x cols matrix of float64.
type Matrix struct {
	d *mat.Dense
}

// New creates a zero-filled rows x cols matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: cannot create %dx%d matrix", ErrDimensionMismatch, rows, cols)
	}
	return &Matrix{d: mat.NewDense(rows, cols, nil)}, nil
}

// FromArray wraps a flat vector as a len(values) x 1 column matrix.
// The values are copied.
func FromArray(values []float64) (*Matrix, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	data := make([]float64, len(values))
	copy(data, values)
	return &Matrix{d: mat.NewDense(len(values), 1, data)}, nil
}

// FromRows builds a matrix from row slices. Every row must have the same
// non-zero length.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrDimensionMismatch)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Matrix{d: mat.NewDense(len(rows), cols, data)}, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	r, _ := m.d.Dims()
	return r
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	_, c := m.d.Dims()
	return c
}

// Shape returns rows and cols.
func (m *Matrix) Shape() (int, int) {
	return m.d.Dims()
}

// At returns the cell at (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v float64) {
	m.d.Set(i, j, v)
}

// ToArray flattens the matrix in row-major order. For a column matrix this is
// the inverse of FromArray.
func (m *Matrix) ToArray() []float64 {
	r, c := m.d.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.d.RawRowView(i)...)
	}
	return out
}

// ToRows returns a copy of the cells as row slices.
func (m *Matrix) ToRows() [][]float64 {
	r, _ := m.d.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := m.d.RawRowView(i)
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// Copy returns a deep clone with independent storage.
func (m *Matrix) Copy() *Matrix {
	var d mat.Dense
	d.CloneFrom(m.d)
	return &Matrix{d: &d}
}

// Zero sets every cell to 0.
func (m *Matrix) Zero() {
	m.d.Zero()
}

// Randomize fills the matrix with values drawn uniformly from [-scale, scale].
// A nil rng uses the global source.
func (m *Matrix) Randomize(rng *rand.Rand, scale float64) {
	draw := rand.Float64
	if rng != nil {
		draw = rng.Float64
	}
	m.d.Apply(func(_, _ int, _ float64) float64 {
		return draw()*2*scale - scale
	}, m.d)
}

// Map applies fn to every cell in place and returns m.
func (m *Matrix) Map(fn MapFunc) *Matrix {
	m.d.Apply(func(i, j int, v float64) float64 {
		return fn(v, i, j)
	}, m.d)
	return m
}

// Map returns a new matrix with fn applied to every cell of m.
func Map(m *Matrix, fn MapFunc) *Matrix {
	return m.Copy().Map(fn)
}

// Product returns the matrix product a·b. It requires a.Cols() == b.Rows().
func Product(a, b *Matrix) (*Matrix, error) {
	ar, ac := a.d.Dims()
	br, bc := b.d.Dims()
	if ac != br {
		return nil, fmt.Errorf("%w: cannot multiply %dx%d by %dx%d", ErrDimensionMismatch, ar, ac, br, bc)
	}
	d := mat.NewDense(ar, bc, nil)
	d.Mul(a.d, b.d)
	return &Matrix{d: d}, nil
}

// Hadamard returns the elementwise product of a and b.
func Hadamard(a, b *Matrix) (*Matrix, error) {
	out := a.Copy()
	if err := out.MulElem(b); err != nil {
		return nil, err
	}
	return out, nil
}

// MulElem multiplies m by b elementwise, in place.
func (m *Matrix) MulElem(b *Matrix) error {
	if err := sameShape("multiply", m, b); err != nil {
		return err
	}
	m.d.MulElem(m.d, b.d)
	return nil
}

// Add adds b to m elementwise, in place.
func (m *Matrix) Add(b *Matrix) error {
	if err := sameShape("add", m, b); err != nil {
		return err
	}
	m.d.Add(m.d, b.d)
	return nil
}

// Scale multiplies every cell by s, in place.
func (m *Matrix) Scale(s float64) *Matrix {
	m.d.Scale(s, m.d)
	return m
}

// Sum returns a + b.
func Sum(a, b *Matrix) (*Matrix, error) {
	out := a.Copy()
	if err := out.Add(b); err != nil {
		return nil, err
	}
	return out, nil
}

// Subtract returns a - b.
func Subtract(a, b *Matrix) (*Matrix, error) {
	if err := sameShape("subtract", a, b); err != nil {
		return nil, err
	}
	r, c := a.d.Dims()
	d := mat.NewDense(r, c, nil)
	d.Sub(a.d, b.d)
	return &Matrix{d: d}, nil
}

// Transpose returns a new cols x rows matrix.
func Transpose(m *Matrix) *Matrix {
	var d mat.Dense
	d.CloneFrom(m.d.T())
	return &Matrix{d: &d}
}

// EqualApprox reports whether a and b have the same shape and every pair of
// cells is within tol.
func EqualApprox(a, b *Matrix, tol float64) bool {
	return mat.EqualApprox(a.d, b.d, tol)
}

// String formats the matrix for debugging.
func (m *Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.d, mat.Squeeze()))
}

func sameShape(op string, a, b *Matrix) error {
	ar, ac := a.d.Dims()
	br, bc := b.d.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("%w: cannot %s %dx%d and %dx%d", ErrDimensionMismatch, op, ar, ac, br, bc)
	}
	return nil
}

package matrix

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRows(t *testing.T, rows [][]float64) *Matrix {
	t.Helper()
	m, err := FromRows(rows)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	m, err := New(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, m.ToArray())

	for _, dims := range [][2]int{{0, 1}, {1, 0}, {-1, 2}} {
		_, err := New(dims[0], dims[1])
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	}
}

func TestFromArrayToArray(t *testing.T) {
	in := []float64{1, 2, 3}
	m, err := FromArray(in)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 1, m.Cols())
	assert.Equal(t, in, m.ToArray())

	// storage is independent of the caller's slice
	in[0] = 99
	assert.Equal(t, 1.0, m.At(0, 0))

	_, err = FromArray(nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFromRowsRagged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = FromRows(nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestProduct(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	b := mustRows(t, [][]float64{{7, 8}, {9, 10}, {11, 12}})

	p, err := Product(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{58, 64}, {139, 154}}, p.ToRows())
}

func TestProductShapes(t *testing.T) {
	tests := []struct {
		name         string
		ar, ac       int
		br, bc       int
		wantErr      bool
		wantR, wantC int
	}{
		{"square", 3, 3, 3, 3, false, 3, 3},
		{"column result", 4, 2, 2, 1, false, 4, 1},
		{"row times column", 1, 5, 5, 1, false, 1, 1},
		{"inner mismatch", 2, 3, 2, 3, true, 0, 0},
		{"column times column", 3, 1, 3, 1, true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.ar, tt.ac)
			require.NoError(t, err)
			b, err := New(tt.br, tt.bc)
			require.NoError(t, err)

			p, err := Product(a, b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDimensionMismatch)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantR, p.Rows())
			assert.Equal(t, tt.wantC, p.Cols())
		})
	}
}

func TestElementwise(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2}, {3, 4}})
	b := mustRows(t, [][]float64{{5, 6}, {7, 8}})

	h, err := Hadamard(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{5, 12}, {21, 32}}, h.ToRows())

	s, err := Sum(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{6, 8}, {10, 12}}, s.ToRows())

	d, err := Subtract(b, a)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{4, 4}, {4, 4}}, d.ToRows())

	// pure forms leave operands untouched
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, a.ToRows())

	require.NoError(t, a.Add(b))
	assert.Equal(t, [][]float64{{6, 8}, {10, 12}}, a.ToRows())

	require.NoError(t, a.MulElem(b))
	assert.Equal(t, [][]float64{{30, 48}, {70, 96}}, a.ToRows())

	a.Scale(0.5)
	assert.Equal(t, [][]float64{{15, 24}, {35, 48}}, a.ToRows())
}

func TestElementwiseMismatch(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2}, {3, 4}})
	b := mustRows(t, [][]float64{{1, 2, 3}})

	_, err := Hadamard(a, b)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Sum(a, b)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Subtract(a, b)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.ErrorIs(t, a.Add(b), ErrDimensionMismatch)
	assert.ErrorIs(t, a.MulElem(b), ErrDimensionMismatch)

	// failed in-place ops do not touch the receiver
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, a.ToRows())
}

func TestTranspose(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	tr := Transpose(a)
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, tr.ToRows())

	tr.Set(0, 0, 100)
	assert.Equal(t, 1.0, a.At(0, 0), "transpose must not alias")
}

func TestTransposeInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		r, c := rng.Intn(6)+1, rng.Intn(6)+1
		m, err := New(r, c)
		require.NoError(t, err)
		m.Randomize(rng, 10)

		back := Transpose(Transpose(m))
		assert.True(t, EqualApprox(m, back, 0), "%dx%d", r, c)
	}
}

func TestMap(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2}, {3, 4}})

	pure := Map(a, func(v float64, i, j int) float64 { return v*10 + float64(i*100+j) })
	assert.Equal(t, [][]float64{{10, 21}, {130, 141}}, pure.ToRows())
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, a.ToRows())

	ret := a.Map(func(v float64, _, _ int) float64 { return -v })
	assert.Same(t, a, ret)
	assert.Equal(t, [][]float64{{-1, -2}, {-3, -4}}, a.ToRows())
}

func TestCopyIndependent(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2}})
	b := a.Copy()
	b.Set(0, 0, 9)
	assert.Equal(t, 1.0, a.At(0, 0))

	rows := a.ToRows()
	rows[0][1] = 42
	assert.Equal(t, 2.0, a.At(0, 1))
}

func TestRandomizeRange(t *testing.T) {
	m, err := New(10, 10)
	require.NoError(t, err)
	m.Randomize(rand.New(rand.NewSource(1)), 0.3)
	for _, v := range m.ToArray() {
		assert.GreaterOrEqual(t, v, -0.3)
		assert.LessOrEqual(t, v, 0.3)
	}

	m.Zero()
	for _, v := range m.ToArray() {
		assert.Zero(t, v)
	}
}

func BenchmarkProduct(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	w, _ := New(32, 32)
	w.Randomize(rng, 1)
	x, _ := New(32, 1)
	x.Randomize(rng, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Product(w, x)
	}
}

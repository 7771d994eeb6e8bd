package tensor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func decode(t *testing.T, s string) any {
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestFromNested(t *testing.T) {
	tests := []struct {
		desc   string
		input  string
		shape  []int
		values []float64
		err    error
	}{
		{desc: "matrix", input: `[[1,2,3],[4,5,6]]`, shape: []int{2, 3}, values: []float64{1, 2, 3, 4, 5, 6}},
		{desc: "vector", input: `[1.5,2.5]`, shape: []int{2}, values: []float64{1.5, 2.5}},
		{desc: "3d", input: `[[[1],[2]],[[3],[4]]]`, shape: []int{2, 2, 1}, values: []float64{1, 2, 3, 4}},
		{desc: "scalar", input: `7`, shape: []int{}, values: []float64{7}},
		{desc: "empty", input: `[]`, shape: []int{0}, values: []float64{}},
		{desc: "ragged", input: `[[1,2],[3]]`, err: ErrRagged},
		{desc: "mixed depth", input: `[1,[2]]`, err: ErrRagged},
		{desc: "strings", input: `[["a","b"]]`, err: ErrNotNumeric},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			d, err := FromNested(decode(t, test.input))
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.shape, d.Shape())
			assert.Equal(t, test.values, d.Values())
		})
	}
}

func TestToNested(t *testing.T) {
	d, err := New([]int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := json.Marshal(d.ToNested())
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3,4]]`, string(b))

	back, err := FromNested(decode(t, string(b)))
	require.NoError(t, err)
	assert.Equal(t, d.Shape(), back.Shape())
	assert.Equal(t, d.Values(), back.Values())
}

func TestNewShapeMismatch(t *testing.T) {
	_, err := New([]int{2, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCheckShape(t *testing.T) {
	tests := []struct {
		desc  string
		shape []int
		n     int
		valid bool
	}{
		{desc: "matrix", shape: []int{2, 3}, n: 6, valid: true},
		{desc: "scalar", shape: []int{}, n: 1, valid: true},
		{desc: "empty", shape: []int{0}, n: 0, valid: true},
		{desc: "empty row", shape: []int{1, 0}, n: 0, valid: true},
		{desc: "mismatch", shape: []int{2, 2}, n: 3},
		{desc: "negative", shape: []int{-1, 2}, n: 2},
		{desc: "overflow to zero", shape: []int{1 << 32, 1 << 32}, n: 0},
		{desc: "overflow", shape: []int{1 << 62, 4}, n: 0},
		{desc: "large empty dimension", shape: []int{1 << 24, 0}, n: 0},
		{desc: "large dimension after zero", shape: []int{0, 1 << 62}, n: 0},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			err := CheckShape(test.shape, test.n)
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrShapeMismatch)
			}
		})
	}
}

func TestReshape(t *testing.T) {
	d, _ := New([]int{6}, []float64{1, 2, 3, 4, 5, 6})
	r, err := d.Reshape(-1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, r.Shape())
	assert.Equal(t, []float64{4, 5, 6}, r.Row(1))

	_, err = d.Reshape(-1, 4)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMatrix(t *testing.T) {
	d, _ := New([]int{2, 2}, []float64{1, 2, 3, 4})
	m, err := d.Matrix()
	require.NoError(t, err)

	var out mat.Dense
	out.Mul(m, mat.NewDense(2, 1, []float64{1, 1}))
	r := FromMatrix(&out)
	assert.Equal(t, []int{2, 1}, r.Shape())
	assert.Equal(t, []float64{3, 7}, r.Values())

	v, _ := New([]int{3}, []float64{1, 2, 3})
	_, err = v.Matrix()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRowOps(t *testing.T) {
	d, _ := New([]int{2, 3}, []float64{1, 5, 3, 9, 2, 1})
	assert.Equal(t, []float64{5, 3.5, 2}, d.MeanRows())
	assert.Equal(t, []int{1, 0}, d.Argmax())

	s := d.Softmax()
	assert.Equal(t, d.Shape(), s.Shape())
	for i := 0; i < s.Rows(); i++ {
		sum := 0.0
		for _, v := range s.Row(i) {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
	assert.Equal(t, []int{1, 0}, s.Argmax())
}

func TestSampler(t *testing.T) {
	s := NewSampler(42)
	for _, v := range s.Uniform(2, 3, 100) {
		assert.GreaterOrEqual(t, v, 2.0)
		assert.Less(t, v, 3.0)
	}
	for _, v := range s.LogNormal(100) {
		assert.Greater(t, v, 0.0)
	}
	assert.Len(t, s.Normal(10), 10)
	assert.Equal(t, 1.235, Round(1.23456, 3))
	assert.Equal(t, 3.0, Round(2.5001, 0))
}

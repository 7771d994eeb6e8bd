// Package tensor implements the n-dimensional float64 arrays exchanged with
// components. Two dimensional arrays convert to gonum matrices for linear
// algebra.
package tensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrNotNumeric    = errors.New("not a numeric array")
	ErrRagged        = errors.New("ragged nested array")
)

// Dense is a row-major n-dimensional array.
type Dense struct {
	shape []int
	data  []float64
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// CheckShape reports whether shape holds exactly n values. The product of
// the dimensions must not overflow, and a shape holding no values may not
// declare a dimension longer than max(n, 1).
func CheckShape(shape []int, n int) error {
	product := 1
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in %v", ErrShapeMismatch, shape)
		}
		if d != 0 && product > math.MaxInt/d {
			return fmt.Errorf("%w: shape %v is too large", ErrShapeMismatch, shape)
		}
		product *= d
	}
	if product != n {
		return fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShapeMismatch, shape, product, n)
	}
	if product == 0 {
		limit := max(n, 1)
		for _, d := range shape {
			if d > limit {
				return fmt.Errorf("%w: empty shape %v declares a dimension of %d", ErrShapeMismatch, shape, d)
			}
		}
	}
	return nil
}

// New creates an array of the given shape backed by values.
func New(shape []int, values []float64) (*Dense, error) {
	if err := CheckShape(shape, len(values)); err != nil {
		return nil, err
	}
	return &Dense{shape: slices.Clone(shape), data: values}, nil
}

func Zeros(shape ...int) *Dense {
	return &Dense{shape: slices.Clone(shape), data: make([]float64, size(shape))}
}

// FromRows creates a 2-D array from equally sized rows.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return Zeros(0, 0), nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, ErrRagged
		}
		data = append(data, row...)
	}
	return &Dense{shape: []int{len(rows), cols}, data: data}, nil
}

func (d *Dense) Shape() []int      { return slices.Clone(d.shape) }
func (d *Dense) Values() []float64 { return d.data }
func (d *Dense) Size() int         { return len(d.data) }
func (d *Dense) NDim() int         { return len(d.shape) }

func (d *Dense) Clone() *Dense {
	return &Dense{shape: slices.Clone(d.shape), data: slices.Clone(d.data)}
}

// Reshape returns a view with a new shape. A single -1 dimension is inferred.
func (d *Dense) Reshape(shape ...int) (*Dense, error) {
	shape = slices.Clone(shape)
	infer := -1
	known := 1
	for i, dim := range shape {
		if dim == -1 {
			if infer >= 0 {
				return nil, fmt.Errorf("%w: more than one inferred dimension", ErrShapeMismatch)
			}
			infer = i
			continue
		}
		known *= dim
	}
	if infer >= 0 {
		if known == 0 || len(d.data)%known != 0 {
			return nil, fmt.Errorf("%w: cannot reshape %v into %v", ErrShapeMismatch, d.shape, shape)
		}
		shape[infer] = len(d.data) / known
	}
	return New(shape, d.data)
}

// Rows returns the size of the first dimension.
func (d *Dense) Rows() int {
	if len(d.shape) == 0 {
		return 1
	}
	return d.shape[0]
}

// Cols returns the number of values per row.
func (d *Dense) Cols() int {
	if d.Rows() == 0 {
		return 0
	}
	return len(d.data) / d.Rows()
}

// Row returns the flattened values of row i.
func (d *Dense) Row(i int) []float64 {
	c := d.Cols()
	return d.data[i*c : (i+1)*c]
}

// As2D returns the array viewed as rows x cols. A 1-D array is one row.
func (d *Dense) As2D() *Dense {
	if len(d.shape) == 1 {
		return &Dense{shape: []int{1, d.shape[0]}, data: d.data}
	}
	return &Dense{shape: []int{d.Rows(), d.Cols()}, data: d.data}
}

// Matrix returns the array as a gonum matrix. Only 2-D arrays convert.
func (d *Dense) Matrix() (*mat.Dense, error) {
	if len(d.shape) != 2 {
		return nil, fmt.Errorf("%w: matrix requires 2 dimensions, got %v", ErrShapeMismatch, d.shape)
	}
	if d.shape[0] == 0 || d.shape[1] == 0 {
		return nil, fmt.Errorf("%w: empty matrix %v", ErrShapeMismatch, d.shape)
	}
	return mat.NewDense(d.shape[0], d.shape[1], slices.Clone(d.data)), nil
}

func FromMatrix(m mat.Matrix) *Dense {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return &Dense{shape: []int{r, c}, data: data}
}

// Apply returns a new array with fn applied to every value.
func (d *Dense) Apply(fn func(float64) float64) *Dense {
	out := d.Clone()
	for i, v := range out.data {
		out.data[i] = fn(v)
	}
	return out
}

// MeanRows returns the mean of every column over the rows.
func (d *Dense) MeanRows() []float64 {
	means := make([]float64, d.Cols())
	rows := d.Rows()
	if rows == 0 {
		return means
	}
	for i := 0; i < rows; i++ {
		floats.Add(means, d.Row(i))
	}
	floats.Scale(1/float64(rows), means)
	return means
}

// Softmax normalizes every row into a probability distribution.
func (d *Dense) Softmax() *Dense {
	out := d.As2D().Clone()
	for i := 0; i < out.Rows(); i++ {
		row := out.Row(i)
		if len(row) == 0 {
			continue
		}
		max := floats.Max(row)
		for j := range row {
			row[j] = math.Exp(row[j] - max)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
	out.shape = d.Shape()
	return out
}

// Argmax returns the index of the largest value of every row.
func (d *Dense) Argmax() []int {
	rows := d.As2D()
	out := make([]int, rows.Rows())
	for i := range out {
		if row := rows.Row(i); len(row) > 0 {
			out[i] = floats.MaxIdx(row)
		}
	}
	return out
}

// ToNested converts the array into nested []any slices of float64.
func (d *Dense) ToNested() any {
	if len(d.shape) == 0 {
		if len(d.data) == 0 {
			return []any{}
		}
		return d.data[0]
	}
	v, _ := nest(d.shape, d.data)
	return v
}

func nest(shape []int, data []float64) (any, []float64) {
	out := make([]any, shape[0])
	if len(shape) == 1 {
		for i := range out {
			out[i] = data[i]
		}
		return out, data[shape[0]:]
	}
	for i := range out {
		out[i], data = nest(shape[1:], data)
	}
	return out, data
}

// FromNested converts nested slices of numbers into an array. It returns
// ErrNotNumeric when a leaf is not a number and ErrRagged when the nesting
// is not rectangular.
func FromNested(v any) (*Dense, error) {
	switch x := v.(type) {
	case *Dense:
		return x, nil
	case []float64:
		return New([]int{len(x)}, slices.Clone(x))
	case [][]float64:
		return FromRows(x)
	}
	shape := inferShape(v)
	data, err := flatten(v, 0, shape, make([]float64, 0, size(shape)))
	if err != nil {
		return nil, err
	}
	return New(shape, data)
}

// inferShape follows the first element at every level.
func inferShape(v any) []int {
	shape := make([]int, 0)
	for {
		list, ok := v.([]any)
		if !ok {
			return shape
		}
		shape = append(shape, len(list))
		if len(list) == 0 {
			return shape
		}
		v = list[0]
	}
}

func flatten(v any, depth int, shape []int, data []float64) ([]float64, error) {
	if list, ok := v.([]any); ok {
		if depth >= len(shape) || len(list) != shape[depth] {
			return nil, ErrRagged
		}
		var err error
		for _, item := range list {
			if data, err = flatten(item, depth+1, shape, data); err != nil {
				return nil, err
			}
		}
		return data, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, ErrNotNumeric
	}
	if depth != len(shape) {
		return nil, ErrRagged
	}
	return append(data, f), nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// IsNumeric reports whether v converts into an array.
func IsNumeric(v any) bool {
	_, err := FromNested(v)
	return err == nil
}

func (d *Dense) String() string {
	b, _ := json.Marshal(d.ToNested())
	return string(b)
}

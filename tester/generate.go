package tester

import (
	"fmt"
	"math"

	"github.com/AminuIsrael/seldon-core/pkg/tensor"
)

// Batch is a generated table with one row per request instance.
type Batch struct {
	Names []string
	Rows  [][]any
	// Numeric is set when every value is a float64
	Numeric bool
}

// Values returns the row major values of a numeric batch.
func (b *Batch) Values() []float64 {
	var values []float64
	for _, row := range b.Rows {
		for _, v := range row {
			values = append(values, v.(float64))
		}
	}
	return values
}

func (b *Batch) Shape() []int {
	cols := 0
	if len(b.Rows) > 0 {
		cols = len(b.Rows[0])
	}
	return []int{len(b.Rows), cols}
}

type Generator struct {
	sampler *tensor.Sampler
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{sampler: tensor.NewSampler(seed)}
}

// Generate draws n rows for the features.
func (g *Generator) Generate(features []Feature, n int) (*Batch, error) {
	batch := &Batch{
		Names:   Names(features),
		Rows:    make([][]any, n),
		Numeric: true,
	}
	for _, f := range features {
		cols, err := g.column(f, n)
		if err != nil {
			return nil, fmt.Errorf("feature '%s': %w", f.Name, err)
		}
		for i := range batch.Rows {
			batch.Rows[i] = append(batch.Rows[i], cols[i]...)
		}
		if !f.Numeric() {
			batch.Numeric = false
		}
	}
	return batch, nil
}

// column returns n rows of f.Columns() values.
func (g *Generator) column(f Feature, n int) ([][]any, error) {
	width := f.Columns()
	var flat []any
	switch f.FType {
	case FTypeContinuous:
		values, err := g.continuous(f.Range, n*width)
		if err != nil {
			return nil, err
		}
		flat = make([]any, len(values))
		for i, v := range values {
			if f.DType == DTypeInt {
				flat[i] = math.Round(v)
			} else {
				flat[i] = tensor.Round(v, 3)
			}
		}
	case FTypeCategorical:
		if len(f.Values) == 0 {
			return nil, fmt.Errorf("categorical feature without values")
		}
		flat = make([]any, n*width)
		for i := range flat {
			flat[i] = f.Values[g.sampler.IntN(len(f.Values))]
		}
	default:
		return nil, fmt.Errorf("unknown ftype: %s", f.FType)
	}

	rows := make([][]any, n)
	for i := range rows {
		rows[i] = flat[i*width : (i+1)*width]
	}
	return rows, nil
}

func (g *Generator) continuous(r []any, n int) ([]float64, error) {
	lo, hi := any(Inf), any(Inf)
	if len(r) == 2 {
		lo, hi = r[0], r[1]
	}
	loInf, hiInf := lo == Inf, hi == Inf

	switch {
	case loInf && hiInf:
		return g.sampler.Normal(n), nil
	case loInf:
		h, err := bound(hi)
		if err != nil {
			return nil, err
		}
		values := g.sampler.LogNormal(n)
		for i := range values {
			values[i] = h - values[i]
		}
		return values, nil
	case hiInf:
		l, err := bound(lo)
		if err != nil {
			return nil, err
		}
		values := g.sampler.LogNormal(n)
		for i := range values {
			values[i] = l + values[i]
		}
		return values, nil
	default:
		l, err := bound(lo)
		if err != nil {
			return nil, err
		}
		h, err := bound(hi)
		if err != nil {
			return nil, err
		}
		if l > h {
			return nil, fmt.Errorf("invalid range [%v, %v]", l, h)
		}
		return g.sampler.Uniform(l, h, n), nil
	}
}

func bound(v any) (float64, error) {
	switch b := v.(type) {
	case float64:
		return b, nil
	case int:
		return float64(b), nil
	}
	return 0, fmt.Errorf("invalid range bound: %v", v)
}

package builtin

import (
	"context"
	"fmt"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
)

// ScoreArgmax turns rows of scores into the index, or label, of the best
// score.
type ScoreArgmax struct {
	Labels []string `json:"labels"`
}

func NewScoreArgmax(params component.Parameters) (any, error) {
	s := &ScoreArgmax{}
	if err := params.Decode(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ScoreArgmax) TransformOutput(ctx context.Context, X any, names []string) (any, error) {
	d, err := asMatrix(X)
	if err != nil {
		return nil, err
	}
	best := d.Argmax()
	if s.Labels == nil {
		out := tensor.Zeros(len(best), 1)
		for i, idx := range best {
			out.Values()[i] = float64(idx)
		}
		return out, nil
	}
	out := make([]any, len(best))
	for i, idx := range best {
		if idx >= len(s.Labels) {
			return nil, fmt.Errorf("no label for class %d", idx)
		}
		out[i] = []any{s.Labels[idx]}
	}
	return out, nil
}

func (s *ScoreArgmax) ClassNames() []string {
	return []string{"class"}
}

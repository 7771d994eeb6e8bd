package builtin

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
)

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1))
}

// RandomABTest sends a RatioA share of requests to child 0 and the rest to
// child 1.
type RandomABTest struct {
	RatioA float64 `json:"ratioA" default:"0.5"`
	Seed   int64   `json:"seed"`

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomABTest(params component.Parameters) (any, error) {
	r := &RandomABTest{}
	if err := params.Decode(r); err != nil {
		return nil, err
	}
	if r.RatioA < 0 || r.RatioA > 1 {
		return nil, errors.New("ratioA must be in the range [0, 1]")
	}
	r.rnd = newRand(r.Seed)
	return r, nil
}

func (r *RandomABTest) Route(ctx context.Context, X any, names []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rnd.Float64() < r.RatioA {
		return 0, nil
	}
	return 1, nil
}

// EpsilonGreedy is a multi-armed bandit router. It explores a random branch
// with probability Epsilon and otherwise exploits the branch with the best
// observed success rate.
type EpsilonGreedy struct {
	NBranches int     `json:"nBranches"`
	Epsilon   float64 `json:"epsilon" default:"0.1"`
	Seed      int64   `json:"seed"`

	state EpsilonGreedyState
	rnd   *rand.Rand
}

type EpsilonGreedyState struct {
	BestBranch    int       `json:"best_branch"`
	BranchSuccess []float64 `json:"branch_success"`
	BranchTries   []float64 `json:"branch_tries"`
}

func NewEpsilonGreedy(params component.Parameters) (any, error) {
	e := &EpsilonGreedy{}
	if err := params.Decode(e); err != nil {
		return nil, err
	}
	if e.NBranches < 1 {
		return nil, errors.New("nBranches must be positive")
	}
	if e.Epsilon < 0 || e.Epsilon > 1 {
		return nil, errors.New("epsilon must be in the range [0, 1]")
	}
	e.rnd = newRand(e.Seed)
	e.state = EpsilonGreedyState{
		BranchSuccess: make([]float64, e.NBranches),
		BranchTries:   make([]float64, e.NBranches),
	}
	return e, nil
}

func (e *EpsilonGreedy) Route(ctx context.Context, X any, names []string) (int, error) {
	if e.NBranches > 1 && e.rnd.Float64() < e.Epsilon {
		other := e.rnd.IntN(e.NBranches - 1)
		if other >= e.state.BestBranch {
			other++
		}
		return other, nil
	}
	return e.state.BestBranch, nil
}

// SendFeedback credits reward for every row of the request to the branch
// that served it.
func (e *EpsilonGreedy) SendFeedback(ctx context.Context, X any, names []string, reward float64, truth any, routing int) (any, error) {
	if routing < 0 || routing >= e.NBranches {
		return nil, nil
	}
	n := 1.0
	if d, err := tensor.FromNested(X); err == nil && d.NDim() > 0 {
		n = float64(d.Rows())
	} else if rows, ok := X.([]any); ok {
		n = float64(len(rows))
	}
	e.state.BranchSuccess[routing] += reward * n
	e.state.BranchTries[routing] += n

	best, bestRate := 0, -1.0
	for i := range e.state.BranchTries {
		rate := 0.0
		if e.state.BranchTries[i] > 0 {
			rate = e.state.BranchSuccess[i] / e.state.BranchTries[i]
		}
		if rate > bestRate {
			best, bestRate = i, rate
		}
	}
	e.state.BestBranch = best
	return nil, nil
}

func (e *EpsilonGreedy) Tags() map[string]any {
	return map[string]any{"best_branch": e.state.BestBranch}
}

func (e *EpsilonGreedy) Metrics() []message.Metric {
	tries := 0.0
	for _, t := range e.state.BranchTries {
		tries += t
	}
	return []message.Metric{
		{Key: "epsilon_greedy_feedback", Type: message.MetricGauge, Value: tries},
	}
}

func (e *EpsilonGreedy) State() any {
	return e.state
}

func (e *EpsilonGreedy) RestoreState(decode func(v any) error) error {
	var state EpsilonGreedyState
	if err := decode(&state); err != nil {
		return err
	}
	if len(state.BranchSuccess) != e.NBranches || len(state.BranchTries) != e.NBranches {
		return errors.New("persisted state does not match nBranches")
	}
	e.state = state
	return nil
}

package tester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/pool"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

type Endpoint string

const (
	EndpointPredict      Endpoint = "predict"
	EndpointSendFeedback Endpoint = "send-feedback"
)

func ParseEndpoint(s string) (Endpoint, error) {
	switch e := Endpoint(s); e {
	case EndpointPredict, EndpointSendFeedback:
		return e, nil
	}
	return "", fmt.Errorf("invalid endpoint: %s", s)
}

type Options struct {
	Endpoint    Endpoint
	BatchSize   int
	NRequests   int
	Tensor      bool
	Print       bool
	Concurrency int
	Timeout     time.Duration
	Seed        uint64
	// Puid sets a unique meta.puid on every request
	Puid bool
}

type Summary struct {
	Success int
	Failure int
	Latency time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d requests: %d succeeded, %d failed, mean latency %s",
		s.Success+s.Failure, s.Success, s.Failure, s.Latency)
}

type Runner struct {
	client   Client
	contract *Contract
	opts     Options
	out      io.Writer
	log      *zap.SugaredLogger

	mu  sync.Mutex
	gen *Generator
}

func NewRunner(client Client, contract *Contract, opts Options, out io.Writer) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Endpoint == "" {
		opts.Endpoint = EndpointPredict
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}
	return &Runner{
		client:   client,
		contract: contract.Unfold(),
		opts:     opts,
		out:      out,
		log:      zap.S().Named("tester"),
		gen:      NewGenerator(opts.Seed),
	}
}

func (r *Runner) generate() (req *message.SeldonMessage, truth *message.SeldonMessage, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, err := r.gen.Generate(r.contract.Features, r.opts.BatchSize)
	if err != nil {
		return nil, nil, err
	}
	req = NewRequest(batch, r.opts.Tensor)
	if r.opts.Puid {
		req.Meta = &message.Meta{Puid: ksuid.New().String()}
	}
	if r.opts.Endpoint == EndpointSendFeedback && len(r.contract.Targets) > 0 {
		targets, err := r.gen.Generate(r.contract.Targets, r.opts.BatchSize)
		if err != nil {
			return nil, nil, err
		}
		truth = NewRequest(targets, r.opts.Tensor)
	}
	return req, truth, nil
}

func (r *Runner) print(title string, v any) {
	if !r.opts.Print {
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "----------------------------------------\n%s:\n%s\n", title, b)
}

// once sends one request, predicting first when sending feedback.
func (r *Runner) once(ctx context.Context) error {
	req, truth, err := r.generate()
	if err != nil {
		return err
	}
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	r.print("SENDING NEW REQUEST", req)
	resp, err := r.client.Predict(ctx, req)
	if err != nil {
		return err
	}
	r.print("RECEIVED RESPONSE", resp)

	if r.opts.Endpoint != EndpointSendFeedback {
		return nil
	}
	fb := &message.Feedback{
		Request:  req,
		Response: resp,
		Reward:   1.0,
		Truth:    truth,
	}
	r.print("SENDING NEW FEEDBACK", fb)
	ack, err := r.client.SendFeedback(ctx, fb)
	if err != nil {
		return err
	}
	r.print("RECEIVED RESPONSE", ack)
	return nil
}

// Run sends the requests and reports the outcome. Request failures are
// counted, not returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var (
		mu      sync.Mutex
		summary Summary
		total   time.Duration
	)

	p := pool.NewPool(r.opts.Concurrency, r.opts.Concurrency)
	var submitErr error
	for i := 0; i < r.opts.NRequests; i++ {
		err := p.Submit(ctx, func() {
			start := time.Now()
			err := r.once(ctx)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.Errorf("request failed: %v", err)
				summary.Failure++
				return
			}
			summary.Success++
			total += elapsed
		})
		if err != nil {
			submitErr = err
			break
		}
	}
	p.Close()

	if summary.Success > 0 {
		summary.Latency = (total / time.Duration(summary.Success)).Round(time.Microsecond)
	}
	return summary, submitErr
}

// Package persistence saves the state of stateful components to Redis and
// restores it on start.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/AminuIsrael/seldon-core/pkg/metrics"
	"github.com/AminuIsrael/seldon-core/pkg/schedule"
	"github.com/AminuIsrael/seldon-core/pkg/serializer"
	"go.uber.org/zap"
)

// Stateful is the unit whose component state is persisted.
type Stateful interface {
	Snapshot(encode func(v any) error) (bool, error)
	Restore(decode func(v any) error) error
}

type Options struct {
	Key          string
	PushInterval time.Duration
	LockTimeout  time.Duration
	Serializer   serializer.Serializer
}

type Persister struct {
	opts      Options
	unit      Stateful
	store     Store
	locker    Locker
	scheduler *schedule.Scheduler
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
}

func New(unit Stateful, store Store, locker Locker, opts Options) *Persister {
	if opts.Serializer == nil {
		opts.Serializer = serializer.MsgPack
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 10 * time.Second
	}
	return &Persister{
		opts:      opts,
		unit:      unit,
		store:     store,
		locker:    locker,
		scheduler: schedule.NewScheduler(),
		log:       zap.S().Named("persistence"),
		metrics:   metrics.Discard(),
	}
}

func (p *Persister) WithMetrics(m *metrics.Metrics) *Persister {
	p.metrics = m
	return p
}

func (p *Persister) Name() string {
	return "persistence"
}

func (p *Persister) Key() string {
	return p.opts.Key
}

func (p *Persister) lock(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.LockTimeout)
	defer cancel()
	unlock, err := p.locker.Lock(ctx, p.opts.Key+":lock")
	if err != nil {
		return nil, fmt.Errorf("failed to lock '%s': %w", p.opts.Key, err)
	}
	return func() {
		if err := unlock(context.Background()); err != nil {
			p.log.Warnf("failed to unlock '%s': %v", p.opts.Key, err)
		}
	}, nil
}

// Restore restores the state saved under the key. A missing key leaves the
// component untouched.
func (p *Persister) Restore(ctx context.Context) error {
	unlock, err := p.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	b, exist, err := p.store.Load(ctx, p.opts.Key)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if !exist {
		p.log.Infof("no saved state for '%s'", p.opts.Key)
		return nil
	}
	err = p.unit.Restore(func(v any) error {
		return p.opts.Serializer.Deserialize(b, v)
	})
	if err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	p.log.Infof("restored state from '%s'", p.opts.Key)
	return nil
}

// Push saves the current state.
func (p *Persister) Push(ctx context.Context) error {
	var b []byte
	ok, err := p.unit.Snapshot(func(v any) (err error) {
		b, err = p.opts.Serializer.Serialize(v)
		return
	})
	if err != nil {
		p.metrics.PersistenceFailedCounter.Add(1)
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	if !ok {
		return nil
	}

	unlock, err := p.lock(ctx)
	if err != nil {
		p.metrics.PersistenceFailedCounter.Add(1)
		return err
	}
	defer unlock()

	if err := p.store.Save(ctx, p.opts.Key, b); err != nil {
		p.metrics.PersistenceFailedCounter.Add(1)
		return fmt.Errorf("failed to save state: %w", err)
	}
	p.metrics.PersistencePushCounter.Add(1)
	p.log.Debugf("saved state to '%s'", p.opts.Key)
	return nil
}

// Start pushes the state every push interval.
func (p *Persister) Start() error {
	err := p.scheduler.AddTask(schedule.Task{
		Name:         "persistence.push",
		InitialDelay: p.opts.PushInterval,
		Interval:     p.opts.PushInterval,
		Do: func() {
			ctx, cancel := context.WithTimeout(context.Background(), p.opts.PushInterval)
			defer cancel()
			if err := p.Push(ctx); err != nil {
				p.log.Errorf("failed to push state: %v", err)
			}
		},
	})
	if err != nil {
		return err
	}
	p.scheduler.Start()
	return nil
}

// Stop stops the periodic pushes and pushes the state one last time.
func (p *Persister) Stop(ctx context.Context) error {
	p.scheduler.Stop()
	return p.Push(ctx)
}

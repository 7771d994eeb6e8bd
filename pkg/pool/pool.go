// Package pool runs functions on a fixed number of workers.
package pool

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrPoolClosed = errors.New("pool is closed")
)

type Pool struct {
	mu     sync.RWMutex
	closed bool

	queue chan func()
	wg    sync.WaitGroup
}

// NewPool starts workers consuming a queue of size functions.
func NewPool(size int, workers int) *Pool {
	p := &Pool{
		queue: make(chan func(), size),
	}

	p.wg.Add(workers)
	for range workers {
		go p.work()
	}

	return p
}

// Submit queues fn, blocking until a slot is free or ctx is done.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	if fn == nil {
		return errors.New("fn is nil")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for fn := range p.queue {
		run(fn)
	}
}

func run(fn func()) {
	defer func() {
		if e := recover(); e != nil {
			zap.S().Errorw("panic recovered", "panic", e, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Close stops accepting functions and waits for the queued ones to run.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

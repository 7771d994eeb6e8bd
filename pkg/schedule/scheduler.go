package schedule

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Task runs Do after InitialDelay and then every Interval.
type Task struct {
	Name         string
	InitialDelay time.Duration
	Interval     time.Duration
	Do           func()
}

var (
	ErrTaskAdded       = errors.New("task already added")
	ErrInvalidInterval = errors.New("interval must be positive")
)

// interval fires once after delay and at a fixed rate afterwards.
type interval struct {
	fired atomic.Bool
	delay time.Duration
	every time.Duration
}

func (s *interval) Next(t time.Time) time.Time {
	if s.fired.CompareAndSwap(false, true) {
		return t.Add(s.delay)
	}
	return t.Add(s.every)
}

// Scheduler runs named tasks on a cron runner. A run is skipped while the
// previous run of the same task is still going, and panics are recovered.
type Scheduler struct {
	cron *cron.Cron

	mu    sync.Mutex
	tasks map[string]cron.EntryID
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		tasks: make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) AddTask(task Task) error {
	if task.Interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.Name]; ok {
		return ErrTaskAdded
	}
	s.tasks[task.Name] = s.cron.Schedule(&interval{delay: task.InitialDelay, every: task.Interval}, cron.FuncJob(task.Do))
	return nil
}

// Scheduled reports whether a task named name was added.
func (s *Scheduler) Scheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running tasks to complete.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Package scheduler drives the fixed-interval detection tick: each
// connector refresh is its own concurrent task with its own timeout, jitter
// and exponential backoff, grounded on facade_impl.go's per-task goroutine
// fan-out via sync.WaitGroup (spec.md §4.7).
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is one connector's refresh function.
type Task struct {
	Name    string
	Refresh func(ctx context.Context) error
	Timeout time.Duration
}

type taskState struct {
	consecutiveFailures int
	nextEligible        time.Time
}

// Scheduler ticks every Interval, running every registered Task
// concurrently with ±10% jitter and exponential backoff on consecutive
// failure.
type Scheduler struct {
	Interval time.Duration
	tasks    []Task
	state    map[string]*taskState
	mu       sync.Mutex
	onTick   func()
}

// New builds a scheduler with the given base interval (default 3s per
// spec.md §4.7) and an optional onTick hook invoked after every task fan-out
// completes, used to drive the detection engine.
func New(interval time.Duration, onTick func()) *Scheduler {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Scheduler{Interval: interval, state: make(map[string]*taskState), onTick: onTick}
}

// Register adds a connector refresh task.
func (s *Scheduler) Register(t Task) {
	if t.Timeout <= 0 {
		t.Timeout = 5 * time.Second
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.state[t.Name] = &taskState{}
	s.mu.Unlock()
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// RunOnce runs a single tick: every registered task whose backoff has
// elapsed runs once; tasks still backing off are skipped.
// Used by the probe CLI command to validate connectivity without starting
// the full ticking loop.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.tick(ctx)
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	now := time.Now()
	var wg sync.WaitGroup
	for _, t := range tasks {
		s.mu.Lock()
		st := s.state[t.Name]
		s.mu.Unlock()
		if now.Before(st.nextEligible) {
			continue
		}

		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			reqCtx, cancel := context.WithTimeout(ctx, t.Timeout)
			defer cancel()

			jitter := time.Duration(float64(s.Interval) * 0.1 * (rand.Float64()*2 - 1))
			time.Sleep(jitter.Abs())

			err := t.Refresh(reqCtx)
			s.mu.Lock()
			st := s.state[t.Name]
			if err != nil {
				st.consecutiveFailures++
				backoff := s.Interval * time.Duration(minInt(1<<st.consecutiveFailures, 5))
				st.nextEligible = time.Now().Add(backoff)
				log.Warn().Str("task", t.Name).Err(err).Int("consecutive_failures", st.consecutiveFailures).Msg("connector refresh failed")
			} else {
				st.consecutiveFailures = 0
				st.nextEligible = time.Time{}
			}
			s.mu.Unlock()
		}(t)
	}
	wg.Wait()

	if s.onTick != nil {
		s.onTick()
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

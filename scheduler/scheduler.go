/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package scheduler owns the worker goroutines that dispatch completion
// handlers for every other package in this module. It mirrors a classic
// single-queue event loop (post/poll/run), with Strand providing the
// per-terminal serialization the rest of the kernel relies on.
package scheduler

import (
	"sync"
	"time"

	"github.com/nabbar/yogi/internal/buildinfo"
	"github.com/nabbar/yogi/metrics"
)

// Scheduler owns worker goroutines and dispatches posted closures. It never
// runs a closure inline on the calling goroutine from Post; Poll/Run/RunOne
// are the synchronous entry points that do.
type Scheduler interface {
	// Post enqueues fn to run on a worker goroutine. It never blocks and
	// never runs fn before returning.
	Post(fn func())

	// NewStrand returns a Strand bound to this Scheduler: closures posted
	// to the same Strand never execute concurrently, and run in the order
	// they were posted.
	NewStrand() Strand

	// Poll runs every closure that is ready right now, without blocking
	// for more work, and returns how many ran.
	Poll() int
	// PollOne runs at most one ready closure and reports whether it did.
	PollOne() bool
	// Run blocks, running closures as they arrive, until timeout elapses
	// or Stop has been called and the queue is empty (timeout <= 0 means
	// block until Stop). An empty queue alone does not end a timed Run.
	// Returns the count of closures run.
	Run(timeout time.Duration) int
	// RunOne blocks until one closure is ready (or the Scheduler stops),
	// then runs it. Reports whether it ran one.
	RunOne() bool
	// RunInBackground starts n worker goroutines, each looping Run until
	// Stop is called.
	RunInBackground(n int)
	// SetThreadPoolSize changes the number of background workers started
	// by a subsequent RunInBackground called with n < 1, clamped to [1,
	// buildinfo.MaxThreadPoolSize]. It has no effect on workers already
	// running.
	SetThreadPoolSize(n int)

	// Stop signals every background worker to exit after its current
	// closure. Already-queued work may be dropped.
	Stop()
	// WaitForRunning blocks until at least one background worker has
	// started looping.
	WaitForRunning()
	// WaitForStopped blocks until every background worker started by
	// RunInBackground has exited.
	WaitForStopped()

	// QueueDepth reports the number of closures currently queued.
	QueueDepth() int
}

type job struct {
	fn func()
}

type scheduler struct {
	name string
	mx   metrics.Collectors
	hasM bool

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []job
	stopped  bool
	poolSize int

	startedOnce sync.Once
	started     chan struct{}

	workersMu sync.Mutex
	workersWg sync.WaitGroup
	active    int
}

// New returns a Scheduler identified by name (used as the Prometheus
// "scheduler" label when mx is non-nil).
func New(name string, mx *metrics.Collectors) Scheduler {
	s := &scheduler{
		name:     name,
		poolSize: 1,
		started:  make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	if mx != nil {
		s.mx = *mx
		s.hasM = true
	}

	return s
}

func (s *scheduler) Post(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, job{fn: fn})
	depth := len(s.queue)
	s.cond.Signal()
	s.mu.Unlock()

	if s.hasM {
		s.mx.SchedulerQueueDepth.WithLabelValues(s.name).Set(float64(depth))
	}
}

func (s *scheduler) NewStrand() Strand {
	return &strand{sched: s}
}

func (s *scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *scheduler) popLocked() (job, bool) {
	if len(s.queue) == 0 {
		return job{}, false
	}

	j := s.queue[0]
	s.queue = s.queue[1:]

	if s.hasM {
		s.mx.SchedulerQueueDepth.WithLabelValues(s.name).Set(float64(len(s.queue)))
	}

	return j, true
}

func (s *scheduler) runJob(j job) {
	if s.hasM {
		s.mx.SchedulerWorkersActive.WithLabelValues(s.name).Inc()
		defer s.mx.SchedulerWorkersActive.WithLabelValues(s.name).Dec()
	}

	j.fn()
}

func (s *scheduler) Poll() int {
	n := 0

	for {
		s.mu.Lock()
		j, ok := s.popLocked()
		s.mu.Unlock()

		if !ok {
			return n
		}

		s.runJob(j)
		n++
	}
}

func (s *scheduler) PollOne() bool {
	s.mu.Lock()
	j, ok := s.popLocked()
	s.mu.Unlock()

	if !ok {
		return false
	}

	s.runJob(j)
	return true
}

func (s *scheduler) Run(timeout time.Duration) int {
	n := 0
	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			if hasDeadline {
				remaining := time.Until(deadline)
				if remaining <= 0 {
					s.mu.Unlock()
					return n
				}
				s.waitWithTimeout(remaining)
			} else {
				s.cond.Wait()
			}
		}

		if s.stopped && len(s.queue) == 0 {
			s.mu.Unlock()
			return n
		}

		j, ok := s.popLocked()
		s.mu.Unlock()

		if !ok {
			continue
		}

		s.runJob(j)
		n++

		if hasDeadline && !time.Now().Before(deadline) {
			return n
		}
	}
}

// waitWithTimeout wakes s.cond after d elapses, giving Run's timed wait a
// bound despite sync.Cond having no native timeout. Must be called with
// s.mu held; reacquires it before returning.
func (s *scheduler) waitWithTimeout(d time.Duration) {
	done := make(chan struct{})
	timer := time.AfterFunc(d, func() {
		s.mu.Lock()
		close(done)
		s.cond.Broadcast()
		s.mu.Unlock()
	})

	s.cond.Wait()

	timer.Stop()
	select {
	case <-done:
	default:
	}
}

func (s *scheduler) RunOne() bool {
	s.mu.Lock()
	for len(s.queue) == 0 && !s.stopped {
		s.cond.Wait()
	}

	j, ok := s.popLocked()
	s.mu.Unlock()

	if !ok {
		return false
	}

	s.runJob(j)
	return true
}

func (s *scheduler) SetThreadPoolSize(n int) {
	if n < 1 {
		n = 1
	}
	if n > buildinfo.MaxThreadPoolSize {
		n = buildinfo.MaxThreadPoolSize
	}

	s.mu.Lock()
	s.poolSize = n
	s.mu.Unlock()
}

func (s *scheduler) RunInBackground(n int) {
	if n < 1 {
		s.mu.Lock()
		n = s.poolSize
		s.mu.Unlock()
	}

	for i := 0; i < n; i++ {
		s.workersWg.Add(1)
		go func() {
			defer s.workersWg.Done()

			s.workersMu.Lock()
			s.active++
			s.workersMu.Unlock()

			s.startedOnce.Do(func() { close(s.started) })

			s.Run(0)

			s.workersMu.Lock()
			s.active--
			s.workersMu.Unlock()
		}()
	}
}

func (s *scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *scheduler) WaitForRunning() {
	<-s.started
}

func (s *scheduler) WaitForStopped() {
	s.workersWg.Wait()
}

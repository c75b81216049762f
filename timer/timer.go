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

// Package timer implements the single-shot deadline source: a Timer
// armed with a duration and a handler, fired on the
// owning Scheduler once the duration elapses, cancellable up until then.
package timer

import (
	"sync"
	"time"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
)

// Infinity is the distinguished duration that never expires on its own;
// a Timer armed with it only ever fires via Cancel.
const Infinity = time.Duration(-1)

// Handler receives the outcome of a Timer expiry: Success on a normal
// fire, or a Canceled/TimerExpired failure.
type Handler func(err failure.Error)

// Timer is a single-shot deadline integrated with a Scheduler: StartAsync
// always supersedes any previous pending expiry (delivering it Canceled)
// before arming the new one.
type Timer struct {
	strand scheduler.Strand

	mu      sync.Mutex
	pending Handler
	gen     uint64
	timer   *time.Timer
}

// New returns a Timer that dispatches its handler on sched.
func New(sched scheduler.Scheduler) *Timer {
	return &Timer{strand: sched.NewStrand()}
}

// StartAsync cancels any previously pending expiry (firing it Canceled)
// and schedules handler to run after duration. A duration of Infinity (or
// any duration <= 0 other than Infinity itself) arms the timer so only an
// explicit Cancel ever fires it.
func (t *Timer) StartAsync(duration time.Duration, handler Handler) {
	t.mu.Lock()
	t.gen++
	gen := t.gen

	prev := t.pending
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = handler

	if duration > 0 {
		t.timer = time.AfterFunc(duration, func() { t.fire(gen, nil) })
	}
	t.mu.Unlock()

	if prev != nil {
		t.strand.Post(func() { prev(failure.New(failure.Canceled, "superseded by new StartAsync")) })
	}
}

func (t *Timer) fire(gen uint64, cause failure.Error) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	h := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()

	if h == nil {
		return
	}
	t.strand.Post(func() { h(cause) })
}

// Cancel delivers Canceled to the pending handler, if one is armed, and
// reports whether a timer was in fact pending (false if it had already
// expired or was never armed).
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	h := t.pending
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = nil
	t.gen++
	t.mu.Unlock()

	if h == nil {
		return false
	}
	t.strand.Post(func() { h(failure.New(failure.Canceled, "timer canceled")) })
	return true
}

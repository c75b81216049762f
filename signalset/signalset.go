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

package signalset

import (
	"sync"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
)

// Handler receives one delivered signal: the oldest pending entry at the
// time AwaitSignal is (or becomes) ready to fire.
type Handler func(err failure.Error, signal Signal, sigarg interface{})

type pendingEntry struct {
	bit     Signal
	sigarg  interface{}
	tracker *tracker
}

// SignalSet buffers at most one pending signal per subscribed flag and
// lets a single caller await the oldest one at a time.
type SignalSet struct {
	bus    *Bus
	mask   Signal
	strand scheduler.Strand

	mu       sync.Mutex
	byBit    map[Signal]*pendingEntry
	queue    []*pendingEntry
	pending  Handler
	closed   bool
}

// New registers a SignalSet on bus subscribed to mask and returns it.
func New(bus *Bus, sched scheduler.Scheduler, mask Signal) *SignalSet {
	s := &SignalSet{
		bus:    bus,
		mask:   mask,
		strand: sched.NewStrand(),
		byBit:  make(map[Signal]*pendingEntry),
	}
	bus.register(s)
	return s
}

// deliverOrBuffer is called by Bus.Raise for each single-bit component of
// a raised signal this set subscribes to. If a pending entry for that bit
// already exists, the new one is dropped but still counts as delivered
// for the raiser's cleanup accounting.
func (s *SignalSet) deliverOrBuffer(signal Signal, sigarg interface{}, tr *tracker) {
	for _, bit := range signal.bits() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			tr.done()
			continue
		}
		if _, dup := s.byBit[bit]; dup {
			s.mu.Unlock()
			tr.done()
			continue
		}
		e := &pendingEntry{bit: bit, sigarg: sigarg, tracker: tr}
		s.byBit[bit] = e
		s.queue = append(s.queue, e)
		handler := s.pending
		if handler != nil {
			s.pending = nil
			s.popLocked(e)
		}
		s.mu.Unlock()

		if handler != nil {
			h := handler
			s.strand.Post(func() { h(nil, e.bit, e.sigarg) })
			e.tracker.done()
		}
	}
}

// popLocked removes e from the pending queue and index. Caller holds s.mu.
func (s *SignalSet) popLocked(e *pendingEntry) {
	delete(s.byBit, e.bit)
	for i, q := range s.queue {
		if q == e {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
}

// AwaitSignal delivers the oldest pending signal to handler immediately
// if one is already buffered, or arranges for the next raise to deliver
// directly. A second call while one is already outstanding fails Busy.
func (s *SignalSet) AwaitSignal(handler Handler) failure.Error {
	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return failure.New(failure.Busy, "await signal already pending")
	}

	if len(s.queue) > 0 {
		e := s.queue[0]
		s.popLocked(e)
		s.mu.Unlock()

		s.strand.Post(func() { handler(nil, e.bit, e.sigarg) })
		e.tracker.done()
		return nil
	}

	s.pending = handler
	s.mu.Unlock()
	return nil
}

// CancelAwaitSignal delivers Canceled to the pending handler, if any.
func (s *SignalSet) CancelAwaitSignal() bool {
	s.mu.Lock()
	h := s.pending
	s.pending = nil
	s.mu.Unlock()

	if h == nil {
		return false
	}
	s.strand.Post(func() { h(failure.New(failure.Canceled, "await signal canceled"), None, nil) })
	return true
}

// Destroy unregisters the set from its Bus and settles every buffered
// entry's tracker (counting this set as having "delivered" the signal),
// so in-flight Raise cleanups are not blocked forever by a destroyed set.
func (s *SignalSet) Destroy() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	h := s.pending
	s.pending = nil
	queued := s.queue
	s.queue = nil
	s.byBit = make(map[Signal]*pendingEntry)
	s.mu.Unlock()

	s.bus.unregister(s)

	if h != nil {
		s.strand.Post(func() { h(failure.New(failure.Canceled, "signal set destroyed"), None, nil) })
	}
	for _, e := range queued {
		e.tracker.done()
	}
}

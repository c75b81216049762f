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

import "sync"

// CleanupFunc runs exactly once per Raise call, after every SignalSet the
// signal was dispatched to has either delivered it or been destroyed.
type CleanupFunc func(sigarg interface{})

// tracker counts down the number of sets still holding a raise outstanding.
type tracker struct {
	mu        sync.Mutex
	remaining int
	cleanup   CleanupFunc
	sigarg    interface{}
	fired     bool
}

func (t *tracker) done() {
	t.mu.Lock()
	t.remaining--
	fire := t.remaining <= 0 && !t.fired
	if fire {
		t.fired = true
	}
	t.mu.Unlock()

	if fire && t.cleanup != nil {
		t.cleanup(t.sigarg)
	}
}

// Bus multiplexes Raise calls to every currently registered SignalSet
// whose subscription mask overlaps the raised signal.
type Bus struct {
	mu   sync.Mutex
	sets map[*SignalSet]struct{}
}

// NewBus returns an empty, ready-to-use Bus.
func NewBus() *Bus {
	return &Bus{sets: make(map[*SignalSet]struct{})}
}

func (b *Bus) register(s *SignalSet) {
	b.mu.Lock()
	b.sets[s] = struct{}{}
	b.mu.Unlock()
}

func (b *Bus) unregister(s *SignalSet) {
	b.mu.Lock()
	delete(b.sets, s)
	b.mu.Unlock()
}

// Raise dispatches signal to every registered set subscribed to at least
// one of its bits. cleanup (if non-nil) fires exactly once, after every
// dispatched set has delivered the signal (via AwaitSignal) or been
// destroyed. If no set is subscribed, cleanup fires immediately.
func (b *Bus) Raise(signal Signal, sigarg interface{}, cleanup CleanupFunc) {
	b.mu.Lock()
	var targets []*SignalSet
	for s := range b.sets {
		if s.mask&signal != 0 {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	if len(targets) == 0 {
		if cleanup != nil {
			cleanup(sigarg)
		}
		return
	}

	// Each set settles the tracker once per delivered bit, so the count
	// must be in bits, not sets, or a multi-bit raise would fire cleanup
	// before its later bits have been delivered.
	total := 0
	for _, s := range targets {
		total += len((signal & s.mask).bits())
	}

	tr := &tracker{remaining: total, cleanup: cleanup, sigarg: sigarg}
	for _, s := range targets {
		s.deliverOrBuffer(signal&s.mask, sigarg, tr)
	}
}

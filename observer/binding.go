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

package observer

import (
	"sync"

	"github.com/nabbar/yogi/terminal"
)

// BindingWatchable is the subset of a terminal's surface a BindingObserver
// needs: its current state plus a permanent change hook. Every terminal
// shape in this module (terminal.core, embedded by all three concrete
// types) satisfies it already.
type BindingWatchable interface {
	BindingState() terminal.BindingState
	OnBindingChange(func(terminal.BindingState))
}

// BindingCallback receives a terminal's binding state, on Start's initial
// snapshot and on every subsequent transition while the observer runs.
type BindingCallback func(terminal.BindingState)

// BindingObserver auto-reposts a terminal's binding-state changes to any
// number of registered callbacks.
type BindingObserver struct {
	src BindingWatchable

	mu        sync.Mutex
	callbacks map[CallbackId]BindingCallback
	running   bool
	destroyed bool
}

// NewBindingObserver constructs an observer over src. It does not fire
// until Start is called.
func NewBindingObserver(src BindingWatchable) *BindingObserver {
	o := &BindingObserver{src: src, callbacks: make(map[CallbackId]BindingCallback)}
	src.OnBindingChange(o.dispatch)
	return o
}

// Add registers cb, returning an id usable with Remove. If the observer
// is already running, cb is not retroactively given the last snapshot;
// it only sees transitions from this point on.
func (o *BindingObserver) Add(cb BindingCallback) CallbackId {
	id := nextCallbackId()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed {
		return id
	}
	o.callbacks[id] = cb
	return id
}

// Remove unregisters the callback added under id.
func (o *BindingObserver) Remove(id CallbackId) {
	o.mu.Lock()
	delete(o.callbacks, id)
	o.mu.Unlock()
}

// Start snapshots the terminal's current binding state, firing every
// registered callback with it once, then begins delivering subsequent
// transitions as they occur.
func (o *BindingObserver) Start() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.running = true
	cbs := o.snapshotLocked()
	current := o.src.BindingState()
	o.mu.Unlock()

	for _, cb := range cbs {
		cb(current)
	}
}

// Stop suppresses further callback delivery without discarding the
// registered callbacks; a later Start resumes with a fresh snapshot.
func (o *BindingObserver) Stop() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// Destroy guarantees no further callback fires after it returns.
func (o *BindingObserver) Destroy() {
	o.mu.Lock()
	o.destroyed = true
	o.running = false
	o.callbacks = nil
	o.mu.Unlock()
}

func (o *BindingObserver) snapshotLocked() []BindingCallback {
	out := make([]BindingCallback, 0, len(o.callbacks))
	for _, cb := range o.callbacks {
		out = append(out, cb)
	}
	return out
}

func (o *BindingObserver) dispatch(s terminal.BindingState) {
	o.mu.Lock()
	if o.destroyed || !o.running {
		o.mu.Unlock()
		return
	}
	cbs := o.snapshotLocked()
	o.mu.Unlock()

	for _, cb := range cbs {
		cb(s)
	}
}

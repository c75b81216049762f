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

	"github.com/nabbar/yogi/process/operational"
)

// OperationalSource is the subset of operational.Process's surface an
// OperationalObserver needs.
type OperationalSource interface {
	IsMet() bool
	OnChange(operational.OperationalObserver)
}

// OperationalCallback receives a process's published operational AND.
type OperationalCallback func(met bool)

// OperationalObserver auto-reposts a Process's published-value changes to
// any number of registered callbacks.
type OperationalObserver struct {
	src OperationalSource

	mu        sync.Mutex
	callbacks map[CallbackId]OperationalCallback
	running   bool
	destroyed bool
}

// NewOperationalObserver constructs an observer over src. It does not
// fire until Start is called.
func NewOperationalObserver(src OperationalSource) *OperationalObserver {
	o := &OperationalObserver{src: src, callbacks: make(map[CallbackId]OperationalCallback)}
	src.OnChange(o.dispatch)
	return o
}

// Add registers cb, returning an id usable with Remove.
func (o *OperationalObserver) Add(cb OperationalCallback) CallbackId {
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
func (o *OperationalObserver) Remove(id CallbackId) {
	o.mu.Lock()
	delete(o.callbacks, id)
	o.mu.Unlock()
}

// Start snapshots the process's current published value, firing every
// registered callback with it once, then begins delivering subsequent
// changes as they occur.
func (o *OperationalObserver) Start() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.running = true
	cbs := o.snapshotLocked()
	current := o.src.IsMet()
	o.mu.Unlock()

	for _, cb := range cbs {
		cb(current)
	}
}

// Stop suppresses further callback delivery without discarding the
// registered callbacks.
func (o *OperationalObserver) Stop() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// Destroy guarantees no further callback fires after it returns.
func (o *OperationalObserver) Destroy() {
	o.mu.Lock()
	o.destroyed = true
	o.running = false
	o.callbacks = nil
	o.mu.Unlock()
}

func (o *OperationalObserver) snapshotLocked() []OperationalCallback {
	out := make([]OperationalCallback, 0, len(o.callbacks))
	for _, cb := range o.callbacks {
		out = append(out, cb)
	}
	return out
}

func (o *OperationalObserver) dispatch(met bool) {
	o.mu.Lock()
	if o.destroyed || !o.running {
		o.mu.Unlock()
		return
	}
	cbs := o.snapshotLocked()
	o.mu.Unlock()

	for _, cb := range cbs {
		cb(met)
	}
}

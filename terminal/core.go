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

package terminal

import (
	"sync"

	"github.com/nabbar/yogi/operation"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
)

// ID identifies a terminal within the endpoint that owns it.
type ID uint64

// BindingState mirrors a primitive terminal's Binding, or a convenience
// pair's implicit binding: Established once at least one matching remote
// terminal is reachable, Released otherwise.
type BindingState uint8

const (
	Released BindingState = iota
	Established
)

func (s BindingState) String() string {
	if s == Established {
		return "Established"
	}
	return "Released"
}

// SubscriptionState tracks, on the publishing side, whether any receiver
// has declared interest, and on the subscribing side, whether the
// publisher has acknowledged it.
type SubscriptionState uint8

const (
	NotSubscribed SubscriptionState = iota
	Subscribed
)

func (s SubscriptionState) String() string {
	if s == Subscribed {
		return "Subscribed"
	}
	return "NotSubscribed"
}

// Terminal is the common surface every variant exposes; family-specific
// operations (Publish, ScatterGather, master/slave sends) live on the
// concrete *Terminal methods, gated at runtime by Variant().
type Terminal interface {
	ID() ID
	Path() signature.Path
	Signature() signature.Signature
	Variant() Variant
	BindingState() BindingState
	SubscriptionState() SubscriptionState
	Close()
}

// core holds the state shared by every variant: identity, the strand that
// serializes its handler callbacks, binding/subscription bookkeeping, and
// the operation table used by the scatter/gather family.
type core struct {
	id     ID
	path   signature.Path
	sig    signature.Signature
	kind   Variant
	strand scheduler.Strand
	ops    *operation.Table

	mu                 sync.Mutex
	bindingState       BindingState
	subscriptionState  SubscriptionState
	bindingWatchers    []func(BindingState)
	subscriptionWatch  []func(SubscriptionState)
	closed             bool
}

func newCore(id ID, path signature.Path, sig signature.Signature, kind Variant, sched scheduler.Scheduler) *core {
	return &core{
		id:     id,
		path:   path,
		sig:    sig,
		kind:   kind,
		strand: sched.NewStrand(),
		ops:    operation.NewTable(),
	}
}

func (c *core) ID() ID { return c.id }

func (c *core) Path() signature.Path { return c.path }

func (c *core) Signature() signature.Signature { return c.sig }

func (c *core) Variant() Variant { return c.kind }

func (c *core) BindingState() BindingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindingState
}

func (c *core) SubscriptionState() SubscriptionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptionState
}

// OnBindingChange registers a watcher invoked (on the terminal's strand)
// whenever the binding state transitions. It is the hook the eventual
// observer package builds its BindingObserver on top of.
func (c *core) OnBindingChange(fn func(BindingState)) {
	c.mu.Lock()
	c.bindingWatchers = append(c.bindingWatchers, fn)
	c.mu.Unlock()
}

func (c *core) OnSubscriptionChange(fn func(SubscriptionState)) {
	c.mu.Lock()
	c.subscriptionWatch = append(c.subscriptionWatch, fn)
	c.mu.Unlock()
}

// setBindingState updates the binding state and, on an actual transition,
// dispatches watchers on the terminal's strand so callbacks never overlap
// with other handler invocations for this terminal.
func (c *core) setBindingState(s BindingState) {
	c.mu.Lock()
	if c.bindingState == s {
		c.mu.Unlock()
		return
	}
	c.bindingState = s
	watchers := append([]func(BindingState){}, c.bindingWatchers...)
	c.mu.Unlock()

	for _, w := range watchers {
		w := w
		c.strand.Post(func() { w(s) })
	}
}

func (c *core) setSubscriptionState(s SubscriptionState) {
	c.mu.Lock()
	if c.subscriptionState == s {
		c.mu.Unlock()
		return
	}
	c.subscriptionState = s
	watchers := append([]func(SubscriptionState){}, c.subscriptionWatch...)
	c.mu.Unlock()

	for _, w := range watchers {
		w := w
		c.strand.Post(func() { w(s) })
	}
}

func (c *core) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *core) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}

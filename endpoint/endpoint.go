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

// Package endpoint implements the two endpoint kinds terminals attach to:
// Leaf, a plain terminal container, and Node, which additionally tracks
// every terminal known to it (local and remote-announced) in a queryable
// registry.
package endpoint

import (
	"fmt"
	"sync"

	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/idgen"
	"github.com/nabbar/yogi/metrics"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
)

// ChangeType describes a known-terminals registry mutation.
type ChangeType uint8

const (
	Added ChangeType = iota
	Removed
	// Canceled is delivered to a pending AwaitKnownTerminalsChange handler
	// by CancelAwaitKnownTerminalsChange; TerminalInfo is the zero value.
	Canceled
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	case Canceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// TerminalInfo describes a terminal without exposing the object itself,
// as reported by Node.GetKnownTerminals / AwaitKnownTerminalsChange.
type TerminalInfo struct {
	Variant   terminal.Variant
	Signature signature.Signature
	Path      signature.Path
}

func key(path signature.Path, v terminal.Variant, sig signature.Signature) string {
	return fmt.Sprintf("%s|%d|%s", path, v, sig)
}

// Endpoint is the common surface of Leaf and Node: a terminal container
// bound to a single Scheduler, plus the registry of explicit Bindings
// its primitive terminals own.
type Endpoint interface {
	// ID returns the opaque identifier generated for this endpoint
	// instance at construction, e.g. for log correlation across the
	// several connections an endpoint may own over its lifetime.
	ID() string
	Scheduler() scheduler.Scheduler
	Attach(t terminal.Terminal) failure.Error
	Detach(id terminal.ID) bool
	Lookup(path signature.Path, v terminal.Variant, sig signature.Signature) (terminal.Terminal, bool)
	ByID(id terminal.ID) (terminal.Terminal, bool)
	Terminals() []terminal.Terminal

	// AttachBinding registers bd so connections can match its target
	// against remote terminals. The binding's owner must already be
	// attached to this endpoint.
	AttachBinding(bd *binding.Binding) failure.Error
	// DetachBinding destroys bd: it is removed from the registry and
	// marked Released. Reports whether it was registered.
	DetachBinding(bd *binding.Binding) bool
	// Bindings snapshots the currently registered bindings.
	Bindings() []*binding.Binding
}

// base implements attach/detach/lookup shared by Leaf and Node.
type base struct {
	id    string
	sched scheduler.Scheduler

	mu       sync.Mutex
	mx       *metrics.Collectors
	byID     map[terminal.ID]terminal.Terminal
	byKey    map[string]terminal.ID
	bindings []*binding.Binding
}

func newBase(sched scheduler.Scheduler) base {
	return base{
		id:    idgen.New(),
		sched: sched,
		byID:  make(map[terminal.ID]terminal.Terminal),
		byKey: make(map[string]terminal.ID),
	}
}

func (b *base) ID() string { return b.id }

// SetMetrics installs the collector set the terminal-count gauge is
// reported through. Optional; a nil or absent set disables reporting.
func (b *base) SetMetrics(mx *metrics.Collectors) {
	b.mu.Lock()
	b.mx = mx
	b.mu.Unlock()
}

// countLocked reports how many attached terminals share t's variant.
// Caller holds b.mu.
func (b *base) countLocked(v terminal.Variant) int {
	n := 0
	for _, t := range b.byID {
		if t.Variant() == v {
			n++
		}
	}
	return n
}

func (b *base) updateCountLocked(v terminal.Variant) {
	if b.mx != nil {
		b.mx.TerminalCount.WithLabelValues(b.id, v.String()).Set(float64(b.countLocked(v)))
	}
}

func (b *base) Scheduler() scheduler.Scheduler { return b.sched }

// Attach registers t. Fails DuplicateTerminal if this endpoint already
// owns a terminal with the identical (path, variant, signature) triple.
func (b *base) Attach(t terminal.Terminal) failure.Error {
	k := key(t.Path(), t.Variant(), t.Signature())

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byKey[k]; ok {
		return failure.New(failure.DuplicateTerminal, "terminal already attached: "+k)
	}

	b.byID[t.ID()] = t
	b.byKey[k] = t.ID()
	b.updateCountLocked(t.Variant())
	return nil
}

func (b *base) get(id terminal.ID) (terminal.Terminal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.byID[id]
	return t, ok
}

// ByID returns the terminal registered under id, if any, for transports
// that address terminals by their numeric local ID (e.g. the TCP
// discovery protocol's TerminalRef) rather than by (path, variant,
// signature).
func (b *base) ByID(id terminal.ID) (terminal.Terminal, bool) {
	return b.get(id)
}

func (b *base) Detach(id terminal.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.byID[id]
	if !ok {
		return false
	}
	delete(b.byID, id)
	delete(b.byKey, key(t.Path(), t.Variant(), t.Signature()))
	b.updateCountLocked(t.Variant())
	return true
}

func (b *base) Lookup(path signature.Path, v terminal.Variant, sig signature.Signature) (terminal.Terminal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.byKey[key(path, v, sig)]
	if !ok {
		return nil, false
	}
	t := b.byID[id]
	return t, true
}

func (b *base) Terminals() []terminal.Terminal {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]terminal.Terminal, 0, len(b.byID))
	for _, t := range b.byID {
		out = append(out, t)
	}
	return out
}

func (b *base) AttachBinding(bd *binding.Binding) failure.Error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byID[bd.Owner().ID()]; !ok {
		return failure.New(failure.InvalidHandle, "binding owner is not attached to this endpoint")
	}
	for _, existing := range b.bindings {
		if existing == bd {
			return failure.New(failure.ObjectStillUsed, "binding already attached")
		}
	}
	b.bindings = append(b.bindings, bd)
	return nil
}

func (b *base) DetachBinding(bd *binding.Binding) bool {
	b.mu.Lock()
	found := false
	for i, existing := range b.bindings {
		if existing == bd {
			b.bindings = append(b.bindings[:i:i], b.bindings[i+1:]...)
			found = true
			break
		}
	}
	b.mu.Unlock()

	if found {
		bd.MarkReleased()
	}
	return found
}

func (b *base) Bindings() []*binding.Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*binding.Binding{}, b.bindings...)
}

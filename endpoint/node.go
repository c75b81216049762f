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

package endpoint

import (
	"sync"

	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/ylog"
)

// KnownTerminalsHandler receives a single known-terminals registry change.
type KnownTerminalsHandler func(info TerminalInfo, change ChangeType)

// LocalChangeHandler receives every local terminal attach (added=true) and
// detach (added=false) on a Node, permanently. Connections register one to
// stream incremental discovery Add/Remove frames to their peer.
type LocalChangeHandler func(t terminal.Terminal, added bool)

// LocalBindingHandler is the Binding counterpart of LocalChangeHandler:
// it receives every AttachBinding/DetachBinding on a Node.
type LocalBindingHandler func(bd *binding.Binding, added bool)

// Node is an Endpoint that additionally maintains a registry of every
// terminal it knows about, local or remote-announced over a connection,
// and lets callers await the next change to that registry. The registry
// is keyed by (path, variant, signature): known holds the records, order
// is the insertion-ordered key sequence GetKnownTerminals walks so its
// snapshot comes back ordered as discovered.
type Node struct {
	base

	log ylog.Logger

	mu        sync.Mutex
	known     map[string]TerminalInfo
	order     []string
	pending   KnownTerminalsHandler
	onLocal   []LocalChangeHandler
	onBinding []LocalBindingHandler
}

// NewNode constructs a Node. log may be nil, in which case signature
// mismatches between same-named terminals are silently dropped instead of
// logged as a diagnostic.
func NewNode(sched scheduler.Scheduler, log ylog.Logger) *Node {
	return &Node{
		base:  newBase(sched),
		log:   log,
		known: make(map[string]TerminalInfo),
	}
}

// Attach registers a local terminal both in the plain terminal table and
// in the known-terminals registry, notifying any pending await.
func (n *Node) Attach(t terminal.Terminal) failure.Error {
	if err := n.base.Attach(t); err != nil {
		return err
	}

	info := TerminalInfo{Variant: t.Variant(), Signature: t.Signature(), Path: t.Path()}
	n.addKnown(info)
	n.notifyLocal(t, true)
	return nil
}

func (n *Node) Detach(id terminal.ID) bool {
	t, ok := n.base.get(id)
	if !ok {
		return false
	}

	removed := n.base.Detach(id)
	if removed {
		n.removeKnown(TerminalInfo{Variant: t.Variant(), Signature: t.Signature(), Path: t.Path()})
		n.notifyLocal(t, false)
	}
	return removed
}

// OnLocalChange registers fn permanently: it fires on every subsequent
// local terminal attach and detach. Transports use it to stream
// incremental discovery updates for terminals created mid-connection.
func (n *Node) OnLocalChange(fn LocalChangeHandler) {
	n.mu.Lock()
	n.onLocal = append(n.onLocal, fn)
	n.mu.Unlock()
}

func (n *Node) notifyLocal(t terminal.Terminal, added bool) {
	n.mu.Lock()
	watchers := append([]LocalChangeHandler{}, n.onLocal...)
	n.mu.Unlock()

	for _, w := range watchers {
		w(t, added)
	}
}

// AttachBinding registers bd and notifies OnLocalBinding watchers, so an
// attached connection can announce the new target interest to its peer.
func (n *Node) AttachBinding(bd *binding.Binding) failure.Error {
	if err := n.base.AttachBinding(bd); err != nil {
		return err
	}
	n.notifyBinding(bd, true)
	return nil
}

func (n *Node) DetachBinding(bd *binding.Binding) bool {
	removed := n.base.DetachBinding(bd)
	if removed {
		n.notifyBinding(bd, false)
	}
	return removed
}

// OnLocalBinding registers fn permanently: it fires on every subsequent
// AttachBinding and DetachBinding.
func (n *Node) OnLocalBinding(fn LocalBindingHandler) {
	n.mu.Lock()
	n.onBinding = append(n.onBinding, fn)
	n.mu.Unlock()
}

func (n *Node) notifyBinding(bd *binding.Binding, added bool) {
	n.mu.Lock()
	watchers := append([]LocalBindingHandler{}, n.onBinding...)
	n.mu.Unlock()

	for _, w := range watchers {
		w(bd, added)
	}
}

// AddKnownTerminal records a remote-announced terminal. If another known
// terminal shares the same Path but not the same Signature, this logs a
// SignatureMismatch diagnostic and still records the new entry: no
// binding ever results between mismatched signatures, but the registry
// itself stays a faithful record of what exists.
func (n *Node) AddKnownTerminal(info TerminalInfo) {
	n.mu.Lock()
	for _, other := range n.known {
		if other.Path == info.Path && other.Signature != info.Signature {
			if n.log != nil {
				n.log.Warning("signature mismatch on terminal path", ylog.Fields{
					"node_id":          n.ID(),
					"path":             string(info.Path),
					"signature_local":  other.Signature.String(),
					"signature_remote": info.Signature.String(),
					"failure_code":     failure.SignatureMismatch.String(),
				})
			}
			break
		}
	}
	n.mu.Unlock()

	n.addKnown(info)
}

func (n *Node) RemoveKnownTerminal(info TerminalInfo) {
	n.removeKnown(info)
}

func (n *Node) addKnown(info TerminalInfo) {
	k := key(info.Path, info.Variant, info.Signature)

	n.mu.Lock()
	_, existed := n.known[k]
	if !existed {
		n.order = append(n.order, k)
	}
	n.known[k] = info
	var h KnownTerminalsHandler
	if !existed {
		h = n.pending
		n.pending = nil
	}
	n.mu.Unlock()

	if h != nil {
		h(info, Added)
	}
}

func (n *Node) removeKnown(info TerminalInfo) {
	k := key(info.Path, info.Variant, info.Signature)

	n.mu.Lock()
	if _, ok := n.known[k]; !ok {
		n.mu.Unlock()
		return
	}
	delete(n.known, k)
	n.order = removeOrderKey(n.order, k)
	h := n.pending
	n.pending = nil
	n.mu.Unlock()

	if h != nil {
		h(info, Removed)
	}
}

// removeOrderKey returns order with k's first occurrence removed,
// preserving the relative order of every other key.
func removeOrderKey(order []string, k string) []string {
	for i, candidate := range order {
		if candidate == k {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}

// GetKnownTerminals returns a snapshot of every terminal currently known
// to this node, local or remote, ordered by the sequence in which each
// was first added.
func (n *Node) GetKnownTerminals() []TerminalInfo {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]TerminalInfo, 0, len(n.order))
	for _, k := range n.order {
		if v, ok := n.known[k]; ok {
			out = append(out, v)
		}
	}
	return out
}

// AwaitKnownTerminalsChange delivers the next registry addition or
// removal to handler, exactly once. At most one such await may be
// outstanding per node; issuing another while one is pending fails Busy.
func (n *Node) AwaitKnownTerminalsChange(handler KnownTerminalsHandler) failure.Error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pending != nil {
		return failure.New(failure.Busy, "known terminals change already pending")
	}
	n.pending = handler
	return nil
}

// CancelAwaitKnownTerminalsChange delivers a Canceled failure to the
// pending handler, if any, and returns whether one was outstanding.
func (n *Node) CancelAwaitKnownTerminalsChange() bool {
	n.mu.Lock()
	h := n.pending
	n.pending = nil
	n.mu.Unlock()

	if h == nil {
		return false
	}
	h(TerminalInfo{}, Canceled)
	return true
}

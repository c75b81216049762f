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

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/wire"
)

// MessageHandler receives the result of a single ReceiveMessage await.
// cached is true iff this delivery is a cached variant's replay of its
// last payload right after binding was established, rather than a live
// publish.
type MessageHandler func(err failure.Error, msg wire.Message, cached bool)

// PubSubTerminal implements every one-schema publish/subscribe variant:
// PublishSubscribe, CachedPublishSubscribe, Producer/Consumer,
// CachedProducer/CachedConsumer, and Master/Slave/CachedMaster/CachedSlave
// (whose two schemas are, at the wire level, just two independently bound
// instances of this same shape). DeafMute and the scatter/gather family
// use their own types.
type PubSubTerminal struct {
	*core

	mu      sync.Mutex
	tx      Transmitter
	cache   *wire.Message
	pending MessageHandler
}

// NewPubSub constructs a terminal for kind, which must support at least
// one direction of plain publish/subscribe traffic.
func NewPubSub(id ID, path signature.Path, sig signature.Signature, kind Variant, sched scheduler.Scheduler) (*PubSubTerminal, failure.Error) {
	if kind.IsScatterGather() || kind == DeafMute {
		return nil, failure.New(failure.InvalidParam, "variant "+kind.String()+" does not use PubSubTerminal")
	}
	return &PubSubTerminal{core: newCore(id, path, sig, kind, sched)}, nil
}

// BindTransmitter installs tx as the destination for this terminal's
// publishes and marks the binding Established. Called by the owning
// endpoint once a matching remote terminal becomes reachable. The
// subscription state tracks the same event here: on the publishing side
// it means a receiver has declared interest, on the subscribing side
// that the publisher acknowledges it, and in this kernel both sides of
// a match are wired in the same call.
func (t *PubSubTerminal) BindTransmitter(tx Transmitter) {
	t.mu.Lock()
	t.tx = tx
	t.mu.Unlock()
	t.setBindingState(Established)
	t.setSubscriptionState(Subscribed)
}

// UnbindTransmitter removes the current transmitter and marks the binding
// Released, e.g. when the last matching remote terminal disappears.
func (t *PubSubTerminal) UnbindTransmitter() {
	t.mu.Lock()
	t.tx = nil
	t.mu.Unlock()
	t.setBindingState(Released)
	t.setSubscriptionState(NotSubscribed)
}

// Publish sends msg to every currently bound receiver, updating the local
// cache for cached variants. Fails NotBound if nothing is bound, and
// TxQueueFull when the connection's transmit queue is at capacity.
func (t *PubSubTerminal) Publish(msg wire.Message) failure.Error {
	return t.publish(msg, false)
}

// PublishWait is the retry form of Publish: on a full transmit queue it
// suspends the caller until space frees or the connection dies, instead
// of failing TxQueueFull.
func (t *PubSubTerminal) PublishWait(msg wire.Message) failure.Error {
	return t.publish(msg, true)
}

func (t *PubSubTerminal) publish(msg wire.Message, retry bool) failure.Error {
	if !t.Variant().CanPublish() {
		return failure.New(failure.InvalidParam, "variant "+t.Variant().String()+" cannot publish")
	}

	t.mu.Lock()
	tx := t.tx
	if t.Variant().IsCached() {
		cp := msg.Clone()
		t.cache = &cp
	}
	t.mu.Unlock()

	if tx == nil {
		return failure.New(failure.NotBound, "no recipient bound")
	}

	if err := tx.Send(msg, retry); err != nil {
		return failure.FromError(err)
	}
	return nil
}

// TryPublish behaves like Publish but reports failure as a bool instead
// of an error, per the non-raising convenience form.
func (t *PubSubTerminal) TryPublish(msg wire.Message) bool {
	return t.Publish(msg) == nil
}

// ReceiveMessage arranges for handler to be invoked exactly once with the
// next inbound message. A second call before the first fires replaces the
// still-pending handler (the prior caller never sees a result), matching
// the single-shot "repost inside the handler" idiom.
func (t *PubSubTerminal) ReceiveMessage(handler MessageHandler) failure.Error {
	if !t.Variant().CanReceive() {
		return failure.New(failure.InvalidParam, "variant "+t.Variant().String()+" cannot receive")
	}

	t.mu.Lock()
	t.pending = handler
	t.mu.Unlock()
	return nil
}

// CancelReceiveMessage delivers Canceled to the pending handler, if any,
// and reports whether one was in fact outstanding.
func (t *PubSubTerminal) CancelReceiveMessage() bool {
	t.mu.Lock()
	h := t.pending
	t.pending = nil
	t.mu.Unlock()

	if h == nil {
		return false
	}
	t.strand.Post(func() {
		h(failure.New(failure.Canceled, "receive canceled"), wire.Message{}, false)
	})
	return true
}

// GetCachedMessage returns the last payload seen by a cached variant.
func (t *PubSubTerminal) GetCachedMessage() (wire.Message, failure.Error) {
	if !t.Variant().IsCached() {
		return wire.Message{}, failure.New(failure.InvalidParam, "variant "+t.Variant().String()+" does not cache")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cache == nil {
		return wire.Message{}, failure.New(failure.NoCachedMessage, "no message cached yet")
	}
	return t.cache.Clone(), nil
}

// Deliver is invoked by the owning endpoint/connection when an inbound
// message for this terminal arrives. cached marks a replay sent right
// after binding establishment. It updates the cache for cached variants
// and fires (at most) the single pending ReceiveMessage handler.
func (t *PubSubTerminal) Deliver(msg wire.Message, cached bool) {
	t.mu.Lock()
	if t.Variant().IsCached() {
		cp := msg.Clone()
		t.cache = &cp
	}
	h := t.pending
	t.pending = nil
	t.mu.Unlock()

	if h == nil {
		return
	}
	t.strand.Post(func() { h(nil, msg, cached) })
}

// Close releases the terminal's transmitter and cancels any pending
// receive, leaving it unusable.
func (t *PubSubTerminal) Close() {
	if !t.markClosed() {
		return
	}
	t.CancelReceiveMessage()
	t.UnbindTransmitter()
}

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

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

// PubSubSource is the subset of PubSubTerminal's surface a (publish-based)
// MessageObserver needs to re-arm its single-shot receive on every
// delivery.
type PubSubSource interface {
	ReceiveMessage(terminal.MessageHandler) failure.Error
	CancelReceiveMessage() bool
}

// cachedSource is satisfied by cached PubSubTerminal variants; a
// MessageObserver uses it, when present, to deliver the last cached
// payload as Start's initial snapshot instead of waiting for the first
// live or replayed message.
type cachedSource interface {
	GetCachedMessage() (wire.Message, failure.Error)
}

// MessageCallback receives one delivered message; cached marks a
// cached-variant replay sent right after binding establishment.
type MessageCallback func(msg wire.Message, cached bool)

// MessageObserver is the publish-based observer mode: many callbacks
// via Add/Remove, fed by repeatedly
// re-arming the terminal's single-shot ReceiveMessage for as long as the
// observer is running.
type MessageObserver struct {
	src PubSubSource

	mu        sync.Mutex
	callbacks map[CallbackId]MessageCallback
	running   bool
	destroyed bool
}

// NewMessageObserver constructs a publish-based MessageObserver over src.
// It does not arm a receive until Start is called.
func NewMessageObserver(src PubSubSource) *MessageObserver {
	return &MessageObserver{src: src, callbacks: make(map[CallbackId]MessageCallback)}
}

// Add registers cb, returning an id usable with Remove.
func (o *MessageObserver) Add(cb MessageCallback) CallbackId {
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
func (o *MessageObserver) Remove(id CallbackId) {
	o.mu.Lock()
	delete(o.callbacks, id)
	o.mu.Unlock()
}

// Start fires every callback once with the terminal's last cached payload
// (if src is a cached variant and holds one), then arms the underlying
// receive so every subsequent message is fanned out the same way until
// Stop.
func (o *MessageObserver) Start() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.running = true
	cbs := o.snapshotLocked()
	o.mu.Unlock()

	if cs, ok := o.src.(cachedSource); ok {
		if msg, err := cs.GetCachedMessage(); err == nil {
			for _, cb := range cbs {
				cb(msg, true)
			}
		}
	}

	_ = o.src.ReceiveMessage(o.dispatch)
}

// Stop cancels the outstanding receive and suppresses further delivery;
// registered callbacks are kept for a later Start.
func (o *MessageObserver) Stop() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
	o.src.CancelReceiveMessage()
}

// Destroy guarantees no further callback fires after it returns.
func (o *MessageObserver) Destroy() {
	o.mu.Lock()
	o.destroyed = true
	o.running = false
	o.callbacks = nil
	o.mu.Unlock()
	o.src.CancelReceiveMessage()
}

func (o *MessageObserver) snapshotLocked() []MessageCallback {
	out := make([]MessageCallback, 0, len(o.callbacks))
	for _, cb := range o.callbacks {
		out = append(out, cb)
	}
	return out
}

func (o *MessageObserver) dispatch(err failure.Error, msg wire.Message, cached bool) {
	o.mu.Lock()
	if o.destroyed || !o.running {
		o.mu.Unlock()
		return
	}
	cbs := o.snapshotLocked()
	o.mu.Unlock()

	if err != nil {
		// Canceled by our own Stop/Destroy racing the delivery; do not
		// re-arm and do not surface the cancellation to callbacks, which
		// only ever see successful deliveries.
		return
	}

	for _, cb := range cbs {
		cb(msg, cached)
	}

	_ = o.src.ReceiveMessage(o.dispatch)
}

// ScatterSource is the subset of ScatterGatherTerminal's surface the
// scatter/request-based MessageObserver needs.
type ScatterSource interface {
	ReceiveScatteredMessage(func(*terminal.ScatteredMessage)) failure.Error
	CancelReceiveScatteredMessage() bool
}

// ScatterMessageObserver is the scatter/request-based observer mode: a
// single handler via Set/Clear. When no handler is set and a scattered
// message arrives, the underlying terminal auto-ignores it -- this type
// does not need to duplicate that behaviour, only to install and remove
// the handler.
type ScatterMessageObserver struct {
	src ScatterSource

	mu        sync.Mutex
	handler   func(*terminal.ScatteredMessage)
	running   bool
	destroyed bool
}

// NewScatterMessageObserver constructs the scatter/request-based mode
// over src.
func NewScatterMessageObserver(src ScatterSource) *ScatterMessageObserver {
	return &ScatterMessageObserver{src: src}
}

// Set installs handler as the single active callback, replacing any
// previous one. If the observer is running, it takes effect immediately.
func (o *ScatterMessageObserver) Set(handler func(*terminal.ScatteredMessage)) {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.handler = handler
	running := o.running
	o.mu.Unlock()

	if running {
		_ = o.src.ReceiveScatteredMessage(handler)
	}
}

// Clear removes the active handler; while cleared, inbound scattered
// messages are auto-ignored by the terminal.
func (o *ScatterMessageObserver) Clear() {
	o.mu.Lock()
	o.handler = nil
	running := o.running
	o.mu.Unlock()

	if running {
		o.src.CancelReceiveScatteredMessage()
	}
}

// Start installs the currently set handler, if any.
func (o *ScatterMessageObserver) Start() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.running = true
	h := o.handler
	o.mu.Unlock()

	if h != nil {
		_ = o.src.ReceiveScatteredMessage(h)
	}
}

// Stop removes the installed handler without discarding it; a later
// Start reinstalls it.
func (o *ScatterMessageObserver) Stop() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
	o.src.CancelReceiveScatteredMessage()
}

// Destroy guarantees no further callback fires after it returns.
func (o *ScatterMessageObserver) Destroy() {
	o.mu.Lock()
	o.destroyed = true
	o.running = false
	o.handler = nil
	o.mu.Unlock()
	o.src.CancelReceiveScatteredMessage()
}

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
	"time"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/operation"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/wire"
)

// Action is the return value of a GatherHandler, telling the terminal
// whether to keep waiting for more responses or to end the operation now.
type Action uint8

const (
	Continue Action = iota
	Stop
)

// GatherResult is delivered to a GatherHandler for each inbound response
// to a scatter or request. Exactly one of the flags besides Finished
// describes why no payload accompanies this delivery; Err is non-nil only
// for Canceled/Timeout-style terminal outcomes.
type GatherResult struct {
	Message          wire.Message
	Finished         bool
	Ignored          bool
	Deaf             bool
	BindingDestroyed bool
	ConnectionLost   bool
	Err              failure.Error
}

// GatherHandler processes one response to an initiated scatter/request.
type GatherHandler func(GatherResult) Action

// ScatterTransmitter is the narrow interface a ScatterGatherTerminal uses
// to put operations on the wire; the endpoint/connection layer implements
// it once a matching remote terminal is bound.
type ScatterTransmitter interface {
	SendScatter(id operation.ID, msg wire.Message) error
	SendResponse(id operation.ID, msg wire.Message) error
	SendIgnore(id operation.ID) error
	CancelOperation(id operation.ID) error
}

// ScatteredMessage is handed to the receiving side's handler for each
// inbound scatter/request. Exactly one of Respond or Ignore must be
// called; a second call on either fails InvalidOperationId.
type ScatteredMessage struct {
	mu          sync.Mutex
	id          operation.ID
	payload     wire.Message
	transmitter ScatterTransmitter
	settled     bool
}

func (s *ScatteredMessage) OperationID() operation.ID { return s.id }

func (s *ScatteredMessage) Payload() wire.Message { return s.payload }

func (s *ScatteredMessage) Respond(payload wire.Message) failure.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		return failure.New(failure.InvalidOperationId, "scattered message already settled")
	}
	s.settled = true
	if err := s.transmitter.SendResponse(s.id, payload); err != nil {
		return failure.FromError(err)
	}
	return nil
}

func (s *ScatteredMessage) Ignore() failure.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		return failure.New(failure.InvalidOperationId, "scattered message already settled")
	}
	s.settled = true
	if err := s.transmitter.SendIgnore(s.id); err != nil {
		return failure.FromError(err)
	}
	return nil
}

type scatterOp struct {
	handler  GatherHandler
	expected int
	replied  int
}

// ScatterGatherTerminal implements the symmetric ScatterGather variant
// and the asymmetric Client/Service pair, which share the same
// operation-id protocol and differ only in cardinality (Service/Client
// always address a single matched peer).
type ScatterGatherTerminal struct {
	*core

	mu      sync.Mutex
	tx      ScatterTransmitter
	pending map[operation.ID]*scatterOp
	onRecv  func(*ScatteredMessage)
}

func NewScatterGather(id ID, path signature.Path, sig signature.Signature, kind Variant, sched scheduler.Scheduler) (*ScatterGatherTerminal, failure.Error) {
	if !kind.IsScatterGather() {
		return nil, failure.New(failure.InvalidParam, "variant "+kind.String()+" is not a scatter/gather terminal")
	}
	return &ScatterGatherTerminal{
		core:    newCore(id, path, sig, kind, sched),
		pending: make(map[operation.ID]*scatterOp),
	}, nil
}

func (t *ScatterGatherTerminal) BindTransmitter(tx ScatterTransmitter) {
	t.mu.Lock()
	t.tx = tx
	t.mu.Unlock()
	t.setBindingState(Established)
}

func (t *ScatterGatherTerminal) UnbindTransmitter() {
	t.mu.Lock()
	t.tx = nil
	pending := t.pending
	t.pending = make(map[operation.ID]*scatterOp)
	t.mu.Unlock()

	for id, op := range pending {
		t.finish(id, op, GatherResult{Finished: true, ConnectionLost: true})
	}
	t.setBindingState(Released)
}

// ScatterGather initiates a scatter (Variant ScatterGather) or a request
// (Variant Client, which always expects exactly one reply). handler is
// invoked once per inbound response until it returns Stop or the
// operation otherwise completes.
func (t *ScatterGatherTerminal) ScatterGather(msg wire.Message, expected int, deadline time.Time, handler GatherHandler) (operation.ID, failure.Error) {
	switch t.Variant() {
	case ScatterGather:
	case Client:
		expected = 1
	default:
		return 0, failure.New(failure.InvalidParam, "variant "+t.Variant().String()+" cannot initiate")
	}

	t.mu.Lock()
	tx := t.tx
	t.mu.Unlock()
	if tx == nil {
		return 0, failure.New(failure.NotBound, "no recipient bound")
	}

	op := t.ops.Begin(expected, deadline)
	t.mu.Lock()
	t.pending[op.ID] = &scatterOp{handler: handler, expected: expected}
	t.mu.Unlock()

	if err := tx.SendScatter(op.ID, msg); err != nil {
		t.mu.Lock()
		delete(t.pending, op.ID)
		t.mu.Unlock()
		_ = t.ops.Finish(op.ID)
		return 0, failure.FromError(err)
	}

	return op.ID, nil
}

// Request is Client/Service sugar for ScatterGather with a single
// expected reply.
func (t *ScatterGatherTerminal) Request(msg wire.Message, deadline time.Time, handler GatherHandler) (operation.ID, failure.Error) {
	return t.ScatterGather(msg, 1, deadline, handler)
}

// CancelScatterGather delivers Canceled to the operation's handler and
// disposes its record. Returns false if id is not outstanding.
func (t *ScatterGatherTerminal) CancelScatterGather(id operation.ID) bool {
	t.mu.Lock()
	op, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	tx := t.tx
	t.mu.Unlock()

	if !ok {
		return false
	}

	if tx != nil {
		_ = tx.CancelOperation(id)
	}
	t.finish(id, op, GatherResult{Finished: true, Err: failure.New(failure.Canceled, "scatter/gather canceled")})
	return true
}

// CancelRequest is the Client/Service name for CancelScatterGather.
func (t *ScatterGatherTerminal) CancelRequest(id operation.ID) bool {
	return t.CancelScatterGather(id)
}

// DeliverGatherResult feeds one inbound response to the matching
// operation's handler, completing and removing the operation once the
// handler says Stop or every expected responder has sent its Finished
// response. A responder streaming partial (non-Finished) gathers never
// advances the completion count.
func (t *ScatterGatherTerminal) DeliverGatherResult(id operation.ID, result GatherResult) {
	t.mu.Lock()
	op, ok := t.pending[id]
	t.mu.Unlock()
	if !ok {
		return
	}

	t.strand.Post(func() {
		action := op.handler(result)

		complete := false
		if result.Finished {
			complete, _ = t.ops.RecordReply(id)
		}
		terminal := action == Stop || complete || result.BindingDestroyed || result.ConnectionLost

		if terminal {
			t.mu.Lock()
			delete(t.pending, id)
			t.mu.Unlock()
			_ = t.ops.Finish(id)
		}
	})
}

func (t *ScatterGatherTerminal) finish(id operation.ID, op *scatterOp, result GatherResult) {
	t.strand.Post(func() { op.handler(result) })
	_ = t.ops.Finish(id)
}

// OutstandingOperations reports how many initiated operations have not
// yet completed, e.g. for the yogi_operations_outstanding gauge.
func (t *ScatterGatherTerminal) OutstandingOperations() int {
	return t.ops.Count()
}

// ReceiveScatteredMessage installs the persistent handler invoked for
// every inbound scatter/request. Valid for ScatterGather and Service.
func (t *ScatterGatherTerminal) ReceiveScatteredMessage(handler func(*ScatteredMessage)) failure.Error {
	switch t.Variant() {
	case ScatterGather, Service:
	default:
		return failure.New(failure.InvalidParam, "variant "+t.Variant().String()+" cannot receive scattered messages")
	}

	t.mu.Lock()
	t.onRecv = handler
	t.mu.Unlock()
	return nil
}

// ReceiveRequest is the Client/Service name for ReceiveScatteredMessage.
func (t *ScatterGatherTerminal) ReceiveRequest(handler func(*ScatteredMessage)) failure.Error {
	return t.ReceiveScatteredMessage(handler)
}

// CancelReceiveScatteredMessage clears the persistent receive handler.
func (t *ScatterGatherTerminal) CancelReceiveScatteredMessage() bool {
	t.mu.Lock()
	had := t.onRecv != nil
	t.onRecv = nil
	t.mu.Unlock()
	return had
}

// CancelReceiveRequest is the Client/Service name for
// CancelReceiveScatteredMessage.
func (t *ScatterGatherTerminal) CancelReceiveRequest() bool {
	return t.CancelReceiveScatteredMessage()
}

// DeliverScatter is invoked by the endpoint/connection layer when an
// inbound scatter/request frame for this terminal arrives. With no
// handler installed, it auto-ignores so the initiator observes Deaf
// instead of leaking the operation.
func (t *ScatterGatherTerminal) DeliverScatter(id operation.ID, payload wire.Message, tx ScatterTransmitter) {
	t.mu.Lock()
	h := t.onRecv
	t.mu.Unlock()

	sm := &ScatteredMessage{id: id, payload: payload, transmitter: tx}

	if h == nil {
		_ = sm.Ignore()
		return
	}
	t.strand.Post(func() { h(sm) })
}

func (t *ScatterGatherTerminal) Close() {
	if !t.markClosed() {
		return
	}
	t.CancelReceiveScatteredMessage()
	t.UnbindTransmitter()
}

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

// Package local wires two endpoints together directly, in-process, with
// no framing, handshake, or timeout: the shortcut for two endpoints
// sharing one process.
package local

import (
	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/connection"
	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/operation"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

// Connection is a direct, instantly-Alive link between two endpoints. It
// has nothing to assign and no death to await beyond either endpoint's
// own terminals closing one at a time, so its Base never leaves Alive.
type Connection struct {
	*connection.Base

	a, b endpoint.Endpoint
}

// New links a and b, wiring every currently matching terminal pair, and
// returns the connection already Alive. Call Rescan after attaching more
// terminals to either endpoint to pick up new matches.
func New(a, b endpoint.Endpoint) *Connection {
	c := &Connection{
		Base: connection.NewBase("local"),
		a:    a,
		b:    b,
	}
	c.SetAlive()
	c.Rescan()
	return c
}

func pairsWith(v terminal.Variant) terminal.Variant {
	switch v {
	case terminal.Producer:
		return terminal.Consumer
	case terminal.Consumer:
		return terminal.Producer
	case terminal.CachedProducer:
		return terminal.CachedConsumer
	case terminal.CachedConsumer:
		return terminal.CachedProducer
	case terminal.Master:
		return terminal.Slave
	case terminal.Slave:
		return terminal.Master
	case terminal.CachedMaster:
		return terminal.CachedSlave
	case terminal.CachedSlave:
		return terminal.CachedMaster
	case terminal.Service:
		return terminal.Client
	case terminal.Client:
		return terminal.Service
	default:
		return v
	}
}

// Rescan re-walks both endpoints' terminal tables and binding
// registries and wires every matching pair that is not already bound.
// It is idempotent: terminals and bindings already Established are left
// alone.
func (c *Connection) Rescan() {
	for _, ta := range c.a.Terminals() {
		if ta.BindingState() == terminal.Established {
			continue
		}
		want := pairsWith(ta.Variant())
		tb, ok := c.b.Lookup(ta.Path(), want, ta.Signature())
		if !ok {
			continue
		}
		wire2(ta, tb)
	}

	for _, bd := range c.a.Bindings() {
		wireBinding(bd, c.b)
	}
	for _, bd := range c.b.Bindings() {
		wireBinding(bd, c.a)
	}
}

// wireBinding matches bd's target against peer's terminals: a primitive
// terminal at the target path with the owner's own variant and signature
// (primitives are symmetric, so the counterpart variant is the same).
func wireBinding(bd *binding.Binding, peer endpoint.Endpoint) {
	if bd.BindingState() == terminal.Established {
		return
	}

	owner := bd.Owner()
	tb, ok := peer.Lookup(bd.TargetPath(), owner.Variant(), owner.Signature())
	if !ok {
		return
	}

	if owner.BindingState() != terminal.Established {
		wire2(owner, tb)
	}
	bd.MarkEstablished()
}

// wire2 binds a matched pair in both directions. Capability checks in
// PubSubTerminal/ScatterGatherTerminal make wiring the unused direction
// harmless (e.g. a Consumer's outbound transmitter is installed but
// Publish on a Consumer always fails before it is ever used).
func wire2(ta, tb terminal.Terminal) {
	switch x := ta.(type) {
	case *terminal.PubSubTerminal:
		y, ok := tb.(*terminal.PubSubTerminal)
		if !ok {
			return
		}
		x.BindTransmitter(terminal.TransmitterFunc(func(msg wire.Message, _ bool) error {
			y.Deliver(msg, false)
			return nil
		}))
		y.BindTransmitter(terminal.TransmitterFunc(func(msg wire.Message, _ bool) error {
			x.Deliver(msg, false)
			return nil
		}))
		if cm, err := x.GetCachedMessage(); err == nil {
			y.Deliver(cm, true)
		}
		if cm, err := y.GetCachedMessage(); err == nil {
			x.Deliver(cm, true)
		}
	case *terminal.ScatterGatherTerminal:
		y, ok := tb.(*terminal.ScatterGatherTerminal)
		if !ok {
			return
		}
		x.BindTransmitter(newLocalScatterTx(x, y))
		y.BindTransmitter(newLocalScatterTx(y, x))
	case *terminal.DeafMuteTerminal:
		y, ok := tb.(*terminal.DeafMuteTerminal)
		if !ok {
			return
		}
		x.MarkBound()
		y.MarkBound()
	}
}

// localScatterTx forwards one ScatterGatherTerminal's outbound traffic
// directly into its peer's Deliver* entry points.
type localScatterTx struct {
	from *terminal.ScatterGatherTerminal
	to   *terminal.ScatterGatherTerminal
}

func newLocalScatterTx(from, to *terminal.ScatterGatherTerminal) *localScatterTx {
	return &localScatterTx{from: from, to: to}
}

func (l *localScatterTx) SendScatter(id operation.ID, msg wire.Message) error {
	l.to.DeliverScatter(id, msg, &localScatterTx{from: l.to, to: l.from})
	return nil
}

func (l *localScatterTx) SendResponse(id operation.ID, msg wire.Message) error {
	l.to.DeliverGatherResult(id, terminal.GatherResult{Message: msg, Finished: true})
	return nil
}

func (l *localScatterTx) SendIgnore(id operation.ID) error {
	l.to.DeliverGatherResult(id, terminal.GatherResult{Ignored: true, Finished: true})
	return nil
}

func (l *localScatterTx) CancelOperation(id operation.ID) error {
	return nil
}

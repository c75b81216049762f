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

package tcp

import (
	"bufio"
	"bytes"
	"sync"

	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/operation"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

// NodeBridge wires a handshaken Connection to an endpoint.Node: it
// announces the node's terminals over the wire as a discovery catalogue,
// tracks the peer's own catalogue, binds matching pairs the way
// connection/local's pairsWith/wire2 do for the in-process shortcut, and
// dispatches inbound Publish/Scatter/Response frames to the right local
// terminal. TerminalRef on a frame is always the receiving side's own
// local terminal id, so no remote-to-local ref translation table is
// needed on the decode path; the bridge keeps one only to translate a
// local terminal id to the peer's ref on the way out.
type NodeBridge struct {
	node *endpoint.Node
	conn *Connection

	mu        sync.Mutex
	peerRef   map[terminal.ID]uint32 // local terminal id -> peer's ref for it
	byPeerRef map[uint32]terminal.ID // peer's ref -> local terminal id (== peer's TerminalRef on inbound frames)
	bound     map[terminal.ID]struct{}
	peerCat   map[uint32]wire.DiscoveryRecord // peer's ref -> its announced record, matched or not
}

// NewNodeBridge installs itself as conn's Dispatcher and returns the
// bridge (frames the peer sent before this point are replayed by
// SetDispatcher, so constructing the bridge after Handshake is safe).
// Call Announce once Handshake has succeeded to send the initial
// discovery catalogue.
func NewNodeBridge(node *endpoint.Node, conn *Connection) *NodeBridge {
	b := &NodeBridge{
		node:      node,
		conn:      conn,
		peerRef:   make(map[terminal.ID]uint32),
		byPeerRef: make(map[uint32]terminal.ID),
		bound:     make(map[terminal.ID]struct{}),
		peerCat:   make(map[uint32]wire.DiscoveryRecord),
	}
	node.OnLocalChange(b.onLocalChange)
	node.OnLocalBinding(b.onLocalBinding)
	conn.SetDispatcher(DispatcherFunc(b.dispatch))
	return b
}

// onLocalChange streams an incremental Add/Remove frame for a terminal
// attached or detached mid-connection, and on attach checks the peer's
// already-announced catalogue for a match that could not bind earlier
// because this side's terminal did not exist yet.
func (b *NodeBridge) onLocalChange(t terminal.Terminal, added bool) {
	if !added {
		b.sendRecord(wire.TagRemove, t)

		b.mu.Lock()
		ref, matched := b.peerRef[t.ID()]
		delete(b.peerRef, t.ID())
		delete(b.bound, t.ID())
		if matched {
			delete(b.byPeerRef, ref)
		}
		b.mu.Unlock()
		return
	}

	b.announce(t)
	b.tryMatch(t)
}

// onLocalBinding announces a newly attached Binding to the peer as a
// discovery record at its target path, carrying the owner's variant,
// signature, and terminal ref. To the peer it is indistinguishable from
// a terminal living at that path, so its matching and frame addressing
// need no special casing.
func (b *NodeBridge) onLocalBinding(bd *binding.Binding, added bool) {
	if !added {
		b.sendBindingRecord(wire.TagRemove, bd)
		return
	}
	b.sendBindingRecord(wire.TagAdd, bd)
	b.tryMatchBinding(bd)
}

func (b *NodeBridge) sendBindingRecord(tag wire.Tag, bd *binding.Binding) {
	owner := bd.Owner()
	var buf bytes.Buffer
	_ = wire.WriteDiscoveryRecord(&buf, wire.DiscoveryRecord{
		Variant:   wire.VariantTag(owner.Variant()),
		Signature: owner.Signature().Raw(),
		Name:      bd.TargetPath().String(),
		Ref:       uint32(owner.ID()),
	})
	_ = b.conn.Send(wire.Frame{Tag: tag, Payload: buf.Bytes()})
}

// tryMatchBinding scans the peer catalogue for a record matching bd's
// target: a primitive terminal (or the far end of another binding) at
// the target path with the owner's own variant and signature. The owner
// terminal is wired at most once; the binding's own state is marked
// Established either way.
func (b *NodeBridge) tryMatchBinding(bd *binding.Binding) {
	owner := bd.Owner()

	b.mu.Lock()
	found := false
	var peer uint32
	for ref, rec := range b.peerCat {
		if terminal.Variant(rec.Variant) == owner.Variant() &&
			rec.Name == bd.TargetPath().String() &&
			signature.Signature(rec.Signature) == owner.Signature() {
			found = true
			peer = ref
			break
		}
	}
	if !found {
		b.mu.Unlock()
		return
	}

	_, already := b.bound[owner.ID()]
	if !already {
		b.peerRef[owner.ID()] = peer
		b.byPeerRef[peer] = owner.ID()
		b.bound[owner.ID()] = struct{}{}
	}
	b.mu.Unlock()

	if !already {
		b.bindLocal(owner)
	}
	bd.MarkEstablished()
}

// tryMatch scans the peer catalogue for a record pairing with t and binds
// it. Safe to call redundantly: an already-bound terminal is left alone.
func (b *NodeBridge) tryMatch(t terminal.Terminal) {
	b.mu.Lock()
	if _, already := b.bound[t.ID()]; already {
		b.mu.Unlock()
		return
	}

	found := false
	var peer uint32
	for ref, rec := range b.peerCat {
		if terminal.Variant(rec.Variant) == pairsWith(t.Variant()) &&
			rec.Name == t.Path().String() &&
			signature.Signature(rec.Signature) == t.Signature() {
			found = true
			peer = ref
			break
		}
	}
	if found {
		b.peerRef[t.ID()] = peer
		b.byPeerRef[peer] = t.ID()
		b.bound[t.ID()] = struct{}{}
	}
	b.mu.Unlock()

	if found {
		b.bindLocal(t)
	}
}

// Announce sends this bridge's node's current terminal catalogue. Must be
// called after Handshake succeeds (the transmit queue it uses is built
// there).
func (b *NodeBridge) Announce() {
	b.announceAll()
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

func (b *NodeBridge) announceAll() {
	for _, t := range b.node.Terminals() {
		b.announce(t)
	}
	for _, bd := range b.node.Bindings() {
		b.sendBindingRecord(wire.TagAdd, bd)
	}
	_ = b.conn.Send(wire.Frame{Tag: wire.TagDiscoverEnd})
}

func (b *NodeBridge) announce(t terminal.Terminal) {
	b.sendRecord(wire.TagAdd, t)
}

func (b *NodeBridge) sendRecord(tag wire.Tag, t terminal.Terminal) {
	var buf bytes.Buffer
	_ = wire.WriteDiscoveryRecord(&buf, wire.DiscoveryRecord{
		Variant:   wire.VariantTag(t.Variant()),
		Signature: t.Signature().Raw(),
		Name:      t.Path().String(),
		Ref:       uint32(t.ID()),
	})
	_ = b.conn.Send(wire.Frame{Tag: tag, Payload: buf.Bytes()})
}

func (b *NodeBridge) dispatch(_ *Connection, f wire.Frame) {
	switch f.Tag {
	case wire.TagDiscover, wire.TagAdd:
		b.handleCatalogue(f)
	case wire.TagRemove:
		b.handleRemove(f)
	case wire.TagDiscoverEnd:
	case wire.TagPublish:
		b.handlePublish(f, false)
	case wire.TagPublishCached:
		b.handlePublish(f, true)
	case wire.TagScatter:
		b.handleScatter(f)
	case wire.TagResponse:
		b.handleGather(f, false)
	case wire.TagIgnore:
		b.handleGather(f, true)
	case wire.TagCancel:
		b.handleCancel(f)
	}
}

func (b *NodeBridge) handleCatalogue(f wire.Frame) {
	rec, err := wire.ReadDiscoveryRecord(bufio.NewReader(bytes.NewReader(f.Payload)))
	if err != nil {
		return
	}

	path, perr := signature.NewPath(rec.Name)
	if perr != nil {
		return
	}
	info := endpoint.TerminalInfo{Variant: terminal.Variant(rec.Variant), Signature: signature.Signature(rec.Signature), Path: path}
	b.node.AddKnownTerminal(info)

	b.mu.Lock()
	b.peerCat[rec.Ref] = rec
	b.mu.Unlock()

	want := pairsWith(info.Variant)
	if local, ok := b.node.Lookup(path, want, info.Signature); ok {
		b.tryMatch(local)
	}

	for _, bd := range b.node.Bindings() {
		if bd.TargetPath() == path {
			b.tryMatchBinding(bd)
		}
	}
}

func (b *NodeBridge) handleRemove(f wire.Frame) {
	rec, err := wire.ReadDiscoveryRecord(bufio.NewReader(bytes.NewReader(f.Payload)))
	if err != nil {
		return
	}
	path, perr := signature.NewPath(rec.Name)
	if perr != nil {
		return
	}
	b.node.RemoveKnownTerminal(endpoint.TerminalInfo{Variant: terminal.Variant(rec.Variant), Signature: signature.Signature(rec.Signature), Path: path})

	b.mu.Lock()
	delete(b.peerCat, rec.Ref)
	local, ok := b.byPeerRef[rec.Ref]
	delete(b.byPeerRef, rec.Ref)
	if ok {
		delete(b.peerRef, local)
		delete(b.bound, local)
	}
	b.mu.Unlock()

	if ok {
		if t, found := b.node.ByID(local); found {
			b.unbindLocal(t)
		}
		for _, bd := range b.node.Bindings() {
			if bd.Owner().ID() == local {
				bd.MarkReleased()
			}
		}
	}
}

// bindLocal installs this bridge's remote-backed transmitter on a newly
// matched local terminal, mirroring connection/local's wire2 but sending
// over the wire instead of delivering in-process.
func (b *NodeBridge) bindLocal(t terminal.Terminal) {
	switch x := t.(type) {
	case *terminal.PubSubTerminal:
		x.BindTransmitter(terminal.TransmitterFunc(func(msg wire.Message, retry bool) error {
			return b.sendPublish(x.ID(), msg, false, retry)
		}))
		if cm, err := x.GetCachedMessage(); err == nil {
			_ = b.sendPublish(x.ID(), cm, true, false)
		}
	case *terminal.ScatterGatherTerminal:
		x.BindTransmitter(&remoteScatterTx{bridge: b, local: x})
	case *terminal.DeafMuteTerminal:
		x.MarkBound()
	}
}

func (b *NodeBridge) unbindLocal(t terminal.Terminal) {
	switch x := t.(type) {
	case *terminal.PubSubTerminal:
		x.UnbindTransmitter()
	case *terminal.ScatterGatherTerminal:
		x.UnbindTransmitter()
	case *terminal.DeafMuteTerminal:
		x.MarkUnbound()
	}
}

// sendPublish addresses the frame with the peer's own ref for this
// terminal (learned from its discovery announcement), since TerminalRef
// is always interpreted by its reader as "my local terminal id".
func (b *NodeBridge) sendPublish(localID terminal.ID, msg wire.Message, cached, retry bool) error {
	b.mu.Lock()
	ref := b.peerRef[localID]
	b.mu.Unlock()

	var buf bytes.Buffer
	if err := wire.WriteMessage(&buf, msg); err != nil {
		return err
	}
	tag := wire.TagPublish
	if cached {
		tag = wire.TagPublishCached
	}
	f := wire.Frame{Tag: tag, TerminalRef: ref, Payload: buf.Bytes()}
	if retry {
		return b.conn.SendWait(f)
	}
	return b.conn.Send(f)
}

// handlePublish resolves TerminalRef against the node's own terminal
// table: the sender always stamps the receiver's local id, learned
// during discovery, so no remote-ref indirection is needed here.
func (b *NodeBridge) handlePublish(f wire.Frame, cached bool) {
	t, ok := b.node.ByID(terminal.ID(f.TerminalRef))
	if !ok {
		return
	}
	ps, ok := t.(*terminal.PubSubTerminal)
	if !ok {
		return
	}
	msg, err := wire.ReadMessage(bytes.NewReader(f.Payload))
	if err != nil {
		return
	}
	msg.Signature = ps.Signature()
	ps.Deliver(msg, cached)
}

func (b *NodeBridge) handleScatter(f wire.Frame) {
	t, ok := b.node.ByID(terminal.ID(f.TerminalRef))
	if !ok {
		return
	}
	sg, ok := t.(*terminal.ScatterGatherTerminal)
	if !ok {
		return
	}
	msg, err := wire.ReadMessage(bytes.NewReader(f.Payload))
	if err != nil {
		return
	}
	msg.Signature = sg.Signature()
	sg.DeliverScatter(operation.ID(f.OperationID), msg, &remoteScatterTx{bridge: b, local: sg})
}

func (b *NodeBridge) handleGather(f wire.Frame, ignored bool) {
	t, ok := b.node.ByID(terminal.ID(f.TerminalRef))
	if !ok {
		return
	}
	sg, ok := t.(*terminal.ScatterGatherTerminal)
	if !ok {
		return
	}
	if ignored {
		sg.DeliverGatherResult(operation.ID(f.OperationID), terminal.GatherResult{Ignored: true, Finished: true})
		return
	}
	msg, err := wire.ReadMessage(bytes.NewReader(f.Payload))
	if err != nil {
		return
	}
	msg.Signature = sg.Signature()
	sg.DeliverGatherResult(operation.ID(f.OperationID), terminal.GatherResult{Message: msg, Finished: true})
}

func (b *NodeBridge) handleCancel(f wire.Frame) {
	t, ok := b.node.ByID(terminal.ID(f.TerminalRef))
	if !ok {
		return
	}
	if sg, ok := t.(*terminal.ScatterGatherTerminal); ok {
		sg.CancelScatterGather(operation.ID(f.OperationID))
	}
}

// remoteScatterTx implements terminal.ScatterTransmitter over the wire for
// one local scatter/gather terminal already bound to its peer.
type remoteScatterTx struct {
	bridge *NodeBridge
	local  *terminal.ScatterGatherTerminal
}

func (r *remoteScatterTx) peerRef() uint32 {
	r.bridge.mu.Lock()
	defer r.bridge.mu.Unlock()
	return r.bridge.peerRef[r.local.ID()]
}

func (r *remoteScatterTx) SendScatter(id operation.ID, msg wire.Message) error {
	var buf bytes.Buffer
	if err := wire.WriteMessage(&buf, msg); err != nil {
		return err
	}
	return r.bridge.conn.Send(wire.Frame{Tag: wire.TagScatter, OperationID: uint64(id), TerminalRef: r.peerRef(), Payload: buf.Bytes()})
}

func (r *remoteScatterTx) SendResponse(id operation.ID, msg wire.Message) error {
	var buf bytes.Buffer
	if err := wire.WriteMessage(&buf, msg); err != nil {
		return err
	}
	return r.bridge.conn.Send(wire.Frame{Tag: wire.TagResponse, OperationID: uint64(id), TerminalRef: r.peerRef(), Payload: buf.Bytes()})
}

func (r *remoteScatterTx) SendIgnore(id operation.ID) error {
	return r.bridge.conn.Send(wire.Frame{Tag: wire.TagIgnore, OperationID: uint64(id), TerminalRef: r.peerRef()})
}

func (r *remoteScatterTx) CancelOperation(id operation.ID) error {
	return r.bridge.conn.Send(wire.Frame{Tag: wire.TagCancel, OperationID: uint64(id), TerminalRef: r.peerRef()})
}

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

// Package logdist implements the process-wide log distribution fabric: a
// single producer publishing structured log records, and
// per-component verbosity masters/slaves gating what ever reaches it.
package logdist

import (
	"encoding/binary"
	"encoding/json"
	"sync/atomic"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
	"github.com/nabbar/yogi/ylog"
)

// RecordSignature tags the payload Producer publishes.
const RecordSignature signature.Signature = 0x4c4f47 // "LOG"

var idSeq uint64

func nextID() terminal.ID {
	return terminal.ID(atomic.AddUint64(&idSeq, 1))
}

// metadata is the JSON side of a log record: {severity, thread_id,
// component}.
type metadata struct {
	Severity  string `json:"severity"`
	ThreadID  uint64 `json:"thread_id"`
	Component string `json:"component"`
}

// Record is one decoded log distribution payload.
type Record struct {
	Message   string
	Severity  ylog.Level
	ThreadID  uint64
	Component string
}

// EncodeRecord lays out a Record as a 4-byte JSON-metadata length, the
// metadata itself, then the raw message bytes -- wire/codec.go's own
// length-prefixed convention, applied one level down since the schema
// here is this package's own, not the core frame format's.
func EncodeRecord(r Record) []byte {
	meta, _ := json.Marshal(metadata{
		Severity:  r.Severity.String(),
		ThreadID:  r.ThreadID,
		Component: r.Component,
	})

	out := make([]byte, 4+len(meta)+len(r.Message))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(meta)))
	copy(out[4:4+len(meta)], meta)
	copy(out[4+len(meta):], r.Message)
	return out
}

// DecodeRecord reverses EncodeRecord.
func DecodeRecord(payload []byte) (Record, failure.Error) {
	if len(payload) < 4 {
		return Record{}, failure.New(failure.DeserializeMsg, "log record payload too short")
	}
	metaLen := binary.BigEndian.Uint32(payload[0:4])
	if uint32(len(payload)-4) < metaLen {
		return Record{}, failure.New(failure.DeserializeMsg, "log record metadata length out of range")
	}

	var m metadata
	if err := json.Unmarshal(payload[4:4+metaLen], &m); err != nil {
		return Record{}, failure.Wrap(failure.DeserializeMsg, err, "decode log record metadata")
	}

	return Record{
		Message:   string(payload[4+metaLen:]),
		Severity:  ylog.ParseLevel(m.Severity),
		ThreadID:  m.ThreadID,
		Component: m.Component,
	}, nil
}

// Producer owns the "<location>/Process/Log" Producer terminal.
type Producer struct {
	term *terminal.PubSubTerminal
	gate *VerbosityGate
}

// NewProducer attaches the Log producer under location.
func NewProducer(location string, ep endpoint.Endpoint) (*Producer, failure.Error) {
	base, err := signature.NewPath(location)
	if err != nil {
		return nil, err
	}
	path, err := base.Join("Process/Log")
	if err != nil {
		return nil, err
	}

	t, err := terminal.NewPubSub(nextID(), path, RecordSignature, terminal.Producer, ep.Scheduler())
	if err != nil {
		return nil, err
	}
	if err := ep.Attach(t); err != nil {
		return nil, err
	}
	return &Producer{term: t}, nil
}

// Terminal returns the underlying producer terminal.
func (p *Producer) Terminal() *terminal.PubSubTerminal { return p.term }

// SetVerbosityGate installs the YOGI Log Verbosity gate Publish consults
// before forwarding a record. A Producer with no gate forwards every
// record, i.e. the default is "log everything" until a verbosity is
// explicitly written.
func (p *Producer) SetVerbosityGate(g *VerbosityGate) { p.gate = g }

// Publish encodes and sends one log record, first checking r against the
// installed verbosity gate (if any). It never fails the caller for lack
// of a bound subscriber: like the rest of the fabric, logging with
// nothing listening is not an error.
func (p *Producer) Publish(r Record) {
	if p.gate != nil && !p.gate.Allow(r.Component, r.Severity) {
		return
	}
	p.term.TryPublish(wire.New(RecordSignature, EncodeRecord(r)))
}

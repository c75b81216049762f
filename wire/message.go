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

// Package wire defines the byte-level message record exchanged between
// terminals and the frame codec that puts it on a connection.
// The core never interprets Payload; it is opaque to everything except the
// two endpoints that agreed on Signature.
package wire

import "github.com/nabbar/yogi/signature"

// Encoding identifies how Payload was serialized. The core never decodes
// it; the tag only travels alongside the bytes for the application's
// benefit.
type Encoding uint8

const (
	EncodingRaw Encoding = iota
	EncodingProtobuf
)

func (e Encoding) String() string {
	switch e {
	case EncodingProtobuf:
		return "protobuf"
	default:
		return "raw"
	}
}

// Message is the unit of payload exchange between terminals: a signature,
// an encoding tag, the opaque bytes themselves, and an optional timestamp.
type Message struct {
	Signature signature.Signature
	Encoding  Encoding
	Payload   []byte
	Timestamp *Timestamp
}

// New builds a raw-encoded Message carrying payload as-is. payload may be
// empty but is never turned into a nil slice, so zero-length publishes
// round-trip byte for byte.
func New(sig signature.Signature, payload []byte) Message {
	out := make([]byte, len(payload))
	copy(out, payload)
	return Message{Signature: sig, Encoding: EncodingRaw, Payload: out}
}

// WithTimestamp returns a copy of m stamped with t.
func (m Message) WithTimestamp(t Timestamp) Message {
	m.Timestamp = &t
	return m
}

// Clone returns a deep copy, safe to hand to a second concurrent receiver.
func (m Message) Clone() Message {
	cp := m
	cp.Payload = make([]byte, len(m.Payload))
	copy(cp.Payload, m.Payload)
	return cp
}

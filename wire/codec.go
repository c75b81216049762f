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

package wire

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/nabbar/yogi/failure"
)

// Handshake is exchanged once, immediately after a connection opens and
// before any Frame: the library version triple plus an optional free-form
// identification string.
type Handshake struct {
	Major          uint16
	Minor          uint16
	Patch          uint16
	Identification string
}

// WriteHandshake writes Magic, the version triple, and the identification
// string (length-prefixed, uint16).
func WriteHandshake(w io.Writer, h Handshake) failure.Error {
	buf := make([]byte, 4+2+2+2+2+len(h.Identification))
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Major)
	binary.BigEndian.PutUint16(buf[6:8], h.Minor)
	binary.BigEndian.PutUint16(buf[8:10], h.Patch)
	binary.BigEndian.PutUint16(buf[10:12], uint16(len(h.Identification)))
	copy(buf[12:], h.Identification)

	if _, err := w.Write(buf); err != nil {
		return failure.Wrap(failure.Rw, err, "write handshake")
	}
	return nil
}

// ReadHandshake reads and validates a peer's Handshake against own. A
// mismatched magic prefix fails InvalidMagicPrefix; a different major
// version fails IncompatibleVersion.
func ReadHandshake(r io.Reader, own Handshake) (Handshake, failure.Error) {
	var head [12]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Handshake{}, failure.Wrap(failure.Rw, err, "read handshake header")
	}

	if binary.BigEndian.Uint32(head[0:4]) != Magic {
		return Handshake{}, failure.New(failure.InvalidMagicPrefix, "bad magic prefix")
	}

	h := Handshake{
		Major: binary.BigEndian.Uint16(head[4:6]),
		Minor: binary.BigEndian.Uint16(head[6:8]),
		Patch: binary.BigEndian.Uint16(head[8:10]),
	}

	idLen := binary.BigEndian.Uint16(head[10:12])
	if idLen > 0 {
		idBuf := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBuf); err != nil {
			return Handshake{}, failure.Wrap(failure.Rw, err, "read handshake identification")
		}
		h.Identification = string(idBuf)
	}

	if h.Major != own.Major {
		return h, failure.New(failure.IncompatibleVersion, "incompatible library version")
	}

	return h, nil
}

// WriteFrame encodes f as: tag byte, varint operation id, varint terminal
// ref, uint32 payload length, payload bytes.
func WriteFrame(w io.Writer, f Frame) failure.Error {
	var head [1 + binary.MaxVarintLen64 + binary.MaxVarintLen32 + 4]byte
	n := 0
	head[0] = byte(f.Tag)
	n++
	n += binary.PutUvarint(head[n:], f.OperationID)
	n += binary.PutUvarint(head[n:], uint64(f.TerminalRef))
	binary.BigEndian.PutUint32(head[n:n+4], uint32(len(f.Payload)))
	n += 4

	if _, err := w.Write(head[:n]); err != nil {
		return failure.Wrap(failure.Rw, err, "write frame header")
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return failure.Wrap(failure.Rw, err, "write frame payload")
		}
	}
	return nil
}

// ReadFrame decodes one Frame from r, which must support byte-at-a-time
// reads for the varint fields (use bufio.NewReader over a raw conn).
func ReadFrame(r *bufio.Reader) (Frame, failure.Error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return Frame{}, failure.Wrap(failure.Rw, err, "read frame tag")
	}

	opID, err := binary.ReadUvarint(r)
	if err != nil {
		return Frame{}, failure.Wrap(failure.DeserializeMsg, err, "read frame operation id")
	}

	ref, err := binary.ReadUvarint(r)
	if err != nil {
		return Frame{}, failure.Wrap(failure.DeserializeMsg, err, "read frame terminal ref")
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, failure.Wrap(failure.Rw, err, "read frame payload length")
	}
	payloadLen := binary.BigEndian.Uint32(lenBuf[:])

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, failure.Wrap(failure.Rw, err, "read frame payload")
		}
	}

	return Frame{Tag: Tag(tagByte), OperationID: opID, TerminalRef: uint32(ref), Payload: payload}, nil
}

// WriteMessage encodes a Message's encoding tag, optional timestamp, and
// payload for a Frame's Payload field. Signature travels implicitly: the
// receiving terminal's own signature is what its discovery match already
// agreed on, so it is not repeated on every publish.
func WriteMessage(w io.Writer, m Message) failure.Error {
	hasTs := byte(0)
	var tsBuf [8]byte
	if m.Timestamp != nil {
		hasTs = 1
		binary.BigEndian.PutUint64(tsBuf[:], uint64(m.Timestamp.NanosecondsSinceEpoch()))
	}

	head := make([]byte, 1+1+8+4)
	head[0] = byte(m.Encoding)
	head[1] = hasTs
	copy(head[2:10], tsBuf[:])
	binary.BigEndian.PutUint32(head[10:14], uint32(len(m.Payload)))

	if _, err := w.Write(head); err != nil {
		return failure.Wrap(failure.Rw, err, "write message header")
	}
	if len(m.Payload) > 0 {
		if _, err := w.Write(m.Payload); err != nil {
			return failure.Wrap(failure.Rw, err, "write message payload")
		}
	}
	return nil
}

// ReadMessage decodes a Message written by WriteMessage. The caller fills
// in Signature from the terminal the frame resolved to.
func ReadMessage(r io.Reader) (Message, failure.Error) {
	var head [14]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Message{}, failure.Wrap(failure.Rw, err, "read message header")
	}

	m := Message{Encoding: Encoding(head[0])}
	if head[1] == 1 {
		ts := FromNanoseconds(int64(binary.BigEndian.Uint64(head[2:10])))
		m.Timestamp = &ts
	}

	payloadLen := binary.BigEndian.Uint32(head[10:14])
	if payloadLen > 0 {
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return Message{}, failure.Wrap(failure.Rw, err, "read message payload")
		}
		m.Payload = payload
	}

	return m, nil
}

// WriteDiscoveryRecord encodes {variant_tag, signature, zero-terminated
// name, terminal ref}.
func WriteDiscoveryRecord(w io.Writer, rec DiscoveryRecord) failure.Error {
	buf := make([]byte, 1+4+len(rec.Name)+1+4)
	buf[0] = byte(rec.Variant)
	binary.BigEndian.PutUint32(buf[1:5], rec.Signature)
	copy(buf[5:], rec.Name)
	buf[5+len(rec.Name)] = 0
	binary.BigEndian.PutUint32(buf[6+len(rec.Name):], rec.Ref)

	if _, err := w.Write(buf); err != nil {
		return failure.Wrap(failure.Rw, err, "write discovery record")
	}
	return nil
}

// ReadDiscoveryRecord decodes one record written by WriteDiscoveryRecord.
func ReadDiscoveryRecord(r *bufio.Reader) (DiscoveryRecord, failure.Error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return DiscoveryRecord{}, failure.Wrap(failure.Rw, err, "read discovery record header")
	}

	rec := DiscoveryRecord{Variant: VariantTag(head[0]), Signature: binary.BigEndian.Uint32(head[1:5])}

	name, err := r.ReadString(0)
	if err != nil {
		return DiscoveryRecord{}, failure.Wrap(failure.DeserializeMsg, err, "read discovery record name")
	}
	rec.Name = name[:len(name)-1]

	var refBuf [4]byte
	if _, err := io.ReadFull(r, refBuf[:]); err != nil {
		return DiscoveryRecord{}, failure.Wrap(failure.Rw, err, "read discovery record ref")
	}
	rec.Ref = binary.BigEndian.Uint32(refBuf[:])

	return rec, nil
}

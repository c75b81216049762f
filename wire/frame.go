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

// Magic is the 32-bit prefix every connection's handshake frame must open
// with. A peer that reads anything else fails the handshake with
// InvalidMagicPrefix without looking at the rest of the stream.
const Magic uint32 = 0x59474921 // "YGI!" in ASCII, arbitrary but stable

// Tag identifies what a Frame's payload means. VariantTag values embedded
// in discovery payloads mirror terminal.Variant's numeric ordering; wire
// stays free of a terminal/ import (which itself imports wire for
// Message) by treating them as plain bytes.
type Tag uint8

const (
	TagDiscover Tag = iota
	TagDiscoverEnd
	TagAdd
	TagRemove
	TagPublish
	TagPublishCached
	TagScatter
	TagRequest
	TagResponse
	TagIgnore
	TagCancel
	TagHeartbeat
)

func (t Tag) String() string {
	switch t {
	case TagDiscover:
		return "Discover"
	case TagDiscoverEnd:
		return "DiscoverEnd"
	case TagAdd:
		return "Add"
	case TagRemove:
		return "Remove"
	case TagPublish:
		return "Publish"
	case TagPublishCached:
		return "PublishCached"
	case TagScatter:
		return "Scatter"
	case TagRequest:
		return "Request"
	case TagResponse:
		return "Response"
	case TagIgnore:
		return "Ignore"
	case TagCancel:
		return "Cancel"
	case TagHeartbeat:
		return "Heartbeat"
	default:
		return "Unknown"
	}
}

// VariantTag is the one-byte terminal-variant identifier carried in
// discovery records; it matches terminal.Variant's underlying value.
type VariantTag uint8

// Frame is one unit of exchange on a connection after the handshake.
// OperationID is zero when this tag carries none (e.g. Publish, Add,
// Remove); TerminalRef is the numeric local terminal id negotiated during
// discovery, zero when not applicable.
type Frame struct {
	Tag         Tag
	OperationID uint64
	TerminalRef uint32
	Payload     []byte
}

// DiscoveryRecord is one entry of a terminal catalogue frame (Discover,
// Add, or Remove): {variant_tag, signature, zero-terminated name,
// terminal ref}.
type DiscoveryRecord struct {
	Variant   VariantTag
	Signature uint32
	Name      string
	Ref       uint32
}

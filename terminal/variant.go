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

// Package terminal implements the fourteen terminal variants as a single
// shared core plus per-family behaviour, rather than fourteen parallel
// classes: a terminal's Variant tag selects which operations are valid on
// it, the way a dynamic-dispatch hierarchy would have used subclassing.
package terminal

import "fmt"

// Variant identifies one of the fourteen terminal kinds. The zero value,
// DeafMute, accepts neither publishes nor subscriptions.
type Variant uint8

const (
	DeafMute Variant = iota
	PublishSubscribe
	CachedPublishSubscribe
	ScatterGather
	Producer
	Consumer
	CachedProducer
	CachedConsumer
	Master
	Slave
	CachedMaster
	CachedSlave
	Service
	Client
)

func (v Variant) String() string {
	switch v {
	case DeafMute:
		return "DeafMute"
	case PublishSubscribe:
		return "PublishSubscribe"
	case CachedPublishSubscribe:
		return "CachedPublishSubscribe"
	case ScatterGather:
		return "ScatterGather"
	case Producer:
		return "Producer"
	case Consumer:
		return "Consumer"
	case CachedProducer:
		return "CachedProducer"
	case CachedConsumer:
		return "CachedConsumer"
	case Master:
		return "Master"
	case Slave:
		return "Slave"
	case CachedMaster:
		return "CachedMaster"
	case CachedSlave:
		return "CachedSlave"
	case Service:
		return "Service"
	case Client:
		return "Client"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// IsPrimitive reports whether v is one of the four symmetric primitives
// that require an explicit Binding to target remote terminals. The
// remaining (convenience) variants bind implicitly via their pair name.
func (v Variant) IsPrimitive() bool {
	switch v {
	case DeafMute, PublishSubscribe, CachedPublishSubscribe, ScatterGather:
		return true
	default:
		return false
	}
}

// IsCached reports whether v retains the last payload(s) it has seen and
// replays them to newly bound peers.
func (v Variant) IsCached() bool {
	switch v {
	case CachedPublishSubscribe, CachedProducer, CachedConsumer, CachedMaster, CachedSlave:
		return true
	default:
		return false
	}
}

// CanPublish reports whether v ever originates application messages
// (Publish/TryPublish or the master/slave/scatter-gather equivalents).
func (v Variant) CanPublish() bool {
	switch v {
	case DeafMute, Consumer, CachedConsumer:
		return false
	default:
		return true
	}
}

// CanReceive reports whether v ever accepts inbound application messages.
func (v Variant) CanReceive() bool {
	switch v {
	case DeafMute, Producer, CachedProducer:
		return false
	default:
		return true
	}
}

// IsScatterGather reports whether v uses the operation-id based
// scatter/gather or request/response protocol instead of plain
// publish/subscribe.
func (v Variant) IsScatterGather() bool {
	switch v {
	case ScatterGather, Service, Client:
		return true
	default:
		return false
	}
}

// IsMasterSlave reports whether v is one of the bidirectional
// Master/Slave family, which carries two independent payload schemas.
func (v Variant) IsMasterSlave() bool {
	switch v {
	case Master, Slave, CachedMaster, CachedSlave:
		return true
	default:
		return false
	}
}

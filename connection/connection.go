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

package connection

import (
	"sync"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/idgen"
)

// DeathHandler receives the reason a connection transitioned to Dead.
type DeathHandler func(cause failure.Error)

// Connection is the common surface of a local shortcut and a TCP
// transport: state, descriptive metadata, and the single pending
// await-death slot non-local connections expose.
type Connection interface {
	State() State
	Description() string
	RemoteVersion() string
	RemoteIdentification() (string, bool)
	Close()
}

// Base implements the state/description bookkeeping and the single
// pending await-death handler shared by every connection kind. Assign is
// not part of Base: local connections have nothing to assign (both
// endpoints are wired at construction).
type Base struct {
	id                    string
	mu                    sync.Mutex
	state                 State
	description           string
	remoteVersion         string
	remoteIdentification  string
	hasRemoteId           bool
	assigned              bool
	death                 DeathHandler
	deathCause            failure.Error
}

// NewBase constructs a Base with a fresh opaque instance ID (idgen.New),
// distinct from description: description is the human-readable transport
// label ("local", a remote address), while InstanceID identifies this
// particular connection object across its lifetime, e.g. for log
// correlation across a reconnect.
func NewBase(description string) *Base {
	return &Base{state: Idle, description: description, id: idgen.New()}
}

func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Base) Description() string { return b.description }

// InstanceID returns the opaque identifier generated for this connection
// at construction.
func (b *Base) InstanceID() string { return b.id }

func (b *Base) RemoteVersion() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remoteVersion
}

func (b *Base) RemoteIdentification() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remoteIdentification, b.hasRemoteId
}

func (b *Base) setRemoteInfo(version, identification string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remoteVersion = version
	if identification != "" {
		b.remoteIdentification = identification
		b.hasRemoteId = true
	}
}

// SetRemoteInfo records the peer's version string and optional
// identification, as learned during handshake. Exported for non-local
// transports (connection/tcp) that perform their own handshake exchange.
func (b *Base) SetRemoteInfo(version, identification string) {
	b.setRemoteInfo(version, identification)
}

func (b *Base) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// SetHandshaking transitions an Idle connection into the Handshaking
// phase. Exported for connection/tcp, which drives its own state machine
// on top of Base.
func (b *Base) SetHandshaking() {
	b.setState(Handshaking)
}

// SetAlive transitions the connection into the Alive phase once its
// handshake (if any) has completed.
func (b *Base) SetAlive() {
	b.setState(Alive)
}

// TryAssign marks the connection assigned exactly once. A second call
// fails ObjectStillUsed: the assignment slot is still in use.
func (b *Base) TryAssign() failure.Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.assigned {
		return failure.New(failure.ObjectStillUsed, "connection already assigned")
	}
	b.assigned = true
	return nil
}

// AwaitDeath registers handler for the single upcoming Dead transition.
// A second call while one is pending fails Busy.
func (b *Base) AwaitDeath(handler DeathHandler) failure.Error {
	b.mu.Lock()

	if b.state == Dead {
		cause := b.deathCause
		b.mu.Unlock()
		handler(cause)
		return nil
	}

	if b.death != nil {
		b.mu.Unlock()
		return failure.New(failure.Busy, "await death already pending")
	}
	b.death = handler
	b.mu.Unlock()
	return nil
}

// CancelAwaitDeath delivers Canceled to the pending handler, if any.
func (b *Base) CancelAwaitDeath() bool {
	b.mu.Lock()
	h := b.death
	b.death = nil
	b.mu.Unlock()

	if h == nil {
		return false
	}
	h(failure.New(failure.Canceled, "await death canceled"))
	return true
}

// MarkDead transitions to Dead and fires any pending death await exactly
// once with cause.
func (b *Base) MarkDead(cause failure.Error) {
	b.mu.Lock()
	if b.state == Dead {
		b.mu.Unlock()
		return
	}
	b.state = Dead
	b.deathCause = cause
	h := b.death
	b.death = nil
	b.mu.Unlock()

	if h != nil {
		h(cause)
	}
}

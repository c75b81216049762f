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

// Package binding implements the explicit edge a primitive terminal owns
// to declare "I also want messages addressed to terminal path T". The
// convenience pairs (producer/consumer, master/slave, service/client)
// never use one: they bind implicitly via their pair name, so New rejects
// them with WrongObjectType.
package binding

import (
	"sync"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
)

// Binding targets a remote terminal path on behalf of its owning
// primitive terminal. It is created after the terminal, registered with
// the terminal's endpoint (Endpoint.AttachBinding), and destroyed
// explicitly (Endpoint.DetachBinding). While alive it carries its own
// observable binding state: Established once at least one remote
// terminal matching (target path, owner variant, owner signature) is
// reachable, Released otherwise.
type Binding struct {
	owner  terminal.Terminal
	target signature.Path

	mu       sync.Mutex
	state    terminal.BindingState
	watchers []func(terminal.BindingState)
}

// New builds a Binding owned by owner, targeting target. owner must be a
// primitive variant.
func New(owner terminal.Terminal, target signature.Path) (*Binding, failure.Error) {
	if !owner.Variant().IsPrimitive() {
		return nil, failure.New(failure.WrongObjectType, "variant "+owner.Variant().String()+" binds implicitly via its pair name")
	}
	return &Binding{owner: owner, target: target}, nil
}

// Owner returns the primitive terminal this binding belongs to.
func (b *Binding) Owner() terminal.Terminal { return b.owner }

// TargetPath returns the remote terminal path this binding targets.
func (b *Binding) TargetPath() signature.Path { return b.target }

// BindingState returns Established while at least one remote terminal
// matching the target is reachable.
func (b *Binding) BindingState() terminal.BindingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OnBindingChange registers a permanent watcher fired on every state
// transition. A Binding satisfies the same watchable surface as a
// terminal, so it can feed an operational Dependency directly.
func (b *Binding) OnBindingChange(fn func(terminal.BindingState)) {
	b.mu.Lock()
	b.watchers = append(b.watchers, fn)
	b.mu.Unlock()
}

// MarkEstablished is called by the connection layer once a remote
// terminal matching the target becomes reachable.
func (b *Binding) MarkEstablished() { b.transition(terminal.Established) }

// MarkReleased is called by the connection layer when the last matching
// remote terminal goes away, and by the owning endpoint on detach.
func (b *Binding) MarkReleased() { b.transition(terminal.Released) }

func (b *Binding) transition(s terminal.BindingState) {
	b.mu.Lock()
	if b.state == s {
		b.mu.Unlock()
		return
	}
	b.state = s
	watchers := append([]func(terminal.BindingState){}, b.watchers...)
	b.mu.Unlock()

	for _, w := range watchers {
		w(s)
	}
}

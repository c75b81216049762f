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

package operational

import (
	"sync"

	"github.com/nabbar/yogi/terminal"
)

// BindingWatchable is the subset of a primitive terminal's surface a
// binding-keyed Dependency input needs.
type BindingWatchable interface {
	BindingState() terminal.BindingState
	OnBindingChange(func(terminal.BindingState))
}

// SubscriptionWatchable is the subset a subscription-keyed Dependency
// input needs.
type SubscriptionWatchable interface {
	SubscriptionState() terminal.SubscriptionState
	OnSubscriptionChange(func(terminal.SubscriptionState))
}

// input is a single two-state watcher feeding a Dependency's AND.
type input struct {
	mu  sync.Mutex
	met bool
	on  []func(bool)
}

func (i *input) IsMet() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.met
}

func (i *input) OnChange(fn func(bool)) {
	i.mu.Lock()
	i.on = append(i.on, fn)
	i.mu.Unlock()
}

func (i *input) set(met bool) {
	i.mu.Lock()
	if i.met == met {
		i.mu.Unlock()
		return
	}
	i.met = met
	watchers := append([]func(bool){}, i.on...)
	i.mu.Unlock()

	for _, w := range watchers {
		w(met)
	}
}

// BindingInput wraps t, met while t is Established.
func BindingInput(t BindingWatchable) OperationalCondition {
	in := &input{met: t.BindingState() == terminal.Established}
	t.OnBindingChange(func(s terminal.BindingState) {
		in.set(s == terminal.Established)
	})
	return in
}

// SubscriptionInput wraps t, met while t is Subscribed.
func SubscriptionInput(t SubscriptionWatchable) OperationalCondition {
	in := &input{met: t.SubscriptionState() == terminal.Subscribed}
	t.OnSubscriptionChange(func(s terminal.SubscriptionState) {
		in.set(s == terminal.Subscribed)
	})
	return in
}

// Dependency is met only when every one of its inputs is currently met;
// it recomputes and notifies its own watchers on every input change.
type Dependency struct {
	name string

	mu       sync.Mutex
	inputs   []OperationalCondition
	met      bool
	watchers []func(bool)
}

// NewDependency builds a Dependency named name over inputs (built with
// BindingInput/SubscriptionInput), evaluating the initial AND immediately.
func NewDependency(name string, inputs ...OperationalCondition) *Dependency {
	d := &Dependency{name: name, inputs: inputs}
	d.met = d.evaluate()
	for _, in := range inputs {
		in.OnChange(func(bool) { d.recompute() })
	}
	return d
}

// Name returns the dependency's label.
func (d *Dependency) Name() string { return d.name }

func (d *Dependency) evaluate() bool {
	for _, in := range d.inputs {
		if !in.IsMet() {
			return false
		}
	}
	return true
}

func (d *Dependency) recompute() {
	d.mu.Lock()
	met := d.evaluate()
	if met == d.met {
		d.mu.Unlock()
		return
	}
	d.met = met
	watchers := append([]func(bool){}, d.watchers...)
	d.mu.Unlock()

	for _, w := range watchers {
		w(met)
	}
}

func (d *Dependency) IsMet() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.met
}

func (d *Dependency) OnChange(fn func(bool)) {
	d.mu.Lock()
	d.watchers = append(d.watchers, fn)
	d.mu.Unlock()
}

// ProcessDependency extends Dependency with an additional input built from
// the binding state of the local terminal bound to another process's
// "<path>/Process/Operational": that input is met while the binding is
// Established. The boolean value the remote process publishes there is
// not read.
type ProcessDependency struct {
	*Dependency
	path string
}

// NewProcessDependency builds a Dependency over inputs plus remoteOperational,
// the local terminal subscribed to the remote process's own
// "<path>/Process/Operational" cached producer.
func NewProcessDependency(name, path string, remoteOperational BindingWatchable, inputs ...OperationalCondition) *ProcessDependency {
	all := append(append([]OperationalCondition{}, inputs...), BindingInput(remoteOperational))
	return &ProcessDependency{Dependency: NewDependency(name, all...), path: path}
}

// Path returns the remote process location this dependency tracks.
func (p *ProcessDependency) Path() string { return p.path }

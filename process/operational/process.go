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
	"sync/atomic"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

// Signature tags the single-byte boolean payload the Operational cached
// producer publishes. It is local to this process pair: nothing outside
// operational.Process ever needs to agree on it except a remote
// ProcessDependency's consumer, which imports this constant too.
const Signature signature.Signature = 0x4f5053 // "OPS"

var constructed uint32

// OperationalObserver fires whenever a Process's published AND changes.
type OperationalObserver func(met bool)

// Process owns the single cached-producer terminal at
// "<location>/Process/Operational", republishing the AND of every
// registered OperationalCondition each time any of them changes.
type Process struct {
	ep   endpoint.Endpoint
	term *terminal.PubSubTerminal

	mu         sync.Mutex
	conditions []OperationalCondition
	met        bool
	observers  []OperationalObserver
}

func nextID() terminal.ID {
	return terminal.ID(atomic.AddUint64(&idSeq, 1))
}

var idSeq uint64

// New constructs the process-wide Operational terminal under ep, rooted
// at location (e.g. "/"). It may be called at most once per process; a
// second call fails InvalidParam without touching ep.
func New(location string, ep endpoint.Endpoint) (*Process, failure.Error) {
	if !atomic.CompareAndSwapUint32(&constructed, 0, 1) {
		return nil, failure.New(failure.InvalidParam, "operational process already constructed")
	}

	base, err := signature.NewPath(location)
	if err != nil {
		return nil, err
	}
	path, err := base.Join("Process/Operational")
	if err != nil {
		return nil, err
	}

	t, err := terminal.NewPubSub(nextID(), path, Signature, terminal.CachedProducer, ep.Scheduler())
	if err != nil {
		return nil, err
	}
	if err := ep.Attach(t); err != nil {
		return nil, err
	}

	p := &Process{ep: ep, term: t, met: true}
	p.publish()
	return p, nil
}

// Terminal returns the underlying cached-producer terminal, for tests and
// for wiring into a connection's discovery catalogue.
func (p *Process) Terminal() *terminal.PubSubTerminal { return p.term }

// Register adds c to the AND, recomputing and republishing immediately
// and on every subsequent change of c.
func (p *Process) Register(c OperationalCondition) {
	p.mu.Lock()
	p.conditions = append(p.conditions, c)
	p.mu.Unlock()

	c.OnChange(func(bool) { p.recompute() })
	p.recompute()
}

// Unregister removes c from the AND (matched by identity), recomputing
// and republishing if its absence changes the result. Reports whether c
// was registered. The condition keeps its OnChange watcher but a removed
// condition's changes no longer affect the published value, since
// recompute only walks the registered set.
func (p *Process) Unregister(c OperationalCondition) bool {
	p.mu.Lock()
	found := false
	for i, rc := range p.conditions {
		if rc == c {
			p.conditions = append(p.conditions[:i], p.conditions[i+1:]...)
			found = true
			break
		}
	}
	p.mu.Unlock()

	if found {
		p.recompute()
	}
	return found
}

// OnChange registers fn to be invoked whenever the published AND changes,
// so callers can mirror the published value without polling.
func (p *Process) OnChange(fn OperationalObserver) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// IsMet returns the process's current published value.
func (p *Process) IsMet() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.met
}

func (p *Process) evaluate() bool {
	for _, c := range p.conditions {
		if !c.IsMet() {
			return false
		}
	}
	return true
}

func (p *Process) recompute() {
	p.mu.Lock()
	met := p.evaluate()
	if met == p.met {
		p.mu.Unlock()
		return
	}
	p.met = met
	observers := append([]OperationalObserver{}, p.observers...)
	p.mu.Unlock()

	p.publish()
	for _, o := range observers {
		o(met)
	}
}

func (p *Process) publish() {
	payload := byte(0)
	if p.IsMet() {
		payload = 1
	}
	p.term.TryPublish(wire.New(Signature, []byte{payload}))
}

// ResetForTest undoes the "constructed at most once" singleton guard so a
// test suite can build a fresh Process across cases, in this package or
// any package whose own tests construct a Process transitively (e.g.
// process.New). Calling this outside of tests defeats the
// single-construction invariant and must never happen in production code.
func ResetForTest() {
	atomic.StoreUint32(&constructed, 0)
}

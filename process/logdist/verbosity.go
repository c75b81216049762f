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

package logdist

import (
	"sync"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
	"github.com/nabbar/yogi/ylog"
)

// VerbositySignature tags the single-byte ylog.Level payload every
// verbosity master/slave terminal exchanges.
const VerbositySignature signature.Signature = 0x564552 // "VER"

// VerbosityTarget distinguishes the two independent verbosity gates:
// what reaches this process's own standard output, and what
// reaches the "<location>/Process/Log" terminal Producer publishes.
type VerbosityTarget uint8

const (
	StandardOutput VerbosityTarget = iota
	YogiLog
)

func (t VerbosityTarget) folder() string {
	if t == YogiLog {
		return "Process/YOGI Log Verbosity"
	}
	return "Process/Standard Output Log Verbosity"
}

// VerbosityApplier receives the recomputed max verbosity every time the
// "Max Verbosity" master is written. Any ylog.Logger satisfies this
// directly; it is how a Standard Output Log Verbosity gate actually
// changes what the process emits, rather than just caching a number.
type VerbosityApplier interface {
	SetLevel(lvl ylog.Level)
}

// VerbosityGate owns one target's "Max Verbosity" master and its
// per-component masters, each a CachedMaster terminal
// whose bound CachedSlave peers receive the new level as their cache --
// that replay is the write's acknowledgement, not a separate effect.
//
// None (ylog.NilLevel) written to a component master suppresses that
// component outright, regardless of the max gate. None written to the max
// master suppresses every component that has no override of its own; a
// component with a non-None override is then gated by that override
// alone. Either way None acts as "off" rather than as an alias for "log
// everything" (zero is the least severe value on ylog.Level's scale).
type VerbosityGate struct {
	ep     endpoint.Endpoint
	base   signature.Path
	apply  VerbosityApplier

	mu         sync.Mutex
	max        *terminal.PubSubTerminal
	maxLevel   ylog.Level
	components map[string]*componentGate
}

type componentGate struct {
	term  *terminal.PubSubTerminal
	level ylog.Level
}

// NewVerbosityGate attaches target's "Max Verbosity" master under
// location at initial, applying it to apply immediately. apply may be
// nil if this gate only needs to filter Allow calls (the YogiLog
// target's typical use) rather than drive a live logger.
func NewVerbosityGate(location string, target VerbosityTarget, ep endpoint.Endpoint, apply VerbosityApplier, initial ylog.Level) (*VerbosityGate, failure.Error) {
	root, err := signature.NewPath(location)
	if err != nil {
		return nil, err
	}
	base, err := root.Join(signature.Path(target.folder()))
	if err != nil {
		return nil, err
	}
	maxPath, err := base.Join("Max Verbosity")
	if err != nil {
		return nil, err
	}

	t, err := terminal.NewPubSub(nextID(), maxPath, VerbositySignature, terminal.CachedMaster, ep.Scheduler())
	if err != nil {
		return nil, err
	}
	if err := ep.Attach(t); err != nil {
		return nil, err
	}

	g := &VerbosityGate{
		ep:         ep,
		base:       base,
		apply:      apply,
		max:        t,
		maxLevel:   initial,
		components: make(map[string]*componentGate),
	}
	g.publishMax(initial)
	return g, nil
}

// MaxTerminal returns the "Max Verbosity" master, for discovery and
// connection wiring.
func (g *VerbosityGate) MaxTerminal() *terminal.PubSubTerminal { return g.max }

// SetMaxVerbosity writes a new ceiling, propagating it to apply (if set)
// and to every bound slave's cache.
func (g *VerbosityGate) SetMaxVerbosity(lvl ylog.Level) {
	g.mu.Lock()
	g.maxLevel = lvl
	g.mu.Unlock()
	g.publishMax(lvl)
}

func (g *VerbosityGate) publishMax(lvl ylog.Level) {
	g.max.TryPublish(wire.New(VerbositySignature, []byte{byte(lvl)}))
	if g.apply != nil {
		g.apply.SetLevel(lvl)
	}
}

// Component returns name's per-component master, attaching one under
// "<base>/Components/<name>" the first time it is requested.
func (g *VerbosityGate) Component(name string) (*terminal.PubSubTerminal, failure.Error) {
	g.mu.Lock()
	if c, ok := g.components[name]; ok {
		g.mu.Unlock()
		return c.term, nil
	}
	g.mu.Unlock()

	compsPath, err := g.base.Join("Components")
	if err != nil {
		return nil, err
	}
	path, err := compsPath.Join(signature.Path(name))
	if err != nil {
		return nil, err
	}

	t, err := terminal.NewPubSub(nextID(), path, VerbositySignature, terminal.CachedMaster, g.ep.Scheduler())
	if err != nil {
		return nil, err
	}
	if err := g.ep.Attach(t); err != nil {
		return nil, err
	}

	g.mu.Lock()
	if c, ok := g.components[name]; ok {
		g.mu.Unlock()
		return c.term, nil
	}
	cg := &componentGate{term: t, level: g.maxLevel}
	g.components[name] = cg
	g.mu.Unlock()

	t.TryPublish(wire.New(VerbositySignature, []byte{byte(cg.level)}))
	return t, nil
}

// SetComponentVerbosity writes name's per-component level, attaching its
// master terminal first if this is the component's first mention.
func (g *VerbosityGate) SetComponentVerbosity(name string, lvl ylog.Level) failure.Error {
	t, err := g.Component(name)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.components[name].level = lvl
	g.mu.Unlock()

	t.TryPublish(wire.New(VerbositySignature, []byte{byte(lvl)}))
	return nil
}

// Allow reports whether a record at lvl for component should reach this
// target, combining the max gate with the component's own override (if
// any component master has ever been written). A component that has
// never been mentioned is gated by the max level alone.
func (g *VerbosityGate) Allow(component string, lvl ylog.Level) bool {
	g.mu.Lock()
	threshold := g.maxLevel
	maxIsNone := g.maxLevel == ylog.NilLevel
	c, ok := g.components[component]
	g.mu.Unlock()

	if ok {
		if c.level == ylog.NilLevel {
			return false
		}
		if c.level > threshold {
			threshold = c.level
		}
	} else if maxIsNone {
		return false
	}

	return lvl >= threshold
}

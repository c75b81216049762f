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

package anomaly

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

// ErrorsSignature and WarningsSignature tag the newline-joined message
// lists published at "<location>/Process/Errors" and
// "<location>/Process/Warnings" respectively.
const (
	ErrorsSignature   signature.Signature = 0x455252 // "ERR"
	WarningsSignature signature.Signature = 0x57524e // "WRN"
)

var idSeq uint64

func nextID() terminal.ID {
	return terminal.ID(atomic.AddUint64(&idSeq, 1))
}

// Table is one of the two process-wide anomaly lists (Errors or
// Warnings): a cached producer republishing its active set's messages,
// newline-joined, on every Set/Clear.
type Table struct {
	kind  Kind
	sched scheduler.Scheduler
	term  *terminal.PubSubTerminal

	mu     sync.Mutex
	active map[*Anomaly]struct{}
}

func newTable(kind Kind, sig signature.Signature, sub string, location string, ep endpoint.Endpoint) (*Table, failure.Error) {
	base, err := signature.NewPath(location)
	if err != nil {
		return nil, err
	}
	path, err := base.Join(signature.Path(sub))
	if err != nil {
		return nil, err
	}

	t, err := terminal.NewPubSub(nextID(), path, sig, terminal.CachedProducer, ep.Scheduler())
	if err != nil {
		return nil, err
	}
	if err := ep.Attach(t); err != nil {
		return nil, err
	}

	tb := &Table{kind: kind, sched: ep.Scheduler(), term: t, active: make(map[*Anomaly]struct{})}
	tb.publish()
	return tb, nil
}

// NewErrorsTable attaches the Errors cached producer at
// "<location>/Process/Errors".
func NewErrorsTable(location string, ep endpoint.Endpoint) (*Table, failure.Error) {
	return newTable(Error, ErrorsSignature, "Process/Errors", location, ep)
}

// NewWarningsTable attaches the Warnings cached producer at
// "<location>/Process/Warnings".
func NewWarningsTable(location string, ep endpoint.Endpoint) (*Table, failure.Error) {
	return newTable(Warning, WarningsSignature, "Process/Warnings", location, ep)
}

func (t *Table) scheduler() scheduler.Scheduler { return t.sched }

// Terminal returns the underlying cached-producer terminal.
func (t *Table) Terminal() *terminal.PubSubTerminal { return t.term }

// New returns a fresh, inactive anomaly bound to this table.
func (t *Table) New(message string) *Anomaly {
	return &Anomaly{kind: t.kind, message: message, table: t}
}

func (t *Table) add(a *Anomaly) {
	t.mu.Lock()
	t.active[a] = struct{}{}
	t.mu.Unlock()
}

// remove deletes a from the active set, reporting whether it had in fact
// been present.
func (t *Table) remove(a *Anomaly) bool {
	t.mu.Lock()
	_, ok := t.active[a]
	delete(t.active, a)
	t.mu.Unlock()
	return ok
}

func (t *Table) messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.active))
	for a := range t.active {
		out = append(out, a.message)
	}
	return out
}

func (t *Table) publish() {
	payload := strings.Join(t.messages(), "\n")
	t.term.TryPublish(wire.New(t.term.Signature(), []byte(payload)))
}

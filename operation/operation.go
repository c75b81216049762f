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

// Package operation allocates and tracks the monotonic, per-terminal
// operation IDs scatter/gather and request/response exchanges use to route
// responses back to the right pending callback.
package operation

import (
	"sync"
	"time"

	"github.com/nabbar/yogi/failure"
)

// ID is a positive, monotonically increasing identifier, unique per
// terminal for the lifetime of the outstanding operation. Zero is never
// issued and marks the absence of an operation.
type ID uint64

// Operation is the bookkeeping record for one outstanding scatter/gather or
// request/response exchange.
type Operation struct {
	ID       ID
	Deadline time.Time
	Expected int
	replied  int
}

// Table allocates IDs and tracks outstanding operations for a single
// terminal. The zero value is not usable; use NewTable.
type Table struct {
	mu   sync.Mutex
	next ID
	live map[ID]*Operation
}

// NewTable returns an empty, ready-to-use Table.
func NewTable() *Table {
	return &Table{
		next: 1,
		live: make(map[ID]*Operation),
	}
}

// Begin allocates a new ID and registers an Operation expecting the given
// number of responders.
func (t *Table) Begin(expected int, deadline time.Time) *Operation {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++

	op := &Operation{ID: id, Expected: expected, Deadline: deadline}
	t.live[id] = op

	return op
}

// Get returns the live operation for id, if any.
func (t *Table) Get(id ID) (*Operation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.live[id]
	return op, ok
}

// RecordReply increments the reply count for id and reports whether every
// expected responder has now replied.
func (t *Table) RecordReply(id ID) (complete bool, err failure.Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.live[id]
	if !ok {
		return false, failure.New(failure.InvalidOperationId, "no such operation")
	}

	op.replied++
	return op.replied >= op.Expected, nil
}

// Finish removes id from the table. Returns OperationNotRunning if id was
// never registered or was already finished.
func (t *Table) Finish(id ID) failure.Error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.live[id]; !ok {
		return failure.New(failure.OperationNotRunning, "operation not running")
	}

	delete(t.live, id)
	return nil
}

// Count returns the number of outstanding operations.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.live)
}

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

// Package anomaly implements the process-wide anomaly fabric: cached
// lists of active errors and warnings, each entry
// optionally self-expiring.
package anomaly

import (
	"sync"
	"time"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/timer"
)

// Kind distinguishes the two anomaly lists.
type Kind uint8

const (
	Error Kind = iota
	Warning
)

func (k Kind) String() string {
	if k == Warning {
		return "Warning"
	}
	return "Error"
}

// Anomaly is a user-declared, optionally time-limited condition tracked by
// identity within its Table: two Anomalys with the same message are
// distinct entries.
type Anomaly struct {
	kind    Kind
	message string
	table   *Table

	mu       sync.Mutex
	active   bool
	deadline *timer.Timer
}

// Kind returns which list this anomaly belongs to.
func (a *Anomaly) Kind() Kind { return a.kind }

// Message returns the anomaly's text.
func (a *Anomaly) Message() string { return a.message }

// IsActive reports whether this anomaly is currently in its table's set.
func (a *Anomaly) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Set inserts the anomaly into its table, republishing the list.
// duration <= 0 means no automatic expiry; otherwise the fabric removes
// and republishes it on its own once duration elapses, running the
// removal on the table's scheduler. Calling Set again
// before a Clear replaces any pending expiry and republishes, but the
// list's contents are unchanged across the two publications.
func (a *Anomaly) Set(duration time.Duration) {
	a.mu.Lock()
	if a.deadline == nil {
		a.deadline = timer.New(a.table.scheduler())
	}
	a.active = true
	d := a.deadline
	a.mu.Unlock()

	if duration > 0 {
		d.StartAsync(duration, func(err failure.Error) {
			if err == nil {
				a.Clear()
			}
		})
	} else {
		d.Cancel()
	}

	a.table.add(a)
	a.table.publish()
}

// Clear removes the anomaly from its table, republishing the list. A
// Clear on an anomaly that is not active is a harmless no-op.
func (a *Anomaly) Clear() {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	a.active = false
	d := a.deadline
	a.mu.Unlock()

	if d != nil {
		d.Cancel()
	}

	if a.table.remove(a) {
		a.table.publish()
	}
}

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

// Package operational implements the process-wide operational fabric: a
// cached producer at "<location>/Process/Operational"
// whose value is the AND of every registered OperationalCondition,
// republished on every change.
package operational

import "sync"

// OperationalCondition is one input to a Process's AND. Implementations
// notify every registered watcher whenever IsMet's value changes.
type OperationalCondition interface {
	IsMet() bool
	OnChange(func(bool))
}

// ManualOperationalCondition is flipped explicitly by calling code via
// Set/Clear, starting cleared.
type ManualOperationalCondition struct {
	mu       sync.Mutex
	met      bool
	watchers []func(bool)
}

// NewManualOperationalCondition returns a condition starting cleared.
func NewManualOperationalCondition() *ManualOperationalCondition {
	return &ManualOperationalCondition{}
}

func (m *ManualOperationalCondition) IsMet() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.met
}

func (m *ManualOperationalCondition) OnChange(fn func(bool)) {
	m.mu.Lock()
	m.watchers = append(m.watchers, fn)
	m.mu.Unlock()
}

// Set marks the condition met, notifying watchers if this is a change.
func (m *ManualOperationalCondition) Set() { m.transition(true) }

// Clear marks the condition unmet, notifying watchers if this is a change.
func (m *ManualOperationalCondition) Clear() { m.transition(false) }

func (m *ManualOperationalCondition) transition(met bool) {
	m.mu.Lock()
	if m.met == met {
		m.mu.Unlock()
		return
	}
	m.met = met
	watchers := append([]func(bool){}, m.watchers...)
	m.mu.Unlock()

	for _, w := range watchers {
		w(met)
	}
}

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

package terminal

import (
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
)

// DeafMuteTerminal participates in matching and binding bookkeeping only;
// it neither publishes nor receives application messages. Useful as a
// placeholder endpoint for topology discovery and tests.
type DeafMuteTerminal struct {
	*core
}

func NewDeafMute(id ID, path signature.Path, sig signature.Signature, sched scheduler.Scheduler) *DeafMuteTerminal {
	return &DeafMuteTerminal{core: newCore(id, path, sig, DeafMute, sched)}
}

// MarkBound transitions the binding state to Established. A DeafMute
// terminal carries no traffic, so matching it against a remote peer has
// nothing to wire beyond this: the endpoint/connection layer calls this
// (and MarkUnbound) directly instead of installing a Transmitter.
func (t *DeafMuteTerminal) MarkBound() { t.setBindingState(Established) }

// MarkUnbound transitions the binding state back to Released.
func (t *DeafMuteTerminal) MarkUnbound() { t.setBindingState(Released) }

func (t *DeafMuteTerminal) Close() {
	t.markClosed()
}

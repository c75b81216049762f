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

// Package observer implements the auto-reposting observer helpers:
// BindingObserver, SubscriptionObserver, MessageObserver
// and OperationalObserver. Every one of them shares the same contract --
// Add/Remove a callback, Start (snapshot current state then fire on every
// subsequent change), Stop, Destroy -- built on top of the permanent
// change watchers terminal.core and process/operational already expose,
// rather than a one-shot await that would need separate re-arming logic
// here.
package observer

import "sync/atomic"

// CallbackId identifies one callback registered with Add, for Remove.
type CallbackId uint64

var idSeq uint64

func nextCallbackId() CallbackId {
	return CallbackId(atomic.AddUint64(&idSeq, 1))
}

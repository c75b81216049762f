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

import "github.com/nabbar/yogi/wire"

// Transmitter is the narrow interface a terminal uses to hand a message to
// whatever currently has it bound: a local shortcut, or a connection's
// bounded transmit queue. The endpoint installs and removes it as binding
// state changes; a terminal with no Transmitter is unbound.
type Transmitter interface {
	// Send enqueues msg for delivery. With retry false, implementations
	// return TxQueueFull when their queue is at capacity; with retry
	// true they suspend the caller until space frees or the connection
	// dies.
	Send(msg wire.Message, retry bool) error
}

// TransmitterFunc adapts a plain function to a Transmitter.
type TransmitterFunc func(msg wire.Message, retry bool) error

func (f TransmitterFunc) Send(msg wire.Message, retry bool) error { return f(msg, retry) }

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

// Package connection defines the connection state machine and the base
// type connection/local and connection/tcp build their concrete
// transports on top of.
package connection

// State is a connection's position in the Idle -> Handshaking -> Alive ->
// Dead lifecycle. A local connection skips straight to Alive: it has no
// framing or timeouts to wait on.
type State uint8

const (
	Idle State = iota
	Handshaking
	Alive
	Dead
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Handshaking:
		return "Handshaking"
	case Alive:
		return "Alive"
	case Dead:
		return "Dead"
	default:
		return "Unknown"
	}
}

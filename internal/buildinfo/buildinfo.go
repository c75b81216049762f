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

// Package buildinfo reports the constants the library enforces during
// handshake and back-pressure, so operators and tests can assert against
// the same numbers the core uses instead of hard-coding them.
package buildinfo

import "time"

// Version is this build's library version triple, exchanged during the
// TCP handshake. Peers with a different Major are rejected with
// IncompatibleVersion.
var Version = struct {
	Major uint16
	Minor uint16
	Patch uint16
}{Major: 1, Minor: 0, Patch: 0}

// Default transmit-queue sizes and transport timeouts.
const (
	DefaultTxQueueMin       = 1
	DefaultTxQueueSize      = 128
	DefaultTxQueueMax       = 1 << 20
	DefaultHandshakeTimeout = 3 * time.Second
	DefaultHeartbeatTimeout = 10 * time.Second
	ReconnectBackoff        = 1 * time.Second
)

// MaxThreadPoolSize bounds Scheduler.SetThreadPoolSize.
const MaxThreadPoolSize = 64

// String renders the version triple as "major.minor.patch".
func String() string {
	return itoa(Version.Major) + "." + itoa(Version.Minor) + "." + itoa(Version.Patch)
}

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

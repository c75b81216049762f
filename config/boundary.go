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

// Package config defines the immutable configuration boundary the core
// consumes, and a viper-backed loader that populates it from file or
// environment for process bootstrapping. Core packages only ever see a
// Boundary value; they never import viper themselves.
package config

import (
	"time"

	"github.com/nabbar/yogi/failure"
)

// Boundary is the read-only configuration record the core consumes:
// location path, optional connection target, connection timeout, and
// identification string.
type Boundary struct {
	// Location is the process' root path. Defaults to "/".
	Location string
	// ConnectionTarget is "host:port", or empty if this process does not
	// dial out on start.
	ConnectionTarget string
	// ConnectionTimeout is the handshake deadline. Zero means the default
	// applies; the heartbeat deadline always keeps its library default.
	ConnectionTimeout time.Duration
	// Identification is the optional string exchanged during handshake.
	Identification string
}

// DefaultBoundary returns a Boundary with the defaults: location "/", no
// connection target, and no identification.
func DefaultBoundary() Boundary {
	return Boundary{
		Location: "/",
	}
}

// Validate reports whether b is a usable configuration boundary.
func (b Boundary) Validate() failure.Error {
	if b.Location == "" {
		return failure.New(failure.InvalidParam, "location must not be empty")
	}

	if b.Location[0] != '/' {
		return failure.New(failure.InvalidParam, "location must be absolute")
	}

	if b.ConnectionTimeout < 0 {
		return failure.New(failure.InvalidParam, "connection timeout must not be negative")
	}

	return nil
}

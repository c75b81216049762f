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

// Package signalset implements process-wide signal distribution: a Bus
// that multiplexes raised Signals into per-SignalSet buffered awaits,
// with a cleanup hook fired once every dispatched set has delivered or
// been destroyed. There is no package-level singleton bus: callers
// construct a Bus value and share it explicitly.
package signalset

import "strings"

// Signal is a bitmask of process-wide signal flags.
type Signal uint32

const None Signal = 0

const (
	Int Signal = 1 << iota
	Term
	Usr1
	Usr2
	Usr3
	Usr4
	Usr5
	Usr6
	Usr7
	Usr8

	All = Int | Term | Usr1 | Usr2 | Usr3 | Usr4 | Usr5 | Usr6 | Usr7 | Usr8
)

var names = [...]struct {
	bit  Signal
	name string
}{
	{Int, "Int"}, {Term, "Term"},
	{Usr1, "Usr1"}, {Usr2, "Usr2"}, {Usr3, "Usr3"}, {Usr4, "Usr4"},
	{Usr5, "Usr5"}, {Usr6, "Usr6"}, {Usr7, "Usr7"}, {Usr8, "Usr8"},
}

// String renders s as a "|"-joined list of its set bits, or "None".
func (s Signal) String() string {
	if s == None {
		return "None"
	}

	var parts []string
	for _, n := range names {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// bits returns the individual single-bit flags set in s.
func (s Signal) bits() []Signal {
	out := make([]Signal, 0, len(names))
	for _, n := range names {
		if s&n.bit != 0 {
			out = append(out, n.bit)
		}
	}
	return out
}

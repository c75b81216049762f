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

package wire

import (
	"fmt"
	"time"
)

// Precision controls how much sub-second detail Timestamp.Format renders.
type Precision uint8

const (
	Seconds Precision = iota
	Milliseconds
	Microseconds
	Nanoseconds
)

// Timestamp is a nanosecond-resolution point in time, carried optionally on
// a Message per the wire record's timestamp field.
type Timestamp struct {
	nsSinceEpoch int64
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts a standard time.Time, truncating to nanosecond precision.
func FromTime(t time.Time) Timestamp {
	return Timestamp{nsSinceEpoch: t.UnixNano()}
}

// FromNanoseconds builds a Timestamp directly from nanoseconds since the
// Unix epoch, as carried on the wire.
func FromNanoseconds(ns int64) Timestamp {
	return Timestamp{nsSinceEpoch: ns}
}

func (t Timestamp) NanosecondsSinceEpoch() int64 {
	return t.nsSinceEpoch
}

func (t Timestamp) Time() time.Time {
	return time.Unix(0, t.nsSinceEpoch)
}

func (t Timestamp) Milliseconds() int64 {
	return (t.nsSinceEpoch / int64(time.Millisecond)) % 1000
}

func (t Timestamp) Microseconds() int64 {
	return (t.nsSinceEpoch / int64(time.Microsecond)) % 1000
}

func (t Timestamp) Nanoseconds() int64 {
	return t.nsSinceEpoch % 1000
}

// Format renders the timestamp as local time truncated to the requested
// sub-second precision, e.g. "31/07/2026 14:03:02.123.456.789".
func (t Timestamp) Format(p Precision) string {
	s := t.Time().Local().Format("02/01/2006 15:04:05")

	if p >= Milliseconds {
		s += fmt.Sprintf(".%03d", t.Milliseconds())
	}
	if p >= Microseconds {
		s += fmt.Sprintf(".%03d", t.Microseconds())
	}
	if p >= Nanoseconds {
		s += fmt.Sprintf(".%03d", t.Nanoseconds())
	}

	return s
}

func (t Timestamp) String() string {
	return t.Format(Milliseconds)
}

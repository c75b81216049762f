/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the library's error interface: a stdlib error carrying a typed
// Code, an optional parent (the error it wraps or was raised alongside),
// and a capture of the call site that raised it.
type Error interface {
	error

	// Code returns the failure code carried by this error.
	Code() Code

	// IsCode reports whether this error, or any error in its parent chain,
	// carries the given code.
	IsCode(c Code) bool

	// WithParent returns a copy of this error with the given parent
	// attached, preserving the original code and message.
	WithParent(parent error) Error

	// Parent returns the wrapped error, if any.
	Parent() error

	// Trace returns the call-site description captured when the error was
	// created, formatted as "file:line func".
	Trace() string

	// Unwrap exposes the parent chain to errors.Is / errors.As.
	Unwrap() error
}

type ferr struct {
	code   Code
	msg    string
	parent error
	trace  string
}

// New creates an Error with the given code and message, capturing the
// caller's location.
func New(c Code, msg string) Error {
	return &ferr{
		code:  c,
		msg:   msg,
		trace: caller(2),
	}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(c Code, format string, args ...interface{}) Error {
	return &ferr{
		code:  c,
		msg:   fmt.Sprintf(format, args...),
		trace: caller(2),
	}
}

// Wrap creates an Error with the given code that wraps an existing error as
// its parent.
func Wrap(c Code, parent error, msg string) Error {
	return &ferr{
		code:   c,
		msg:    msg,
		parent: parent,
		trace:  caller(2),
	}
}

// FromError normalizes a plain error into an Error tagged Unknown, or
// returns it unchanged if it already is one.
func FromError(err error) Error {
	if err == nil {
		return nil
	}

	var e Error
	if errors.As(err, &e) {
		return e
	}

	return &ferr{
		code:   Unknown,
		msg:    err.Error(),
		parent: err,
		trace:  caller(2),
	}
}

func (e *ferr) Error() string {
	var b strings.Builder

	b.WriteString(e.code.String())

	if e.msg != "" {
		b.WriteString(": ")
		b.WriteString(e.msg)
	}

	if e.parent != nil {
		b.WriteString(": ")
		b.WriteString(e.parent.Error())
	}

	return b.String()
}

func (e *ferr) Code() Code {
	return e.code
}

func (e *ferr) IsCode(c Code) bool {
	if e.code == c {
		return true
	}

	var p Error
	if errors.As(e.parent, &p) {
		return p.IsCode(c)
	}

	return false
}

func (e *ferr) WithParent(parent error) Error {
	n := *e
	n.parent = parent
	return &n
}

func (e *ferr) Parent() error {
	return e.parent
}

func (e *ferr) Trace() string {
	return e.trace
}

func (e *ferr) Unwrap() error {
	return e.parent
}

// Is reports whether err carries the given code anywhere in its chain.
// It is a free function mirroring errors.Is, convenient at call sites that
// only have a plain error in hand.
func Is(err error, c Code) bool {
	var e Error
	if errors.As(err, &e) {
		return e.IsCode(c)
	}

	return false
}

// CodeOf extracts the Code carried by err, or Unknown if err is not an
// Error (or is nil, in which case Ok is returned).
func CodeOf(err error) Code {
	if err == nil {
		return Ok
	}

	var e Error
	if errors.As(err, &e) {
		return e.Code()
	}

	return Unknown
}

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

// Package ylog is the structured logger threaded through the scheduler,
// endpoints, connections, and the process fabric. Components accept a
// Logger (or FuncLog) at construction instead of reaching for a
// package-level singleton.
package ylog

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	jww "github.com/spf13/jwalterweatherman"
)

type FuncLog func() Logger

// Fields carries structured context attached to a single log entry.
type Fields map[string]interface{}

// Clone returns an independent copy of f.
func (f Fields) Clone() Fields {
	n := make(Fields, len(f))
	for k, v := range f {
		n[k] = v
	}
	return n
}

// Logger is the main structured logging interface. It wraps logrus rather
// than exposing it directly, so call sites never import logrus themselves.
type Logger interface {
	io.Writer

	// SetLevel changes the minimal level of logged messages.
	SetLevel(lvl Level)
	// GetLevel returns the minimal level of logged messages.
	GetLevel() Level

	// SetFields replaces the default fields attached to every entry.
	SetFields(f Fields)
	// GetFields returns the default fields attached to every entry.
	GetFields() Fields

	// WithFields returns a derived Logger with extra fields merged in,
	// leaving the receiver untouched.
	WithFields(f Fields) Logger

	// Clone returns an independent copy of this Logger.
	Clone() Logger

	// SetSPF13Level bridges an spf13/jwalterweatherman Notepad at the given
	// level, matching the convention cobra-based CLIs use for -v/-vv flags.
	SetSPF13Level(lvl Level, log *jww.Notepad)

	Debug(message string, fields Fields)
	Info(message string, fields Fields)
	Warning(message string, fields Fields)
	Error(message string, fields Fields)

	// CheckError logs err at lvlKO if non-nil, or at lvlOK (if not NilLevel)
	// otherwise. Returns true if err was nil.
	CheckError(lvlKO, lvlOK Level, message string, err error) bool
}

type lgr struct {
	mu     sync.RWMutex
	entry  *logrus.Logger
	fields Fields
	level  Level
}

// New returns a Logger writing to standard error at InfoLevel.
func New() Logger {
	l := &lgr{
		entry:  logrus.New(),
		fields: Fields{},
	}
	l.SetLevel(InfoLevel)
	return l
}

// NewFrom returns a Logger copying level and fields from other, if non-nil.
func NewFrom(other Logger) Logger {
	n := &lgr{
		entry:  logrus.New(),
		fields: Fields{},
	}
	n.SetLevel(InfoLevel)

	if other != nil {
		n.SetLevel(other.GetLevel())
		n.SetFields(other.GetFields())
	}

	return n
}

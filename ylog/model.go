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

package ylog

import (
	"io"

	"github.com/sirupsen/logrus"
	jww "github.com/spf13/jwalterweatherman"
)

func (l *lgr) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level = lvl
	l.entry.SetLevel(lvl.logrus())
}

func (l *lgr) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.level
}

func (l *lgr) SetFields(f Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fields = f.Clone()
}

func (l *lgr) GetFields() Fields {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.fields.Clone()
}

func (l *lgr) WithFields(f Fields) Logger {
	n := l.Clone().(*lgr)
	merged := n.GetFields()
	for k, v := range f {
		merged[k] = v
	}
	n.SetFields(merged)
	return n
}

func (l *lgr) Clone() Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := &lgr{
		entry:  l.entry,
		fields: l.fields.Clone(),
		level:  l.level,
	}

	return n
}

func (l *lgr) SetSPF13Level(lvl Level, log *jww.Notepad) {
	if log == nil {
		return
	}

	log.SetLogThreshold(jwwThreshold(lvl))
	log.SetLogOutput(l)
}

func jwwThreshold(lvl Level) jww.Threshold {
	switch lvl {
	case DebugLevel:
		return jww.LevelTrace
	case InfoLevel:
		return jww.LevelInfo
	case WarnLevel:
		return jww.LevelWarn
	case ErrorLevel:
		return jww.LevelError
	case FatalLevel, PanicLevel:
		return jww.LevelCritical
	default:
		return jww.LevelInfo
	}
}

// Write implements io.Writer, letting this Logger back an spf13/jwalterweatherman
// Notepad or the standard library's log.Logger.
func (l *lgr) Write(p []byte) (n int, err error) {
	l.mu.RLock()
	e := l.entry
	f := l.fields
	l.mu.RUnlock()

	e.WithFields(logrus.Fields(f)).Info(string(p))
	return len(p), nil
}

var _ io.Writer = (*lgr)(nil)

func (l *lgr) entryWith(fields Fields) *logrus.Entry {
	merged := l.GetFields()
	for k, v := range fields {
		merged[k] = v
	}
	return l.entry.WithFields(logrus.Fields(merged))
}

func (l *lgr) Debug(message string, fields Fields) {
	l.entryWith(fields).Debug(message)
}

func (l *lgr) Info(message string, fields Fields) {
	l.entryWith(fields).Info(message)
}

func (l *lgr) Warning(message string, fields Fields) {
	l.entryWith(fields).Warn(message)
}

func (l *lgr) Error(message string, fields Fields) {
	l.entryWith(fields).Error(message)
}

func (l *lgr) CheckError(lvlKO, lvlOK Level, message string, err error) bool {
	if err != nil {
		l.log(lvlKO, message, Fields{"error": err.Error()})
		return false
	}

	if lvlOK != NilLevel {
		l.log(lvlOK, message, nil)
	}

	return true
}

func (l *lgr) log(lvl Level, message string, fields Fields) {
	switch lvl {
	case DebugLevel:
		l.Debug(message, fields)
	case InfoLevel:
		l.Info(message, fields)
	case WarnLevel:
		l.Warning(message, fields)
	case ErrorLevel, FatalLevel, PanicLevel:
		l.Error(message, fields)
	}
}

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

// Package failure implements the library's typed failure-code taxonomy and
// error hierarchy. It is named failure, not errors, to avoid colliding with
// the stdlib package of the same name in import statements.
package failure

import (
	"fmt"
	"sync"
)

// Code is a typed failure code. Zero value is Ok: no failure.
type Code uint16

const (
	Ok Code = iota
	Unknown
	ObjectStillUsed
	BadAlloc
	InvalidParam
	InvalidHandle
	WrongObjectType
	Canceled
	Busy
	Timeout
	TimerExpired
	BufferTooSmall
	OpenSocket
	BindSocket
	Listen
	SetSockOpt
	Accept
	Connect
	Rw
	InvalidMagicPrefix
	IncompatibleVersion
	DeserializeMsg
	LoopbackConnection
	PasswordMismatch
	NetNameMismatch
	DuplicateBranchName
	DuplicateBranchPath
	PayloadTooLarge
	TxQueueFull
	InvalidOperationId
	OperationNotRunning

	// domain-specific additions required by terminal/binding semantics.
	NotBound
	NoCachedMessage
	DuplicateTerminal
	SignatureMismatch

	maxKnownCode
)

var (
	mu      sync.RWMutex
	message = map[Code]string{
		Ok:                   "ok",
		Unknown:              "unknown error",
		ObjectStillUsed:      "object still used",
		BadAlloc:             "allocation failed",
		InvalidParam:         "invalid parameter",
		InvalidHandle:        "invalid handle",
		WrongObjectType:      "wrong object type",
		Canceled:             "canceled",
		Busy:                 "busy",
		Timeout:              "timeout",
		TimerExpired:         "timer expired",
		BufferTooSmall:       "buffer too small",
		OpenSocket:           "could not open socket",
		BindSocket:           "could not bind socket",
		Listen:               "could not listen on socket",
		SetSockOpt:           "could not set socket option",
		Accept:               "could not accept connection",
		Connect:              "could not connect",
		Rw:                   "read/write error",
		InvalidMagicPrefix:   "invalid magic prefix",
		IncompatibleVersion:  "incompatible version",
		DeserializeMsg:       "could not deserialize message",
		LoopbackConnection:   "loopback connection",
		PasswordMismatch:     "password mismatch",
		NetNameMismatch:      "network name mismatch",
		DuplicateBranchName:  "duplicate branch name",
		DuplicateBranchPath:  "duplicate branch path",
		PayloadTooLarge:      "payload too large",
		TxQueueFull:          "transmit queue full",
		InvalidOperationId:   "invalid operation id",
		OperationNotRunning:  "operation not running",
		NotBound:             "terminal not bound",
		NoCachedMessage:      "no cached message available",
		DuplicateTerminal:    "duplicate terminal",
		SignatureMismatch:    "signature mismatch",
	}
)

// String implements fmt.Stringer.
func (c Code) String() string {
	mu.RLock()
	defer mu.RUnlock()

	if m, k := message[c]; k {
		return m
	}

	return fmt.Sprintf("code(%d)", uint16(c))
}

// Uint16 returns the numeric value of the code.
func (c Code) Uint16() uint16 {
	return uint16(c)
}

// IsOk reports whether the code represents success.
func (c Code) IsOk() bool {
	return c == Ok
}

// RegisterMessage overrides or adds the human-readable message for a code.
// Used by callers that extend the taxonomy with their own domain codes.
func RegisterMessage(c Code, msg string) {
	mu.Lock()
	defer mu.Unlock()

	message[c] = msg
}

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

package tcp

import (
	"net"
	"sync"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/metrics"
	"github.com/nabbar/yogi/ylog"
)

// AcceptHandler receives the result of one Accept attempt: a fresh,
// handshaken but unassigned Connection, or a failure.
type AcceptHandler func(conn *Connection, err failure.Error)

// Server listens for inbound TCP connections and hands each one, once
// handshaken, to an AcceptHandler.
type Server struct {
	ln  net.Listener
	cfg Config
	log ylog.Logger
	mx  *metrics.Collectors

	mu      sync.Mutex
	pending AcceptHandler
	gen     uint64
}

// Listen binds addr and returns a ready Server. Fails Listen on the
// underlying net error.
func Listen(addr string, cfg Config, log ylog.Logger, mx *metrics.Collectors) (*Server, failure.Error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, failure.Wrap(failure.Listen, err, "listen "+addr)
	}
	return &Server{ln: ln, cfg: cfg, log: log, mx: mx}, nil
}

// Addr returns the server's bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Accept waits for (and handshakes) the next inbound connection on a
// background goroutine, delivering it to handler exactly once. A second
// call while one is pending fails Busy.
func (s *Server) Accept(handler AcceptHandler) failure.Error {
	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return failure.New(failure.Busy, "accept already pending")
	}
	s.gen++
	gen := s.gen
	s.pending = handler
	s.mu.Unlock()

	go s.acceptOnce(gen)
	return nil
}

func (s *Server) acceptOnce(gen uint64) {
	conn, err := s.ln.Accept()

	s.mu.Lock()
	h := s.pending
	if s.gen != gen {
		h = nil
	}
	s.pending = nil
	s.mu.Unlock()

	if h == nil {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		h(nil, failure.Wrap(failure.Accept, err, "accept"))
		return
	}

	c := New(conn, s.cfg, s.log, s.mx)
	if hsErr := c.Handshake(false); hsErr != nil {
		h(nil, hsErr)
		return
	}

	h(c, nil)
}

// CancelAccept delivers Canceled to a pending Accept handler. The
// in-flight net.Listener.Accept call itself is abandoned (its result, if
// any, is discarded) rather than interrupted, matching Go's lack of a
// cancellable Accept.
func (s *Server) CancelAccept() bool {
	s.mu.Lock()
	h := s.pending
	s.pending = nil
	s.gen++
	s.mu.Unlock()

	if h == nil {
		return false
	}
	h(nil, failure.New(failure.Canceled, "accept canceled"))
	return true
}

// Close stops the listener; any pending Accept observes an Accept error.
func (s *Server) Close() error {
	return s.ln.Close()
}

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

// ConnectHandler receives the result of one Connect attempt.
type ConnectHandler func(conn *Connection, err failure.Error)

// Client dials a single remote address and hands the handshaken result to
// a ConnectHandler. connection/autoconnect builds the
// reconnect-with-backoff supervisor on top of it.
type Client struct {
	addr string
	cfg  Config
	log  ylog.Logger
	mx   *metrics.Collectors

	mu      sync.Mutex
	pending ConnectHandler
	gen     uint64
}

// NewClient returns a Client that will dial addr on Connect.
func NewClient(addr string, cfg Config, log ylog.Logger, mx *metrics.Collectors) *Client {
	return &Client{addr: addr, cfg: cfg, log: log, mx: mx}
}

// Connect dials and handshakes on a background goroutine, delivering the
// result to handler exactly once. A second call while one is pending fails
// Busy.
func (c *Client) Connect(handler ConnectHandler) failure.Error {
	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return failure.New(failure.Busy, "connect already pending")
	}
	c.gen++
	gen := c.gen
	c.pending = handler
	c.mu.Unlock()

	go c.connectOnce(gen)
	return nil
}

func (c *Client) connectOnce(gen uint64) {
	conn, err := net.Dial("tcp", c.addr)

	c.mu.Lock()
	h := c.pending
	if c.gen != gen {
		h = nil
	}
	c.pending = nil
	c.mu.Unlock()

	if h == nil {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		h(nil, failure.Wrap(failure.Connect, err, "dial "+c.addr))
		return
	}

	cn := New(conn, c.cfg, c.log, c.mx)
	if hsErr := cn.Handshake(true); hsErr != nil {
		h(nil, hsErr)
		return
	}

	h(cn, nil)
}

// CancelConnect delivers Canceled to a pending Connect handler. The
// in-flight net.Dial call itself is abandoned rather than interrupted,
// matching Go's lack of a cancellable Dial.
func (c *Client) CancelConnect() bool {
	c.mu.Lock()
	h := c.pending
	c.pending = nil
	c.gen++
	c.mu.Unlock()

	if h == nil {
		return false
	}
	h(nil, failure.New(failure.Canceled, "connect canceled"))
	return true
}

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

// Package autoconnect implements the reconnect-with-backoff supervisor:
// Stopped -> Connecting -> Connected -> Waiting(1s) -> Connecting,
// driven by a single background goroutine rather than a
// timer-per-attempt design.
package autoconnect

import (
	"sync"
	"time"

	"github.com/nabbar/yogi/config"
	"github.com/nabbar/yogi/connection/tcp"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/internal/buildinfo"
	"github.com/nabbar/yogi/metrics"
	"github.com/nabbar/yogi/ylog"
)

// State is AutoConnectingTcpClient's supervisor state.
type State uint8

const (
	Stopped State = iota
	Connecting
	Connected
	Waiting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Waiting:
		return "Waiting"
	default:
		return "Stopped"
	}
}

// ConnectObserver fires after every connect attempt, successful or not.
type ConnectObserver func(conn *tcp.Connection, err failure.Error)

// DisconnectObserver fires once when a previously established connection
// dies.
type DisconnectObserver func(cause failure.Error)

// Client owns a background goroutine that keeps a single TCP connection
// to addr alive, reconnecting with a fixed back-off after every failure
// or death.
type Client struct {
	addr    string
	cfg     tcp.Config
	log     ylog.Logger
	mx      *metrics.Collectors
	backoff time.Duration

	mu        sync.Mutex
	state     State
	conn      *tcp.Connection
	onConnect ConnectObserver
	onLost    DisconnectObserver

	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns a Stopped Client. backoff, if zero, defaults to
// buildinfo.ReconnectBackoff.
func New(addr string, cfg tcp.Config, backoff time.Duration, log ylog.Logger, mx *metrics.Collectors) *Client {
	if backoff <= 0 {
		backoff = buildinfo.ReconnectBackoff
	}
	return &Client{addr: addr, cfg: cfg, log: log, mx: mx, backoff: backoff}
}

// NewFromBoundary returns a Stopped Client targeting b.ConnectionTarget,
// deriving its handshake timeout and identification from b via
// tcp.ConfigFromBoundary rather than a caller-assembled tcp.Config:
// callers that already have a Boundary never need to touch tcp.Config
// directly.
func NewFromBoundary(b config.Boundary, log ylog.Logger, mx *metrics.Collectors) *Client {
	return New(b.ConnectionTarget, tcp.ConfigFromBoundary(b), 0, log, mx)
}

// SetConnectObserver installs the handler fired after each connect
// attempt. Must be called before Start to observe the first attempt.
func (c *Client) SetConnectObserver(h ConnectObserver) {
	c.mu.Lock()
	c.onConnect = h
	c.mu.Unlock()
}

// SetDisconnectObserver installs the handler fired once an established
// connection dies.
func (c *Client) SetDisconnectObserver(h DisconnectObserver) {
	c.mu.Lock()
	c.onLost = h
	c.mu.Unlock()
}

// State returns the supervisor's current state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start launches the reconnect loop if currently Stopped. A second call
// while already running is a no-op.
func (c *Client) Start() {
	c.mu.Lock()
	if c.state != Stopped {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.mu.Unlock()

	go c.run()
}

// Destroy stops the background thread within one wait cycle and closes
// the active connection, if any.
func (c *Client) Destroy() {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return
	}
	stop := c.stopCh
	c.mu.Unlock()

	close(stop)
	<-c.doneCh

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = Stopped
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *Client) run() {
	defer close(c.doneCh)

	for {
		c.mu.Lock()
		stop := c.stopCh
		c.state = Connecting
		c.mu.Unlock()

		conn, err := c.connectOnce()

		c.mu.Lock()
		observer := c.onConnect
		c.mu.Unlock()
		if observer != nil {
			observer(conn, err)
		}

		if err != nil {
			if !c.wait(stop) {
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.state = Connected
		c.mu.Unlock()

		lost := make(chan failure.Error, 1)
		_ = conn.AwaitDeath(func(cause failure.Error) { lost <- cause })

		select {
		case cause := <-lost:
			c.mu.Lock()
			c.conn = nil
			onLost := c.onLost
			c.mu.Unlock()
			if onLost != nil {
				onLost(cause)
			}
		case <-stop:
			conn.Close()
			return
		}

		if !c.wait(stop) {
			return
		}
	}
}

func (c *Client) connectOnce() (*tcp.Connection, failure.Error) {
	result := make(chan struct {
		conn *tcp.Connection
		err  failure.Error
	}, 1)

	cl := tcp.NewClient(c.addr, c.cfg, c.log, c.mx)
	if err := cl.Connect(func(conn *tcp.Connection, err failure.Error) {
		result <- struct {
			conn *tcp.Connection
			err  failure.Error
		}{conn, err}
	}); err != nil {
		return nil, err
	}

	r := <-result
	return r.conn, r.err
}

// wait blocks for the back-off duration, returning false if stop fired
// first (Destroy was called).
func (c *Client) wait(stop chan struct{}) bool {
	c.mu.Lock()
	c.state = Waiting
	c.mu.Unlock()

	t := time.NewTimer(c.backoff)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}

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

// Package tcp implements the non-local connection transport: a framed
// handshake over a net.Conn, a heartbeat-guarded Alive
// phase, and the TcpServer/TcpClient accept/connect supervisors. A
// Dispatcher installed before the handshake completes receives every
// inbound Frame once the connection reaches Alive.
package tcp

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/yogi/config"
	"github.com/nabbar/yogi/connection"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/internal/buildinfo"
	"github.com/nabbar/yogi/metrics"
	"github.com/nabbar/yogi/wire"
	"github.com/nabbar/yogi/ylog"
)

// Dispatcher receives every inbound Frame once the connection is Alive.
// Frames decoded before one is installed are buffered (up to the transmit
// queue size) and replayed on SetDispatcher; the heartbeat deadline resets
// either way.
type Dispatcher interface {
	DispatchFrame(c *Connection, f wire.Frame)
}

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc func(c *Connection, f wire.Frame)

func (f DispatcherFunc) DispatchFrame(c *Connection, fr wire.Frame) { f(c, fr) }

// Config bounds a Connection's handshake/heartbeat deadlines and transmit
// queue, and carries the free-form identification exchanged at handshake.
type Config struct {
	HandshakeTimeout time.Duration
	HeartbeatTimeout time.Duration
	Identification   string
	TxQueueSize      int
}

// DefaultConfig returns the library's default timeouts and queue size
// (buildinfo.DefaultHandshakeTimeout / DefaultHeartbeatTimeout /
// DefaultTxQueueSize).
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: buildinfo.DefaultHandshakeTimeout,
		HeartbeatTimeout: buildinfo.DefaultHeartbeatTimeout,
		TxQueueSize:      buildinfo.DefaultTxQueueSize,
	}
}

// ConfigFromBoundary derives a Config from the configuration boundary: b.ConnectionTimeout overrides the handshake deadline (the
// heartbeat deadline and queue size stay at their library defaults, since
// the boundary has no field for either), and b.Identification is carried
// through to the handshake as-is.
func ConfigFromBoundary(b config.Boundary) Config {
	cfg := DefaultConfig()
	if b.ConnectionTimeout > 0 {
		cfg.HandshakeTimeout = b.ConnectionTimeout
	}
	cfg.Identification = b.Identification
	return cfg
}

// Connection is a TCP transport implementing connection.Connection, plus
// Assign/heartbeat/frame pump semantics on top of connection.Base.
type Connection struct {
	*connection.Base

	conn   net.Conn
	reader *bufio.Reader
	cfg    Config
	log    ylog.Logger
	mx     *metrics.Collectors

	dispatchMu sync.Mutex
	dispatcher Dispatcher
	inBacklog  []wire.Frame

	tx        *txQueue
	closeOnce sync.Once
	heartbeat atomic.Int64
	done      chan struct{}
}

// New wraps conn, not yet handshaken (state Idle). The connection's
// description is conn's remote address.
func New(conn net.Conn, cfg Config, log ylog.Logger, mx *metrics.Collectors) *Connection {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = buildinfo.DefaultHandshakeTimeout
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = buildinfo.DefaultHeartbeatTimeout
	}
	if cfg.TxQueueSize <= 0 {
		cfg.TxQueueSize = buildinfo.DefaultTxQueueSize
	}

	return &Connection{
		Base:   connection.NewBase(conn.RemoteAddr().String()),
		conn:   conn,
		reader: bufio.NewReader(conn),
		cfg:    cfg,
		log:    log,
		mx:     mx,
		done:   make(chan struct{}),
	}
}

// SetDispatcher installs the Frame handler used once the connection
// reaches Alive. Frames decoded before any dispatcher is installed are
// buffered and replayed to d here, so a peer that streams its discovery
// catalogue immediately after the handshake loses nothing while the
// accept/connect handler is still wiring the connection up.
func (c *Connection) SetDispatcher(d Dispatcher) {
	c.dispatchMu.Lock()
	c.dispatcher = d
	backlog := c.inBacklog
	c.inBacklog = nil
	c.dispatchMu.Unlock()

	for _, f := range backlog {
		d.DispatchFrame(c, f)
	}
}

// dispatchIn routes one decoded inbound frame, buffering it if no
// dispatcher is installed yet.
func (c *Connection) dispatchIn(f wire.Frame) {
	c.dispatchMu.Lock()
	d := c.dispatcher
	if d == nil && len(c.inBacklog) < c.cfg.TxQueueSize {
		c.inBacklog = append(c.inBacklog, f)
	}
	c.dispatchMu.Unlock()

	if d != nil {
		d.DispatchFrame(c, f)
	}
}

// Handshake performs the version/identification exchange.
// On success the connection moves to Alive and its read/write pumps
// start; the heartbeat timeout only begins counting once Assign is
// called. On failure the connection is marked Dead with the cause.
func (c *Connection) Handshake(initiator bool) failure.Error {
	c.SetHandshaking()
	_ = c.conn.SetDeadline(time.Now().Add(c.cfg.HandshakeTimeout))

	own := wire.Handshake{Major: buildinfo.Version.Major, Minor: buildinfo.Version.Minor, Patch: buildinfo.Version.Patch, Identification: c.cfg.Identification}

	var writeErr, readErr failure.Error
	var peer wire.Handshake

	if initiator {
		writeErr = wire.WriteHandshake(c.conn, own)
		if writeErr == nil {
			peer, readErr = wire.ReadHandshake(c.reader, own)
		}
	} else {
		peer, readErr = wire.ReadHandshake(c.reader, own)
		if readErr == nil || readErr.Code() == failure.IncompatibleVersion {
			writeErr = wire.WriteHandshake(c.conn, own)
		}
	}

	_ = c.conn.SetDeadline(time.Time{})

	if writeErr != nil {
		c.fail(writeErr)
		return writeErr
	}
	if readErr != nil {
		c.fail(readErr)
		return readErr
	}

	c.SetRemoteInfo(versionString(peer), peer.Identification)
	c.tx = newTxQueue(c.Description(), c.cfg.TxQueueSize, c.mx)
	c.SetAlive()

	go c.readLoop()
	go c.writeLoop()

	return nil
}

func versionString(h wire.Handshake) string {
	return itoa16(h.Major) + "." + itoa16(h.Minor) + "." + itoa16(h.Patch)
}

func itoa16(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func (c *Connection) fail(cause failure.Error) {
	c.MarkDead(cause)
	_ = c.conn.Close()
}

// Assign may be called exactly once, after Handshake succeeds: it arms
// the heartbeat deadline (idle timeout) so the connection dies if no
// frame and no heartbeat arrives within it, and starts sending its own
// heartbeats at a third of that deadline so an otherwise idle but
// healthy link stays Alive.
func (c *Connection) Assign(timeout time.Duration) failure.Error {
	if err := c.TryAssign(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = c.cfg.HeartbeatTimeout
	}
	c.heartbeat.Store(int64(timeout))
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	go c.heartbeatLoop(timeout / 3)
	return nil
}

func (c *Connection) heartbeatLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-tick.C:
			if err := c.Send(wire.Frame{Tag: wire.TagHeartbeat}); err != nil {
				return
			}
		}
	}
}

// Send enqueues f for transmission, failing TxQueueFull if the transmit
// queue is at capacity, or InvalidHandle if the connection is dead.
func (c *Connection) Send(f wire.Frame) failure.Error {
	if c.tx == nil {
		return failure.New(failure.InvalidHandle, "connection not alive")
	}
	return c.tx.Enqueue(f)
}

// SendWait is the retry=true variant of Send: it blocks until space frees
// in the transmit queue or the connection dies.
func (c *Connection) SendWait(f wire.Frame) failure.Error {
	if c.tx == nil {
		return failure.New(failure.InvalidHandle, "connection not alive")
	}
	return c.tx.EnqueueWait(f)
}

func (c *Connection) writeLoop() {
	for {
		f, ok := c.tx.Dequeue()
		if !ok {
			return
		}
		if err := wire.WriteFrame(c.conn, f); err != nil {
			c.die(err)
			return
		}
	}
}

func (c *Connection) readLoop() {
	for {
		f, err := wire.ReadFrame(c.reader)
		if err != nil {
			c.die(err)
			return
		}

		if hb := c.heartbeat.Load(); hb > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(time.Duration(hb)))
		}

		if f.Tag == wire.TagHeartbeat {
			continue
		}

		c.dispatchIn(f)
	}
}

func (c *Connection) die(cause failure.Error) {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.tx != nil {
			c.tx.Close()
		}
		_ = c.conn.Close()
		c.MarkDead(cause)
		if c.log != nil {
			c.log.Info("connection closed", ylog.Fields{"description": c.Description(), "instance_id": c.InstanceID(), "cause": cause.Error()})
		}
	})
}

// Close transitions the connection to Dead (idempotently) and releases
// the underlying socket.
func (c *Connection) Close() {
	c.die(failure.New(failure.Canceled, "closed by caller"))
}


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

// Package process is the composition root tying one Boundary value to
// the subsystems built from it, threaded explicitly into every
// constructor that needs it instead of a package global. Interface
// owns the Node its operational/anomaly/log fabric attach to and, when
// Boundary.ConnectionTarget is set, the AutoConnectingTcpClient that
// keeps a connection to it alive.
package process

import (
	"sync"

	"github.com/nabbar/yogi/config"
	"github.com/nabbar/yogi/connection/autoconnect"
	"github.com/nabbar/yogi/connection/tcp"
	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/metrics"
	"github.com/nabbar/yogi/process/anomaly"
	"github.com/nabbar/yogi/process/logdist"
	"github.com/nabbar/yogi/process/operational"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/ylog"
)

// Interface ties a single config.Boundary to the Node and process-wide
// fabric built from it. Constructed at most once per process:
// operational.New already enforces the "constructed at most once"
// singleton guarantee, and New fails the same way if called twice.
type Interface struct {
	boundary config.Boundary

	Node        *endpoint.Node
	Operational *operational.Process
	Errors      *anomaly.Table
	Warnings    *anomaly.Table
	Log         *logdist.Producer

	mu         sync.Mutex
	supervisor *autoconnect.Client
}

// New validates b, attaches the operational/anomaly/log fabric to a
// fresh Node rooted at b.Location, and, if b.ConnectionTarget is set,
// starts an AutoConnectingTcpClient dialing it with b.ConnectionTimeout
// and b.Identification applied via tcp.ConfigFromBoundary. Every
// connection the supervisor establishes is bridged onto the Node
// immediately, the same way a directly-constructed NodeBridge would be.
func New(b config.Boundary, sched scheduler.Scheduler, log ylog.Logger, mx *metrics.Collectors) (*Interface, failure.Error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	node := endpoint.NewNode(sched, log)
	node.SetMetrics(mx)

	op, err := operational.New(b.Location, node)
	if err != nil {
		return nil, err
	}

	errs, err := anomaly.NewErrorsTable(b.Location, node)
	if err != nil {
		return nil, err
	}

	warns, err := anomaly.NewWarningsTable(b.Location, node)
	if err != nil {
		return nil, err
	}

	logProducer, err := logdist.NewProducer(b.Location, node)
	if err != nil {
		return nil, err
	}

	p := &Interface{
		boundary:    b,
		Node:        node,
		Operational: op,
		Errors:      errs,
		Warnings:    warns,
		Log:         logProducer,
	}

	if b.ConnectionTarget != "" {
		sup := autoconnect.NewFromBoundary(b, log, mx)
		sup.SetConnectObserver(func(conn *tcp.Connection, cerr failure.Error) {
			if conn == nil {
				return
			}
			tcp.NewNodeBridge(node, conn).Announce()
		})
		sup.Start()

		p.mu.Lock()
		p.supervisor = sup
		p.mu.Unlock()
	}

	return p, nil
}

// Boundary returns the config.Boundary this Interface was built from.
func (p *Interface) Boundary() config.Boundary { return p.boundary }

// Supervisor returns the AutoConnectingTcpClient started for
// Boundary.ConnectionTarget, or nil if this process was not configured
// to dial out.
func (p *Interface) Supervisor() *autoconnect.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.supervisor
}

// Destroy stops the reconnect supervisor, if any, within one wait cycle.
// The Node and its terminals outlive it; callers detach those themselves.
func (p *Interface) Destroy() {
	p.mu.Lock()
	s := p.supervisor
	p.mu.Unlock()

	if s != nil {
		s.Destroy()
	}
}

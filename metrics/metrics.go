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

// Package metrics exposes the optional Prometheus collectors for the
// scheduler, connections, endpoints, and terminals. Every gauge is a
// no-op cost-wise until a caller
// registers the collector set with a prometheus.Registerer; nothing in
// the core depends on metrics being scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles the gauges the scheduler, connection, and terminal
// registries update as they run.
type Collectors struct {
	SchedulerQueueDepth    *prometheus.GaugeVec
	SchedulerWorkersActive *prometheus.GaugeVec
	ConnectionTxQueueDepth *prometheus.GaugeVec
	TerminalCount          *prometheus.GaugeVec
	OperationsOutstanding  *prometheus.GaugeVec
}

// New constructs a fresh, unregistered Collectors set.
func New() *Collectors {
	return &Collectors{
		SchedulerQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yogi_scheduler_queue_depth",
			Help: "Number of handlers queued but not yet dispatched to a worker.",
		}, []string{"scheduler"}),
		SchedulerWorkersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yogi_scheduler_workers_active",
			Help: "Number of scheduler worker goroutines currently running a handler.",
		}, []string{"scheduler"}),
		ConnectionTxQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yogi_connection_tx_queue_depth",
			Help: "Number of frames buffered for transmission on a connection.",
		}, []string{"connection"}),
		TerminalCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yogi_terminal_count",
			Help: "Number of terminals registered on an endpoint, by variant.",
		}, []string{"endpoint", "variant"}),
		OperationsOutstanding: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "yogi_operations_outstanding",
			Help: "Number of scatter/gather or request/response operations awaiting completion.",
		}, []string{"terminal"}),
	}
}

// MustRegister registers every collector in the set with reg.
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.SchedulerQueueDepth,
		c.SchedulerWorkersActive,
		c.ConnectionTxQueueDepth,
		c.TerminalCount,
		c.OperationsOutstanding,
	)
}

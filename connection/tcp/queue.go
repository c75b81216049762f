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
	"sync"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/metrics"
	"github.com/nabbar/yogi/wire"
)

// txQueue is the bounded, per-connection transmit buffer back-pressure
// is defined against: Enqueue fails TxQueueFull once it is
// at capacity, EnqueueWait blocks a retrying caller until space frees or
// the queue is closed (the connection died).
type txQueue struct {
	name string
	mx   *metrics.Collectors

	mu     sync.Mutex
	cond   *sync.Cond
	items  []wire.Frame
	max    int
	closed bool
}

func newTxQueue(name string, max int, mx *metrics.Collectors) *txQueue {
	q := &txQueue{name: name, max: max, mx: mx}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *txQueue) setDepthMetric() {
	if q.mx != nil {
		q.mx.ConnectionTxQueueDepth.WithLabelValues(q.name).Set(float64(len(q.items)))
	}
}

// Enqueue appends f without blocking. It fails TxQueueFull if the queue is
// already at capacity, and InvalidHandle if the queue has been closed.
func (q *txQueue) Enqueue(f wire.Frame) failure.Error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return failure.New(failure.InvalidHandle, "connection is dead")
	}
	if len(q.items) >= q.max {
		return failure.New(failure.TxQueueFull, "transmit queue full")
	}

	q.items = append(q.items, f)
	q.setDepthMetric()
	q.cond.Signal()
	return nil
}

// EnqueueWait blocks until space frees in the queue or it is closed, in
// which case it fails InvalidHandle. It backs the retry=true variant of a
// publish.
func (q *txQueue) EnqueueWait(f wire.Frame) failure.Error {
	q.mu.Lock()
	for !q.closed && len(q.items) >= q.max {
		q.cond.Wait()
	}
	if q.closed {
		q.mu.Unlock()
		return failure.New(failure.InvalidHandle, "connection is dead")
	}

	q.items = append(q.items, f)
	q.setDepthMetric()
	q.cond.Signal()
	q.mu.Unlock()
	return nil
}

// Dequeue blocks until a frame is available or the queue is closed, in
// which case it returns ok=false.
func (q *txQueue) Dequeue() (wire.Frame, bool) {
	q.mu.Lock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		q.mu.Unlock()
		return wire.Frame{}, false
	}

	f := q.items[0]
	q.items = q.items[1:]
	q.setDepthMetric()
	q.cond.Broadcast()
	q.mu.Unlock()
	return f, true
}

// Close wakes every blocked Enqueue/Dequeue caller so they observe closed.
func (q *txQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

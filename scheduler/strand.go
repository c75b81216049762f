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

package scheduler

import "sync"

// Strand serializes a sequence of closures onto a Scheduler: at most one
// closure posted to the same Strand runs at a time, in posting order, while
// closures on distinct Strands may run concurrently on different workers.
// Every terminal in this module owns exactly one Strand for this reason.
type Strand interface {
	Post(fn func())
}

type strand struct {
	sched *scheduler

	mu      sync.Mutex
	queue   []func()
	running bool
}

func (s *strand) Post(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	alreadyRunning := s.running
	s.running = true
	s.mu.Unlock()

	if !alreadyRunning {
		s.sched.Post(s.drain)
	}
}

func (s *strand) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}

		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn()
	}
}

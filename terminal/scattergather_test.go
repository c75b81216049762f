package terminal_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/operation"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

type fakeScatterTx struct {
	sent      map[operation.ID]wire.Message
	responses map[operation.ID][]wire.Message
	ignored   map[operation.ID]bool
	canceled  map[operation.ID]bool
	failNext  bool
}

func newFakeScatterTx() *fakeScatterTx {
	return &fakeScatterTx{
		sent:      map[operation.ID]wire.Message{},
		responses: map[operation.ID][]wire.Message{},
		ignored:   map[operation.ID]bool{},
		canceled:  map[operation.ID]bool{},
	}
}

func (f *fakeScatterTx) SendScatter(id operation.ID, msg wire.Message) error {
	if f.failNext {
		return errFailNext
	}
	f.sent[id] = msg
	return nil
}

func (f *fakeScatterTx) SendResponse(id operation.ID, msg wire.Message) error {
	f.responses[id] = append(f.responses[id], msg)
	return nil
}

func (f *fakeScatterTx) SendIgnore(id operation.ID) error {
	f.ignored[id] = true
	return nil
}

func (f *fakeScatterTx) CancelOperation(id operation.ID) error {
	f.canceled[id] = true
	return nil
}

type sentinelErr struct{ s string }

func (e *sentinelErr) Error() string { return e.s }

var errFailNext = &sentinelErr{"send failed"}

var _ = Describe("ScatterGatherTerminal", func() {
	var (
		sched scheduler.Scheduler
		path  signature.Path
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/demo")
	})

	It("rejects non scatter/gather variants", func() {
		_, err := terminal.NewScatterGather(1, path, 0x1, terminal.PublishSubscribe, sched)
		Expect(err).NotTo(BeNil())
	})

	It("fails to initiate when unbound", func() {
		sg, _ := terminal.NewScatterGather(1, path, 0x1, terminal.ScatterGather, sched)
		_, err := sg.ScatterGather(wire.New(0x1, nil), 1, time.Time{}, func(terminal.GatherResult) terminal.Action { return terminal.Stop })
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.NotBound))
	})

	It("gathers responses from every expected responder before completing", func() {
		sg, _ := terminal.NewScatterGather(1, path, 0x1, terminal.ScatterGather, sched)
		tx := newFakeScatterTx()
		sg.BindTransmitter(tx)

		var results []terminal.GatherResult
		id, err := sg.ScatterGather(wire.New(0x1, []byte("q")), 2, time.Time{}, func(r terminal.GatherResult) terminal.Action {
			results = append(results, r)
			return terminal.Continue
		})
		Expect(err).To(BeNil())
		Expect(tx.sent).To(HaveKey(id))

		sg.DeliverGatherResult(id, terminal.GatherResult{Message: wire.New(0x1, []byte("a")), Finished: true})
		sched.Poll()
		Expect(sg.CancelScatterGather(id)).To(BeTrue())
		sched.Poll()

		Expect(results).To(HaveLen(2))
	})

	It("completes once every expected responder has finished", func() {
		sg, _ := terminal.NewScatterGather(1, path, 0x1, terminal.ScatterGather, sched)
		tx := newFakeScatterTx()
		sg.BindTransmitter(tx)

		id, _ := sg.ScatterGather(wire.New(0x1, nil), 2, time.Time{}, func(terminal.GatherResult) terminal.Action {
			return terminal.Continue
		})

		sg.DeliverGatherResult(id, terminal.GatherResult{Message: wire.New(0x1, []byte("a")), Finished: true})
		sched.Poll()
		sg.DeliverGatherResult(id, terminal.GatherResult{Message: wire.New(0x1, []byte("b")), Finished: true})
		sched.Poll()

		Expect(sg.CancelScatterGather(id)).To(BeFalse())
	})

	It("does not count a streamed partial gather toward completion", func() {
		sg, _ := terminal.NewScatterGather(1, path, 0x1, terminal.ScatterGather, sched)
		tx := newFakeScatterTx()
		sg.BindTransmitter(tx)

		id, _ := sg.ScatterGather(wire.New(0x1, nil), 1, time.Time{}, func(terminal.GatherResult) terminal.Action {
			return terminal.Continue
		})

		sg.DeliverGatherResult(id, terminal.GatherResult{Message: wire.New(0x1, []byte("part 1"))})
		sched.Poll()
		sg.DeliverGatherResult(id, terminal.GatherResult{Message: wire.New(0x1, []byte("part 2"))})
		sched.Poll()

		Expect(sg.CancelScatterGather(id)).To(BeTrue())
	})

	It("forces Client requests to expect exactly one reply", func() {
		cl, _ := terminal.NewScatterGather(1, path, 0x1, terminal.Client, sched)
		tx := newFakeScatterTx()
		cl.BindTransmitter(tx)

		done := make(chan struct{}, 1)
		id, err := cl.Request(wire.New(0x1, nil), time.Time{}, func(terminal.GatherResult) terminal.Action {
			done <- struct{}{}
			return terminal.Continue
		})
		Expect(err).To(BeNil())

		cl.DeliverGatherResult(id, terminal.GatherResult{Finished: true})
		sched.Poll()
		Eventually(done).Should(Receive())
	})

	It("rejects initiation from a Service terminal", func() {
		svc, _ := terminal.NewScatterGather(1, path, 0x1, terminal.Service, sched)
		_, err := svc.ScatterGather(wire.New(0x1, nil), 1, time.Time{}, nil)
		Expect(err).NotTo(BeNil())
	})

	It("auto-ignores an inbound scatter when no handler is installed", func() {
		svc, _ := terminal.NewScatterGather(1, path, 0x1, terminal.Service, sched)
		tx := newFakeScatterTx()
		svc.BindTransmitter(tx)

		svc.DeliverScatter(operation.ID(7), wire.New(0x1, nil), tx)
		Expect(tx.ignored[operation.ID(7)]).To(BeTrue())
	})

	It("delivers an inbound scatter to the installed handler exactly once", func() {
		svc, _ := terminal.NewScatterGather(1, path, 0x1, terminal.Service, sched)
		tx := newFakeScatterTx()
		svc.BindTransmitter(tx)

		delivered := make(chan *terminal.ScatteredMessage, 1)
		Expect(svc.ReceiveScatteredMessage(func(sm *terminal.ScatteredMessage) {
			delivered <- sm
		})).To(BeNil())

		svc.DeliverScatter(operation.ID(9), wire.New(0x1, []byte("req")), tx)
		sched.Poll()

		var sm *terminal.ScatteredMessage
		Eventually(delivered).Should(Receive(&sm))

		Expect(sm.Respond(wire.New(0x1, []byte("resp")))).To(BeNil())
		Expect(tx.responses[operation.ID(9)]).To(HaveLen(1))

		err := sm.Ignore()
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.InvalidOperationId))
	})

	It("cancels an outstanding operation and notifies the transmitter", func() {
		sg, _ := terminal.NewScatterGather(1, path, 0x1, terminal.ScatterGather, sched)
		tx := newFakeScatterTx()
		sg.BindTransmitter(tx)

		canceledResult := make(chan terminal.GatherResult, 1)
		id, _ := sg.ScatterGather(wire.New(0x1, nil), 1, time.Time{}, func(r terminal.GatherResult) terminal.Action {
			canceledResult <- r
			return terminal.Continue
		})

		Expect(sg.CancelScatterGather(id)).To(BeTrue())
		sched.Poll()

		Expect(tx.canceled[id]).To(BeTrue())
		var r terminal.GatherResult
		Eventually(canceledResult).Should(Receive(&r))
		Expect(r.Err).NotTo(BeNil())
		Expect(r.Err.Code()).To(Equal(failure.Canceled))

		Expect(sg.CancelScatterGather(id)).To(BeFalse())
	})
})

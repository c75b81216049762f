package observer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/observer"
	"github.com/nabbar/yogi/operation"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

var _ = Describe("MessageObserver", func() {
	var (
		sched scheduler.Scheduler
		path  signature.Path
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/demo")
	})

	It("fans a single delivery out to every registered callback and re-arms", func() {
		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)
		o := observer.NewMessageObserver(pt)

		var a, b []wire.Message
		o.Add(func(msg wire.Message, cached bool) { a = append(a, msg) })
		o.Add(func(msg wire.Message, cached bool) { b = append(b, msg) })
		o.Start()

		pt.Deliver(wire.New(0x1, []byte("one")), false)
		sched.Poll()
		Expect(a).To(HaveLen(1))
		Expect(b).To(HaveLen(1))

		pt.Deliver(wire.New(0x1, []byte("two")), false)
		sched.Poll()
		Expect(a).To(HaveLen(2))
		Expect(b).To(HaveLen(2))
	})

	It("delivers the cached payload as the initial snapshot for a cached variant", func() {
		cached, _ := terminal.NewPubSub(1, path, 0x1, terminal.CachedPublishSubscribe, sched)
		cached.Deliver(wire.New(0x1, []byte("stale")), true)

		o := observer.NewMessageObserver(cached)

		var got []bool
		o.Add(func(msg wire.Message, c bool) { got = append(got, c) })
		o.Start()

		Expect(got).To(Equal([]bool{true}))
	})

	It("stops re-arming after Stop", func() {
		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)
		o := observer.NewMessageObserver(pt)

		var count int
		o.Add(func(wire.Message, bool) { count++ })
		o.Start()

		pt.Deliver(wire.New(0x1, []byte("one")), false)
		sched.Poll()
		Expect(count).To(Equal(1))

		o.Stop()
		sched.Poll()

		pt.Deliver(wire.New(0x1, []byte("two")), false)
		sched.Poll()
		Expect(count).To(Equal(1))
	})
})

var _ = Describe("ScatterMessageObserver", func() {
	var (
		sched scheduler.Scheduler
		path  signature.Path
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/demo")
	})

	It("installs the set handler on Start and removes it on Stop", func() {
		sg, _ := terminal.NewScatterGather(1, path, 0x1, terminal.ScatterGather, sched)
		o := observer.NewScatterMessageObserver(sg)

		var got *terminal.ScatteredMessage
		o.Set(func(sm *terminal.ScatteredMessage) { got = sm })
		o.Start()

		sg.DeliverScatter(operation.ID(1), wire.New(0x1, []byte("hi")), noopScatterTx{})
		sched.Poll()
		Expect(got).NotTo(BeNil())

		o.Stop()
		Expect(sg.CancelReceiveScatteredMessage()).To(BeFalse())
	})
})

type noopScatterTx struct{}

func (noopScatterTx) SendScatter(id operation.ID, msg wire.Message) error  { return nil }
func (noopScatterTx) SendResponse(id operation.ID, msg wire.Message) error { return nil }
func (noopScatterTx) SendIgnore(id operation.ID) error                    { return nil }
func (noopScatterTx) CancelOperation(id operation.ID) error               { return nil }

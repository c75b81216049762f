package observer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/observer"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

func bindNoop(t *terminal.PubSubTerminal) {
	t.BindTransmitter(terminal.TransmitterFunc(func(wire.Message, bool) error { return nil }))
}

var _ = Describe("BindingObserver", func() {
	var (
		sched scheduler.Scheduler
		path  signature.Path
		term  *terminal.PubSubTerminal
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/demo")
		term, _ = terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)
	})

	It("fires every callback once with the current state on Start", func() {
		o := observer.NewBindingObserver(term)

		var seen []terminal.BindingState
		o.Add(func(s terminal.BindingState) { seen = append(seen, s) })
		o.Start()

		Expect(seen).To(Equal([]terminal.BindingState{terminal.Released}))
	})

	It("delivers subsequent transitions while running", func() {
		o := observer.NewBindingObserver(term)

		var seen []terminal.BindingState
		o.Add(func(s terminal.BindingState) { seen = append(seen, s) })
		o.Start()

		bindNoop(term)
		sched.Poll()

		Expect(seen).To(Equal([]terminal.BindingState{terminal.Released, terminal.Established}))
	})

	It("stops delivering after Stop and resumes after a fresh Start", func() {
		o := observer.NewBindingObserver(term)

		var count int
		o.Add(func(terminal.BindingState) { count++ })
		o.Start()
		Expect(count).To(Equal(1))

		o.Stop()
		bindNoop(term)
		sched.Poll()
		Expect(count).To(Equal(1))

		o.Start()
		Expect(count).To(Equal(2))
	})

	It("never fires again after Destroy", func() {
		o := observer.NewBindingObserver(term)

		var count int
		o.Add(func(terminal.BindingState) { count++ })
		o.Start()
		Expect(count).To(Equal(1))

		o.Destroy()
		bindNoop(term)
		sched.Poll()
		Expect(count).To(Equal(1))
	})

	It("stops delivering to a removed callback", func() {
		o := observer.NewBindingObserver(term)

		var count int
		id := o.Add(func(terminal.BindingState) { count++ })
		o.Start()
		Expect(count).To(Equal(1))

		o.Remove(id)
		bindNoop(term)
		sched.Poll()
		Expect(count).To(Equal(1))
	})
})

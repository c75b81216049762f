package binding_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
)

var _ = Describe("Binding", func() {
	var (
		sched  scheduler.Scheduler
		path   signature.Path
		target signature.Path
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/local")
		target, _ = signature.NewPath("/remote/topic")
	})

	It("is owned by a primitive terminal and starts Released", func() {
		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)
		bd, err := binding.New(pt, target)
		Expect(err).To(BeNil())

		Expect(bd.Owner().ID()).To(Equal(terminal.ID(1)))
		Expect(bd.TargetPath()).To(Equal(target))
		Expect(bd.BindingState()).To(Equal(terminal.Released))
	})

	It("rejects convenience variants, which bind via their pair name", func() {
		prod, _ := terminal.NewPubSub(1, path, 0x1, terminal.Producer, sched)
		_, err := binding.New(prod, target)
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.WrongObjectType))
	})

	It("notifies watchers on every state transition, and only on transitions", func() {
		dm := terminal.NewDeafMute(1, path, 0x1, sched)
		bd, _ := binding.New(dm, target)

		var seen []terminal.BindingState
		bd.OnBindingChange(func(s terminal.BindingState) { seen = append(seen, s) })

		bd.MarkEstablished()
		bd.MarkEstablished()
		bd.MarkReleased()

		Expect(seen).To(Equal([]terminal.BindingState{terminal.Established, terminal.Released}))
	})
})

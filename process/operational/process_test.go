package operational_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/process/operational"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
)

var _ = Describe("Process", func() {
	BeforeEach(func() {
		operational.ResetForTest()
	})

	It("attaches the Operational terminal at <location>/Process/Operational", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := operational.New("/", ep)
		Expect(err).To(BeNil())
		Expect(p.Terminal().Path().String()).To(Equal("/Process/Operational"))
	})

	It("fails a second construction", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		_, err := operational.New("/", ep)
		Expect(err).To(BeNil())

		ep2 := endpoint.NewLeaf(scheduler.New("proc2", nil))
		_, err = operational.New("/", ep2)
		Expect(err).ToNot(BeNil())
	})

	It("starts met with no conditions registered", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := operational.New("/", ep)
		Expect(err).To(BeNil())
		Expect(p.IsMet()).To(BeTrue())
	})

	It("goes unmet when any registered condition is unmet, and notifies observers", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := operational.New("/", ep)
		Expect(err).To(BeNil())

		c1 := operational.NewManualOperationalCondition()
		c2 := operational.NewManualOperationalCondition()
		p.Register(c1)
		p.Register(c2)

		Expect(p.IsMet()).To(BeFalse())

		seen := make(chan bool, 4)
		p.OnChange(func(met bool) { seen <- met })

		c1.Set()
		Expect(p.IsMet()).To(BeFalse())

		c2.Set()
		Eventually(seen).Should(Receive(BeTrue()))
		Expect(p.IsMet()).To(BeTrue())

		c1.Clear()
		Eventually(seen).Should(Receive(BeFalse()))
		Expect(p.IsMet()).To(BeFalse())
	})

	It("re-evaluates when a condition is unregistered", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := operational.New("/", ep)
		Expect(err).To(BeNil())

		c := operational.NewManualOperationalCondition()
		p.Register(c)
		Expect(p.IsMet()).To(BeFalse())

		Expect(p.Unregister(c)).To(BeTrue())
		Expect(p.IsMet()).To(BeTrue())

		Expect(p.Unregister(c)).To(BeFalse())
	})
})

var _ = Describe("Dependency", func() {
	It("accepts an explicit Binding as an input", func() {
		sched := scheduler.New("dep", nil)
		path, _ := signature.NewPath("/local")
		target, _ := signature.NewPath("/remote")

		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)
		bd, err := binding.New(pt, target)
		Expect(err).To(BeNil())

		d := operational.NewDependency("remote", operational.BindingInput(bd))
		Expect(d.IsMet()).To(BeFalse())

		bd.MarkEstablished()
		Expect(d.IsMet()).To(BeTrue())

		bd.MarkReleased()
		Expect(d.IsMet()).To(BeFalse())
	})

	It("is met only while every input is met", func() {
		a := operational.NewManualOperationalCondition()
		b := operational.NewManualOperationalCondition()
		d := operational.NewDependency("ab", a, b)

		Expect(d.IsMet()).To(BeFalse())

		a.Set()
		Expect(d.IsMet()).To(BeFalse())

		b.Set()
		Expect(d.IsMet()).To(BeTrue())

		changes := make(chan bool, 4)
		d.OnChange(func(met bool) { changes <- met })

		a.Clear()
		Eventually(changes).Should(Receive(BeFalse()))
		Expect(d.IsMet()).To(BeFalse())
	})
})

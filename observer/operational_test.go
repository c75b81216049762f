package observer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/observer"
	"github.com/nabbar/yogi/process/operational"
	"github.com/nabbar/yogi/scheduler"
)

var _ = Describe("OperationalObserver", func() {
	BeforeEach(func() {
		operational.ResetForTest()
	})

	It("fires the current value on Start, then every subsequent change", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := operational.New("/", ep)
		Expect(err).To(BeNil())

		o := observer.NewOperationalObserver(p)

		var seen []bool
		o.Add(func(met bool) { seen = append(seen, met) })
		o.Start()
		Expect(seen).To(Equal([]bool{true}))

		c := operational.NewManualOperationalCondition()
		p.Register(c)
		Expect(seen).To(Equal([]bool{true, false}))

		c.Set()
		Expect(seen).To(Equal([]bool{true, false, true}))
	})

	It("never fires again after Destroy", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := operational.New("/", ep)
		Expect(err).To(BeNil())

		o := observer.NewOperationalObserver(p)

		var count int
		o.Add(func(bool) { count++ })
		o.Start()
		Expect(count).To(Equal(1))

		o.Destroy()

		c := operational.NewManualOperationalCondition()
		p.Register(c)
		Expect(count).To(Equal(1))
	})
})

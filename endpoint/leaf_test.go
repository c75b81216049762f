package endpoint_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
)

var _ = Describe("Leaf", func() {
	var (
		sched scheduler.Scheduler
		path  signature.Path
		leaf  *endpoint.Leaf
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/demo")
		leaf = endpoint.NewLeaf(sched)
	})

	It("attaches, looks up and detaches a terminal", func() {
		dm := terminal.NewDeafMute(1, path, 0x1, sched)

		Expect(leaf.Attach(dm)).To(BeNil())

		found, ok := leaf.Lookup(path, terminal.DeafMute, 0x1)
		Expect(ok).To(BeTrue())
		Expect(found.ID()).To(Equal(dm.ID()))

		Expect(leaf.Terminals()).To(HaveLen(1))

		Expect(leaf.Detach(dm.ID())).To(BeTrue())
		Expect(leaf.Detach(dm.ID())).To(BeFalse())

		_, ok = leaf.Lookup(path, terminal.DeafMute, 0x1)
		Expect(ok).To(BeFalse())
	})

	It("rejects a second terminal with the same path/variant/signature", func() {
		a := terminal.NewDeafMute(1, path, 0x1, sched)
		b := terminal.NewDeafMute(2, path, 0x1, sched)

		Expect(leaf.Attach(a)).To(BeNil())

		err := leaf.Attach(b)
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.DuplicateTerminal))
	})

	It("exposes its scheduler", func() {
		Expect(leaf.Scheduler()).To(BeIdenticalTo(sched))
	})
})

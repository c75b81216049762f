package endpoint_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
)

var _ = Describe("Node", func() {
	var (
		sched scheduler.Scheduler
		path  signature.Path
		node  *endpoint.Node
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/demo")
		node = endpoint.NewNode(sched, nil)
	})

	It("registers attached local terminals as known terminals", func() {
		dm := terminal.NewDeafMute(1, path, 0x1, sched)
		Expect(node.Attach(dm)).To(BeNil())

		known := node.GetKnownTerminals()
		Expect(known).To(HaveLen(1))
		Expect(known[0].Path).To(Equal(path))
		Expect(known[0].Signature.Raw()).To(Equal(uint32(0x1)))
	})

	It("removes a terminal from the known registry on detach", func() {
		dm := terminal.NewDeafMute(1, path, 0x1, sched)
		Expect(node.Attach(dm)).To(BeNil())
		Expect(node.Detach(dm.ID())).To(BeTrue())

		Expect(node.GetKnownTerminals()).To(BeEmpty())
	})

	It("delivers exactly one known-terminals change to the pending await", func() {
		var changes []endpoint.ChangeType
		Expect(node.AwaitKnownTerminalsChange(func(info endpoint.TerminalInfo, c endpoint.ChangeType) {
			changes = append(changes, c)
		})).To(BeNil())

		dm := terminal.NewDeafMute(1, path, 0x1, sched)
		Expect(node.Attach(dm)).To(BeNil())

		other, _ := signature.NewPath("/other")
		dm2 := terminal.NewDeafMute(2, other, 0x2, sched)
		Expect(node.Attach(dm2)).To(BeNil())

		Expect(changes).To(Equal([]endpoint.ChangeType{endpoint.Added}))
	})

	It("cancel reports whether an await was outstanding", func() {
		Expect(node.CancelAwaitKnownTerminalsChange()).To(BeFalse())

		Expect(node.AwaitKnownTerminalsChange(func(endpoint.TerminalInfo, endpoint.ChangeType) {})).To(BeNil())
		Expect(node.CancelAwaitKnownTerminalsChange()).To(BeTrue())
	})

	It("fails Busy when a second await is registered while one is pending", func() {
		Expect(node.AwaitKnownTerminalsChange(func(endpoint.TerminalInfo, endpoint.ChangeType) {})).To(BeNil())

		err := node.AwaitKnownTerminalsChange(func(endpoint.TerminalInfo, endpoint.ChangeType) {})
		Expect(err).NotTo(BeNil())
	})

	It("delivers Canceled to the pending handler on cancel", func() {
		var got endpoint.ChangeType
		fired := false
		Expect(node.AwaitKnownTerminalsChange(func(info endpoint.TerminalInfo, c endpoint.ChangeType) {
			got = c
			fired = true
		})).To(BeNil())

		Expect(node.CancelAwaitKnownTerminalsChange()).To(BeTrue())
		Expect(fired).To(BeTrue())
		Expect(got).To(Equal(endpoint.Canceled))
	})

	It("fires permanent local-change watchers on every attach and detach", func() {
		type change struct {
			id    terminal.ID
			added bool
		}
		var seen []change
		node.OnLocalChange(func(t terminal.Terminal, added bool) {
			seen = append(seen, change{t.ID(), added})
		})

		dm := terminal.NewDeafMute(1, path, 0x1, sched)
		Expect(node.Attach(dm)).To(BeNil())
		Expect(node.Detach(dm.ID())).To(BeTrue())

		other, _ := signature.NewPath("/other")
		dm2 := terminal.NewDeafMute(2, other, 0x2, sched)
		Expect(node.Attach(dm2)).To(BeNil())

		Expect(seen).To(Equal([]change{{1, true}, {1, false}, {2, true}}))
	})

	It("fires local-binding watchers on attach and detach", func() {
		dm := terminal.NewDeafMute(1, path, 0x1, sched)
		Expect(node.Attach(dm)).To(BeNil())

		target, _ := signature.NewPath("/target")
		bd, err := binding.New(dm, target)
		Expect(err).To(BeNil())

		var seen []bool
		node.OnLocalBinding(func(_ *binding.Binding, added bool) { seen = append(seen, added) })

		Expect(node.AttachBinding(bd)).To(BeNil())
		Expect(node.DetachBinding(bd)).To(BeTrue())
		Expect(seen).To(Equal([]bool{true, false}))
	})

	It("rejects a binding whose owner is not attached", func() {
		dm := terminal.NewDeafMute(1, path, 0x1, sched)

		target, _ := signature.NewPath("/target")
		bd, _ := binding.New(dm, target)

		err := node.AttachBinding(bd)
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.InvalidHandle))
	})

	It("does not notify a pending await for a duplicate known-terminal addition", func() {
		remote, _ := signature.NewPath("/remote")
		info := endpoint.TerminalInfo{Variant: terminal.PublishSubscribe, Signature: 0x9, Path: remote}
		node.AddKnownTerminal(info)

		fired := 0
		Expect(node.AwaitKnownTerminalsChange(func(endpoint.TerminalInfo, endpoint.ChangeType) {
			fired++
		})).To(BeNil())

		node.AddKnownTerminal(info)
		Expect(fired).To(BeZero())
		Expect(node.GetKnownTerminals()).To(HaveLen(1))
	})

	It("records a remote-announced terminal without requiring local attachment", func() {
		remote, _ := signature.NewPath("/remote")
		node.AddKnownTerminal(endpoint.TerminalInfo{Variant: terminal.PublishSubscribe, Signature: 0x9, Path: remote})

		known := node.GetKnownTerminals()
		Expect(known).To(HaveLen(1))
		Expect(known[0].Path).To(Equal(remote))
	})

	It("snapshots known terminals ordered by first addition, surviving a remove/re-add", func() {
		paths := make([]signature.Path, 5)
		for i := range paths {
			p, _ := signature.NewPath("/ordered/" + string(rune('a'+i)))
			paths[i] = p
			node.AddKnownTerminal(endpoint.TerminalInfo{Variant: terminal.PublishSubscribe, Signature: signature.Signature(i), Path: p})
		}

		node.RemoveKnownTerminal(endpoint.TerminalInfo{Variant: terminal.PublishSubscribe, Signature: 2, Path: paths[2]})
		node.AddKnownTerminal(endpoint.TerminalInfo{Variant: terminal.PublishSubscribe, Signature: 2, Path: paths[2]})

		known := node.GetKnownTerminals()
		Expect(known).To(HaveLen(5))

		want := []signature.Path{paths[0], paths[1], paths[3], paths[4], paths[2]}
		for i, info := range known {
			Expect(info.Path).To(Equal(want[i]))
		}
	})
})

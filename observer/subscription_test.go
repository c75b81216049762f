package observer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/connection/local"
	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/observer"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
)

var _ = Describe("SubscriptionObserver", func() {
	var (
		path signature.Path
		ta   *terminal.PubSubTerminal
		a, b endpoint.Endpoint
	)

	BeforeEach(func() {
		path, _ = signature.NewPath("/demo")
		a = endpoint.NewLeaf(scheduler.New("a", nil))
		b = endpoint.NewLeaf(scheduler.New("b", nil))
		ta, _ = terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, a.Scheduler())
		Expect(a.Attach(ta)).To(BeNil())
	})

	It("fires the current state on Start, then the match on connect", func() {
		o := observer.NewSubscriptionObserver(ta)

		var seen []terminal.SubscriptionState
		o.Add(func(s terminal.SubscriptionState) { seen = append(seen, s) })
		o.Start()
		Expect(seen).To(Equal([]terminal.SubscriptionState{terminal.NotSubscribed}))

		tb, _ := terminal.NewPubSub(2, path, 0x1, terminal.PublishSubscribe, b.Scheduler())
		Expect(b.Attach(tb)).To(BeNil())
		local.New(a, b)
		a.Scheduler().Poll()

		Expect(seen).To(Equal([]terminal.SubscriptionState{terminal.NotSubscribed, terminal.Subscribed}))
	})

	It("never fires again after Destroy", func() {
		o := observer.NewSubscriptionObserver(ta)

		var count int
		o.Add(func(terminal.SubscriptionState) { count++ })
		o.Start()
		Expect(count).To(Equal(1))

		o.Destroy()

		tb, _ := terminal.NewPubSub(2, path, 0x1, terminal.PublishSubscribe, b.Scheduler())
		Expect(b.Attach(tb)).To(BeNil())
		local.New(a, b)

		Expect(count).To(Equal(1))
	})
})

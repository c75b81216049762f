package local_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/binding"
	"github.com/nabbar/yogi/connection"
	"github.com/nabbar/yogi/connection/local"
	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

var _ = Describe("Connection", func() {
	var (
		path signature.Path
		sig  signature.Signature
	)

	BeforeEach(func() {
		var err failure.Error
		path, err = signature.NewPath("/a/b")
		Expect(err).To(BeNil())
		sig = signature.Signature(0xC0FFEE)
	})

	It("comes up Alive with nothing to assign", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))
		c := local.New(a, b)
		Expect(c.State()).To(Equal(connection.Alive))
	})

	It("wires a matching PublishSubscribe pair and delivers both ways", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		ta, err := terminal.NewPubSub(1, path, sig, terminal.PublishSubscribe, a.Scheduler())
		Expect(err).To(BeNil())
		tb, err := terminal.NewPubSub(2, path, sig, terminal.PublishSubscribe, b.Scheduler())
		Expect(err).To(BeNil())

		Expect(a.Attach(ta)).To(BeNil())
		Expect(b.Attach(tb)).To(BeNil())

		local.New(a, b)

		Expect(ta.BindingState()).To(Equal(terminal.Established))
		Expect(tb.BindingState()).To(Equal(terminal.Established))

		done := make(chan wire.Message, 1)
		Expect(tb.ReceiveMessage(func(err failure.Error, msg wire.Message, cached bool) {
			done <- msg
		})).To(BeNil())

		Expect(ta.Publish(wire.New(sig, []byte("hi")))).To(BeNil())
		b.Scheduler().Poll()
		Eventually(done).Should(Receive(Equal(wire.New(sig, []byte("hi")))))
	})

	It("wires Producer to Consumer so only the Producer can publish", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		prod, err := terminal.NewPubSub(1, path, sig, terminal.Producer, a.Scheduler())
		Expect(err).To(BeNil())
		cons, err := terminal.NewPubSub(2, path, sig, terminal.Consumer, b.Scheduler())
		Expect(err).To(BeNil())

		Expect(a.Attach(prod)).To(BeNil())
		Expect(b.Attach(cons)).To(BeNil())

		local.New(a, b)

		Expect(prod.BindingState()).To(Equal(terminal.Established))
		Expect(cons.BindingState()).To(Equal(terminal.Established))

		consErr := cons.Publish(wire.New(sig, []byte("nope")))
		Expect(consErr).NotTo(BeNil())
		Expect(consErr.Code()).To(Equal(failure.InvalidParam))

		done := make(chan wire.Message, 1)
		Expect(cons.ReceiveMessage(func(err failure.Error, msg wire.Message, cached bool) {
			done <- msg
		})).To(BeNil())
		Expect(prod.Publish(wire.New(sig, []byte("ok")))).To(BeNil())
		b.Scheduler().Poll()
		Eventually(done).Should(Receive(Equal(wire.New(sig, []byte("ok")))))
	})

	It("replays a pre-connection publish as a cached message, then live ones as fresh", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		ta, err := terminal.NewPubSub(1, path, sig, terminal.CachedPublishSubscribe, a.Scheduler())
		Expect(err).To(BeNil())
		tb, err := terminal.NewPubSub(2, path, sig, terminal.CachedPublishSubscribe, b.Scheduler())
		Expect(err).To(BeNil())

		Expect(a.Attach(ta)).To(BeNil())
		Expect(b.Attach(tb)).To(BeNil())

		Expect(ta.TryPublish(wire.New(sig, []byte{1, 2, 3}))).To(BeFalse())

		type delivery struct {
			msg    wire.Message
			cached bool
		}
		got := make(chan delivery, 2)
		Expect(tb.ReceiveMessage(func(err failure.Error, msg wire.Message, cached bool) {
			got <- delivery{msg, cached}
		})).To(BeNil())

		local.New(a, b)
		b.Scheduler().Poll()

		var d delivery
		Eventually(got).Should(Receive(&d))
		Expect(d.cached).To(BeTrue())
		Expect(d.msg.Payload).To(Equal([]byte{1, 2, 3}))

		Expect(tb.ReceiveMessage(func(err failure.Error, msg wire.Message, cached bool) {
			got <- delivery{msg, cached}
		})).To(BeNil())
		Expect(ta.Publish(wire.New(sig, []byte{4}))).To(BeNil())
		b.Scheduler().Poll()

		Eventually(got).Should(Receive(&d))
		Expect(d.cached).To(BeFalse())
		Expect(d.msg.Payload).To(Equal([]byte{4}))
	})

	It("delivers traffic addressed to a binding's target path to the binding's owner", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		listenerPath, _ := signature.NewPath("/listener")
		listener, err := terminal.NewPubSub(1, listenerPath, sig, terminal.PublishSubscribe, a.Scheduler())
		Expect(err).To(BeNil())
		Expect(a.Attach(listener)).To(BeNil())

		bd, err := binding.New(listener, path)
		Expect(err).To(BeNil())
		Expect(a.AttachBinding(bd)).To(BeNil())

		publisher, err := terminal.NewPubSub(2, path, sig, terminal.PublishSubscribe, b.Scheduler())
		Expect(err).To(BeNil())
		Expect(b.Attach(publisher)).To(BeNil())

		local.New(a, b)

		Expect(bd.BindingState()).To(Equal(terminal.Established))
		Expect(listener.BindingState()).To(Equal(terminal.Established))

		got := make(chan wire.Message, 1)
		Expect(listener.ReceiveMessage(func(_ failure.Error, msg wire.Message, _ bool) {
			got <- msg
		})).To(BeNil())

		Expect(publisher.Publish(wire.New(sig, []byte("to whom it may concern")))).To(BeNil())
		a.Scheduler().Poll()
		Eventually(got).Should(Receive(WithTransform(func(m wire.Message) string { return string(m.Payload) }, Equal("to whom it may concern"))))
	})

	It("marks a detached binding Released", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))

		listener, _ := terminal.NewPubSub(1, path, sig, terminal.PublishSubscribe, a.Scheduler())
		Expect(a.Attach(listener)).To(BeNil())

		other, _ := signature.NewPath("/other")
		bd, _ := binding.New(listener, other)
		Expect(a.AttachBinding(bd)).To(BeNil())
		bd.MarkEstablished()

		Expect(a.DetachBinding(bd)).To(BeTrue())
		Expect(bd.BindingState()).To(Equal(terminal.Released))
		Expect(a.DetachBinding(bd)).To(BeFalse())
	})

	It("rescans after an attach to pick up a new match", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		ta, err := terminal.NewPubSub(1, path, sig, terminal.PublishSubscribe, a.Scheduler())
		Expect(err).To(BeNil())
		Expect(a.Attach(ta)).To(BeNil())

		c := local.New(a, b)
		Expect(ta.BindingState()).To(Equal(terminal.Released))

		tb, err := terminal.NewPubSub(2, path, sig, terminal.PublishSubscribe, b.Scheduler())
		Expect(err).To(BeNil())
		Expect(b.Attach(tb)).To(BeNil())
		c.Rescan()

		Expect(ta.BindingState()).To(Equal(terminal.Established))
		Expect(tb.BindingState()).To(Equal(terminal.Established))
	})

	It("marks a matching PublishSubscribe pair Subscribed on both sides", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		ta, _ := terminal.NewPubSub(1, path, sig, terminal.PublishSubscribe, a.Scheduler())
		tb, _ := terminal.NewPubSub(2, path, sig, terminal.PublishSubscribe, b.Scheduler())
		Expect(a.Attach(ta)).To(BeNil())
		Expect(b.Attach(tb)).To(BeNil())

		Expect(ta.SubscriptionState()).To(Equal(terminal.NotSubscribed))

		local.New(a, b)

		Expect(ta.SubscriptionState()).To(Equal(terminal.Subscribed))
		Expect(tb.SubscriptionState()).To(Equal(terminal.Subscribed))
	})

	It("reports an ignored scatter back to the initiator with the Ignored flag", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		sa, err := terminal.NewScatterGather(1, path, sig, terminal.ScatterGather, a.Scheduler())
		Expect(err).To(BeNil())
		sb, err := terminal.NewScatterGather(2, path, sig, terminal.ScatterGather, b.Scheduler())
		Expect(err).To(BeNil())

		Expect(a.Attach(sa)).To(BeNil())
		Expect(b.Attach(sb)).To(BeNil())

		Expect(sb.ReceiveScatteredMessage(func(sm *terminal.ScatteredMessage) {
			Expect(sm.Ignore()).To(BeNil())
		})).To(BeNil())

		local.New(a, b)

		results := make(chan terminal.GatherResult, 1)
		_, err = sa.ScatterGather(wire.New(sig, []byte("anyone?")), 1, time.Time{}, func(r terminal.GatherResult) terminal.Action {
			results <- r
			return terminal.Stop
		})
		Expect(err).To(BeNil())

		b.Scheduler().Poll()
		a.Scheduler().Poll()

		var r terminal.GatherResult
		Eventually(results).Should(Receive(&r))
		Expect(r.Ignored).To(BeTrue())
		Expect(r.Finished).To(BeTrue())
	})

	It("marks a matching DeafMute pair Established on both sides", func() {
		a := endpoint.NewLeaf(scheduler.New("a", nil))
		b := endpoint.NewLeaf(scheduler.New("b", nil))

		ta := terminal.NewDeafMute(1, path, sig, a.Scheduler())
		tb := terminal.NewDeafMute(2, path, sig, b.Scheduler())
		Expect(a.Attach(ta)).To(BeNil())
		Expect(b.Attach(tb)).To(BeNil())

		Expect(ta.BindingState()).To(Equal(terminal.Released))

		local.New(a, b)

		Expect(ta.BindingState()).To(Equal(terminal.Established))
		Expect(tb.BindingState()).To(Equal(terminal.Established))
	})
})

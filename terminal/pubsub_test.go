package terminal_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/signature"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
)

var _ = Describe("PubSubTerminal", func() {
	var (
		sched scheduler.Scheduler
		path  signature.Path
	)

	BeforeEach(func() {
		sched = scheduler.New("t", nil)
		path, _ = signature.NewPath("/demo")
	})

	It("rejects DeafMute and scatter/gather variants", func() {
		_, err := terminal.NewPubSub(1, path, 0x1, terminal.DeafMute, sched)
		Expect(err).NotTo(BeNil())

		_, err = terminal.NewPubSub(1, path, 0x1, terminal.ScatterGather, sched)
		Expect(err).NotTo(BeNil())
	})

	It("fails to publish when unbound", func() {
		pt, err := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)
		Expect(err).To(BeNil())

		perr := pt.Publish(wire.New(0x1, []byte("hi")))
		Expect(perr).NotTo(BeNil())
		Expect(perr.Code()).To(Equal(failure.NotBound))
		Expect(pt.TryPublish(wire.New(0x1, []byte("hi")))).To(BeFalse())
	})

	It("publishes to a bound transmitter and reflects TxQueueFull", func() {
		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)

		var sent []wire.Message
		full := false
		pt.BindTransmitter(terminal.TransmitterFunc(func(msg wire.Message, _ bool) error {
			if full {
				return errors.New("queue full")
			}
			sent = append(sent, msg)
			return nil
		}))

		Expect(pt.BindingState()).To(Equal(terminal.Established))
		Expect(pt.Publish(wire.New(0x1, []byte("hi")))).To(BeNil())
		Expect(sent).To(HaveLen(1))

		full = true
		Expect(pt.TryPublish(wire.New(0x1, []byte("bye")))).To(BeFalse())
	})

	It("passes the retry flag through to the transmitter", func() {
		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)

		var retries []bool
		pt.BindTransmitter(terminal.TransmitterFunc(func(_ wire.Message, retry bool) error {
			retries = append(retries, retry)
			return nil
		}))

		Expect(pt.Publish(wire.New(0x1, nil))).To(BeNil())
		Expect(pt.PublishWait(wire.New(0x1, nil))).To(BeNil())
		Expect(retries).To(Equal([]bool{false, true}))
	})

	It("rejects Publish on a Consumer and ReceiveMessage on a Producer", func() {
		cons, _ := terminal.NewPubSub(1, path, 0x1, terminal.Consumer, sched)
		Expect(cons.Publish(wire.New(0x1, nil))).NotTo(BeNil())

		prod, _ := terminal.NewPubSub(2, path, 0x1, terminal.Producer, sched)
		Expect(prod.ReceiveMessage(func(failure.Error, wire.Message, bool) {})).NotTo(BeNil())
	})

	It("delivers a single message to the pending receive handler", func() {
		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)

		received := make(chan wire.Message, 1)
		Expect(pt.ReceiveMessage(func(err failure.Error, msg wire.Message, cached bool) {
			Expect(err).To(BeNil())
			Expect(cached).To(BeFalse())
			received <- msg
		})).To(BeNil())

		pt.Deliver(wire.New(0x1, []byte("payload")), false)
		Expect(sched.Poll()).To(Equal(1))

		Eventually(received).Should(Receive())
	})

	It("cancels a pending receive with Canceled", func() {
		pt, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)

		var gotErr failure.Error
		Expect(pt.ReceiveMessage(func(err failure.Error, _ wire.Message, _ bool) {
			gotErr = err
		})).To(BeNil())

		Expect(pt.CancelReceiveMessage()).To(BeTrue())
		sched.Poll()

		Expect(gotErr).NotTo(BeNil())
		Expect(gotErr.Code()).To(Equal(failure.Canceled))
		Expect(pt.CancelReceiveMessage()).To(BeFalse())
	})

	It("caches payloads for cached variants only", func() {
		plain, _ := terminal.NewPubSub(1, path, 0x1, terminal.PublishSubscribe, sched)
		_, err := plain.GetCachedMessage()
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.InvalidParam))

		cached, _ := terminal.NewPubSub(2, path, 0x1, terminal.CachedPublishSubscribe, sched)
		_, err = cached.GetCachedMessage()
		Expect(err.Code()).To(Equal(failure.NoCachedMessage))

		cached.Deliver(wire.New(0x1, []byte("c")), true)
		msg, err := cached.GetCachedMessage()
		Expect(err).To(BeNil())
		Expect(msg.Payload).To(Equal([]byte("c")))
	})

	It("preserves zero-length payloads byte for byte", func() {
		cached, _ := terminal.NewPubSub(1, path, 0x1, terminal.CachedPublishSubscribe, sched)
		cached.Deliver(wire.New(0x1, []byte{}), false)

		msg, err := cached.GetCachedMessage()
		Expect(err).To(BeNil())
		Expect(msg.Payload).NotTo(BeNil())
		Expect(msg.Payload).To(HaveLen(0))
	})
})

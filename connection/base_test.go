package connection_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/connection"
	"github.com/nabbar/yogi/failure"
)

var _ = Describe("Base", func() {
	It("starts Idle with its description", func() {
		b := connection.NewBase("loopback")
		Expect(b.State()).To(Equal(connection.Idle))
		Expect(b.Description()).To(Equal("loopback"))
	})

	It("allows assignment exactly once", func() {
		b := connection.NewBase("x")
		Expect(b.TryAssign()).To(BeNil())

		err := b.TryAssign()
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.ObjectStillUsed))
	})

	It("rejects a second pending await-death with Busy", func() {
		b := connection.NewBase("x")
		Expect(b.AwaitDeath(func(failure.Error) {})).To(BeNil())

		err := b.AwaitDeath(func(failure.Error) {})
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.Busy))
	})

	It("delivers Canceled to a cancelled await and reports whether one was pending", func() {
		b := connection.NewBase("x")
		Expect(b.CancelAwaitDeath()).To(BeFalse())

		var got failure.Error
		Expect(b.AwaitDeath(func(err failure.Error) { got = err })).To(BeNil())
		Expect(b.CancelAwaitDeath()).To(BeTrue())

		Expect(got).NotTo(BeNil())
		Expect(got.Code()).To(Equal(failure.Canceled))
	})

	It("marks Dead exactly once and fires the pending await with the cause", func() {
		b := connection.NewBase("x")

		var got failure.Error
		Expect(b.AwaitDeath(func(err failure.Error) { got = err })).To(BeNil())

		cause := failure.New(failure.Timeout, "heartbeat timeout")
		b.MarkDead(cause)
		Expect(b.State()).To(Equal(connection.Dead))
		Expect(got).To(Equal(cause))

		b.MarkDead(failure.New(failure.Rw, "should be ignored"))
		Expect(b.State()).To(Equal(connection.Dead))
	})

	It("delivers the death cause immediately when awaited after the fact", func() {
		b := connection.NewBase("x")
		cause := failure.New(failure.Timeout, "heartbeat timeout")
		b.MarkDead(cause)

		var got failure.Error
		Expect(b.AwaitDeath(func(err failure.Error) { got = err })).To(BeNil())
		Expect(got).To(Equal(cause))
	})
})

package timer_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/timer"
)

var _ = Describe("Timer", func() {
	It("fires the handler with success after the duration elapses", func() {
		s := scheduler.New("t", nil)
		s.RunInBackground(1)
		defer s.Stop()

		done := make(chan failure.Error, 1)
		tm := timer.New(s)
		tm.StartAsync(time.Millisecond, func(err failure.Error) { done <- err })

		Eventually(done).Should(Receive(BeNil()))
	})

	It("delivers Canceled when canceled before expiry", func() {
		s := scheduler.New("t", nil)
		s.RunInBackground(1)
		defer s.Stop()

		done := make(chan failure.Error, 1)
		tm := timer.New(s)
		tm.StartAsync(time.Hour, func(err failure.Error) { done <- err })

		Expect(tm.Cancel()).To(BeTrue())
		Eventually(done).Should(Receive(WithTransform(func(err failure.Error) failure.Code {
			return err.Code()
		}, Equal(failure.Canceled))))

		Expect(tm.Cancel()).To(BeFalse())
	})

	It("cancels the previous pending expiry when re-armed", func() {
		s := scheduler.New("t", nil)
		s.RunInBackground(1)
		defer s.Stop()

		first := make(chan failure.Error, 1)
		second := make(chan failure.Error, 1)

		tm := timer.New(s)
		tm.StartAsync(time.Hour, func(err failure.Error) { first <- err })
		tm.StartAsync(time.Millisecond, func(err failure.Error) { second <- err })

		Eventually(first).Should(Receive(WithTransform(func(err failure.Error) failure.Code {
			return err.Code()
		}, Equal(failure.Canceled))))
		Eventually(second).Should(Receive(BeNil()))
	})
})

package autoconnect_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/connection/autoconnect"
	"github.com/nabbar/yogi/connection/tcp"
	"github.com/nabbar/yogi/failure"
)

var _ = Describe("Client", func() {
	It("reaches Connected once a listener accepts it, then Stopped on Destroy", func() {
		srv, err := tcp.Listen("127.0.0.1:0", tcp.DefaultConfig(), nil, nil)
		Expect(err).To(BeNil())
		defer srv.Close()

		Expect(srv.Accept(func(conn *tcp.Connection, err failure.Error) {
			Expect(err).To(BeNil())
		})).To(BeNil())

		c := autoconnect.New(srv.Addr().String(), tcp.DefaultConfig(), 50*time.Millisecond, nil, nil)

		attempts := make(chan failure.Error, 4)
		c.SetConnectObserver(func(_ *tcp.Connection, err failure.Error) {
			attempts <- err
		})

		c.Start()
		defer c.Destroy()

		Eventually(attempts, time.Second).Should(Receive(BeNil()))
		Eventually(c.State, time.Second).Should(Equal(autoconnect.Connected))
	})

	It("reconnects after the connection is lost", func() {
		srv, err := tcp.Listen("127.0.0.1:0", tcp.DefaultConfig(), nil, nil)
		Expect(err).To(BeNil())
		defer srv.Close()

		accepted := make(chan *tcp.Connection, 4)
		acceptNext := func() {
			_ = srv.Accept(func(conn *tcp.Connection, err failure.Error) {
				if err == nil {
					accepted <- conn
				}
			})
		}
		acceptNext()

		c := autoconnect.New(srv.Addr().String(), tcp.DefaultConfig(), 20*time.Millisecond, nil, nil)
		lost := make(chan failure.Error, 1)
		c.SetDisconnectObserver(func(cause failure.Error) { lost <- cause })

		c.Start()
		defer c.Destroy()

		var serverSide *tcp.Connection
		Eventually(accepted, time.Second).Should(Receive(&serverSide))
		Eventually(c.State, time.Second).Should(Equal(autoconnect.Connected))

		acceptNext()
		serverSide.Close()

		Eventually(lost, time.Second).Should(Receive())
		Eventually(accepted, time.Second).Should(Receive())
		Eventually(c.State, time.Second).Should(Equal(autoconnect.Connected))
	})

	It("stops the background loop within one wait cycle on Destroy", func() {
		c := autoconnect.New("127.0.0.1:1", tcp.DefaultConfig(), 10*time.Millisecond, nil, nil)
		c.Start()
		Eventually(c.State, time.Second).ShouldNot(Equal(autoconnect.Stopped))
		c.Destroy()
		Expect(c.State()).To(Equal(autoconnect.Stopped))
	})
})

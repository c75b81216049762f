package logdist_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/process/logdist"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/terminal"
	"github.com/nabbar/yogi/wire"
	"github.com/nabbar/yogi/ylog"
)

var _ = Describe("Producer", func() {
	It("attaches the Log producer at <location>/Process/Log", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := logdist.NewProducer("/", ep)
		Expect(err).To(BeNil())
		Expect(p.Terminal().Path().String()).To(Equal("/Process/Log"))
	})

	It("round-trips a record through Encode/Decode", func() {
		r := logdist.Record{
			Message:   "listener started",
			Severity:  ylog.InfoLevel,
			ThreadID:  7,
			Component: "tcp",
		}

		got, err := logdist.DecodeRecord(logdist.EncodeRecord(r))
		Expect(err).To(BeNil())
		Expect(got).To(Equal(r))
	})

	It("drops a record the installed gate rejects but forwards one it allows", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		p, err := logdist.NewProducer("/", ep)
		Expect(err).To(BeNil())

		g, err := logdist.NewVerbosityGate("/", logdist.YogiLog, ep, nil, ylog.ErrorLevel)
		Expect(err).To(BeNil())
		p.SetVerbosityGate(g)

		sent := make(chan wire.Message, 1)
		p.Terminal().BindTransmitter(terminal.TransmitterFunc(func(msg wire.Message, _ bool) error {
			sent <- msg
			return nil
		}))

		p.Publish(logdist.Record{Message: "noisy", Severity: ylog.DebugLevel, Component: "tcp"})
		Expect(sent).ToNot(Receive())

		p.Publish(logdist.Record{Message: "boom", Severity: ylog.FatalLevel, Component: "tcp"})
		Expect(sent).To(Receive())
	})
})

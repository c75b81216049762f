package logdist_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/endpoint"
	"github.com/nabbar/yogi/process/logdist"
	"github.com/nabbar/yogi/scheduler"
	"github.com/nabbar/yogi/ylog"
)

type fakeLogger struct {
	level ylog.Level
}

func (f *fakeLogger) SetLevel(lvl ylog.Level) { f.level = lvl }

var _ = Describe("VerbosityGate", func() {
	It("attaches Max Verbosity under the target's folder", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		g, err := logdist.NewVerbosityGate("/", logdist.StandardOutput, ep, nil, ylog.InfoLevel)
		Expect(err).To(BeNil())
		Expect(g.MaxTerminal().Path().String()).To(Equal("/Process/Standard Output Log Verbosity/Max Verbosity"))
	})

	It("applies the initial and every subsequent max level to the installed applier", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		applier := &fakeLogger{}
		g, err := logdist.NewVerbosityGate("/", logdist.StandardOutput, ep, applier, ylog.InfoLevel)
		Expect(err).To(BeNil())
		Expect(applier.level).To(Equal(ylog.InfoLevel))

		g.SetMaxVerbosity(ylog.ErrorLevel)
		Expect(applier.level).To(Equal(ylog.ErrorLevel))
	})

	It("attaches a per-component master under Components/<name> on first mention", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		g, err := logdist.NewVerbosityGate("/", logdist.YogiLog, ep, nil, ylog.InfoLevel)
		Expect(err).To(BeNil())

		t, err := g.Component("tcp")
		Expect(err).To(BeNil())
		Expect(t.Path().String()).To(Equal("/Process/YOGI Log Verbosity/Components/tcp"))
	})

	It("gates a component with no override by the max level alone", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		g, err := logdist.NewVerbosityGate("/", logdist.YogiLog, ep, nil, ylog.WarnLevel)
		Expect(err).To(BeNil())

		Expect(g.Allow("tcp", ylog.DebugLevel)).To(BeFalse())
		Expect(g.Allow("tcp", ylog.ErrorLevel)).To(BeTrue())
	})

	It("lets a component raise its threshold above the max level but not lower it", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		g, err := logdist.NewVerbosityGate("/", logdist.YogiLog, ep, nil, ylog.WarnLevel)
		Expect(err).To(BeNil())

		Expect(g.SetComponentVerbosity("tcp", ylog.DebugLevel)).To(BeNil())
		Expect(g.Allow("tcp", ylog.DebugLevel)).To(BeFalse(), "max still gates a more verbose component")
		Expect(g.Allow("other", ylog.DebugLevel)).To(BeFalse(), "unmentioned components stay at max")

		Expect(g.SetComponentVerbosity("tcp", ylog.FatalLevel)).To(BeNil())
		Expect(g.Allow("tcp", ylog.ErrorLevel)).To(BeFalse(), "component raised its own threshold above max")
	})

	It("treats None on a component as an outright suppression, regardless of max", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		g, err := logdist.NewVerbosityGate("/", logdist.YogiLog, ep, nil, ylog.DebugLevel)
		Expect(err).To(BeNil())

		Expect(g.SetComponentVerbosity("quiet", ylog.NilLevel)).To(BeNil())
		Expect(g.Allow("quiet", ylog.PanicLevel)).To(BeFalse())
		Expect(g.Allow("other", ylog.DebugLevel)).To(BeTrue())
	})

	It("treats None on the max level as suppressing every unmentioned component", func() {
		ep := endpoint.NewLeaf(scheduler.New("proc", nil))
		g, err := logdist.NewVerbosityGate("/", logdist.YogiLog, ep, nil, ylog.NilLevel)
		Expect(err).To(BeNil())

		Expect(g.Allow("anything", ylog.PanicLevel)).To(BeFalse())

		Expect(g.SetComponentVerbosity("tcp", ylog.DebugLevel)).To(BeNil())
		Expect(g.Allow("tcp", ylog.DebugLevel)).To(BeTrue())
	})
})

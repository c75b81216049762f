package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/config"
	"github.com/nabbar/yogi/failure"
)

var _ = Describe("Boundary", func() {
	It("defaults to root location", func() {
		b := config.DefaultBoundary()
		Expect(b.Location).To(Equal("/"))
		Expect(b.Validate()).To(BeNil())
	})

	It("rejects an empty location", func() {
		b := config.Boundary{Location: ""}
		e := b.Validate()
		Expect(e).NotTo(BeNil())
		Expect(e.Code()).To(Equal(failure.InvalidParam))
	})

	It("rejects a non-absolute location", func() {
		b := config.Boundary{Location: "relative/path"}
		Expect(b.Validate()).NotTo(BeNil())
	})

	It("rejects a negative connection timeout", func() {
		b := config.Boundary{Location: "/", ConnectionTimeout: -1 * time.Second}
		Expect(b.Validate()).NotTo(BeNil())
	})

	It("accepts a fully populated boundary", func() {
		b := config.Boundary{
			Location:          "/my/node",
			ConnectionTarget:  "localhost:10000",
			ConnectionTimeout: 5 * time.Second,
			Identification:    "test-node",
		}
		Expect(b.Validate()).To(BeNil())
	})
})

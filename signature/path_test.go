package signature_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/signature"
)

var _ = Describe("Path", func() {
	It("accepts a plain path", func() {
		p, err := signature.NewPath("/a/b")
		Expect(err).To(BeNil())
		Expect(p.String()).To(Equal("/a/b"))
		Expect(p.IsAbsolute()).To(BeTrue())
	})

	It("rejects a double slash", func() {
		_, err := signature.NewPath("/a//b")
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.InvalidParam))
	})

	It("recognizes the root path", func() {
		p, _ := signature.NewPath("/")
		Expect(p.IsRoot()).To(BeTrue())
	})

	It("joins a relative path onto an absolute one", func() {
		base, _ := signature.NewPath("/a")
		rel, _ := signature.NewPath("b/c")

		joined, err := base.Join(rel)
		Expect(err).To(BeNil())
		Expect(joined.String()).To(Equal("/a/b/c"))
	})

	It("rejects joining an absolute path onto another", func() {
		base, _ := signature.NewPath("/a")
		other, _ := signature.NewPath("/b")

		_, err := base.Join(other)
		Expect(err).NotTo(BeNil())
	})
})

package wire_test

import (
	"bufio"
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/yogi/failure"
	"github.com/nabbar/yogi/wire"
)

var _ = Describe("Handshake", func() {
	It("round trips version and identification", func() {
		var buf bytes.Buffer
		sent := wire.Handshake{Major: 1, Minor: 2, Patch: 3, Identification: "node-a"}
		Expect(wire.WriteHandshake(&buf, sent)).To(BeNil())

		got, err := wire.ReadHandshake(&buf, sent)
		Expect(err).To(BeNil())
		Expect(got).To(Equal(sent))
	})

	It("rejects a bad magic prefix", func() {
		var buf bytes.Buffer
		buf.Write([]byte{0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0})

		_, err := wire.ReadHandshake(&buf, wire.Handshake{Major: 1})
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.InvalidMagicPrefix))
	})

	It("rejects a differing major version", func() {
		var buf bytes.Buffer
		Expect(wire.WriteHandshake(&buf, wire.Handshake{Major: 2})).To(BeNil())

		_, err := wire.ReadHandshake(&buf, wire.Handshake{Major: 1})
		Expect(err).NotTo(BeNil())
		Expect(err.Code()).To(Equal(failure.IncompatibleVersion))
	})
})

var _ = Describe("Frame", func() {
	It("round trips tag, operation id, terminal ref and payload", func() {
		var buf bytes.Buffer
		sent := wire.Frame{Tag: wire.TagScatter, OperationID: 42, TerminalRef: 7, Payload: []byte("hello")}
		Expect(wire.WriteFrame(&buf, sent)).To(BeNil())

		got, err := wire.ReadFrame(bufio.NewReader(&buf))
		Expect(err).To(BeNil())
		Expect(got).To(Equal(sent))
	})

	It("round trips a zero-length payload without turning it into nil", func() {
		var buf bytes.Buffer
		Expect(wire.WriteFrame(&buf, wire.Frame{Tag: wire.TagPublish, Payload: []byte{}})).To(BeNil())

		got, err := wire.ReadFrame(bufio.NewReader(&buf))
		Expect(err).To(BeNil())
		Expect(got.Payload).NotTo(BeNil())
		Expect(got.Payload).To(HaveLen(0))
	})

	It("round trips several frames back to back", func() {
		var buf bytes.Buffer
		frames := []wire.Frame{
			{Tag: wire.TagAdd, Payload: []byte("a")},
			{Tag: wire.TagRemove, Payload: []byte("b")},
			{Tag: wire.TagHeartbeat},
		}
		for _, f := range frames {
			Expect(wire.WriteFrame(&buf, f)).To(BeNil())
		}

		r := bufio.NewReader(&buf)
		for _, want := range frames {
			got, err := wire.ReadFrame(r)
			Expect(err).To(BeNil())
			Expect(got.Tag).To(Equal(want.Tag))
		}
	})
})

var _ = Describe("DiscoveryRecord", func() {
	It("round trips a variant, signature, name and ref", func() {
		var buf bytes.Buffer
		sent := wire.DiscoveryRecord{Variant: wire.VariantTag(3), Signature: 0xdeadbeef, Name: "my/terminal", Ref: 11}
		Expect(wire.WriteDiscoveryRecord(&buf, sent)).To(BeNil())

		got, err := wire.ReadDiscoveryRecord(bufio.NewReader(&buf))
		Expect(err).To(BeNil())
		Expect(got).To(Equal(sent))
	})
})

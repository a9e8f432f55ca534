package transfer_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/transfer"
	"github.com/papercomputeco/arbor/pkg/tree"
	testutils "github.com/papercomputeco/arbor/pkg/utils/test"
)

func invalidImport(err error) bool {
	var invalid tree.InvalidImportError
	return errors.As(err, &invalid)
}

var _ = Describe("Export", func() {
	It("wraps nodes with a timestamp and version", func() {
		t := testutils.NewTripTree()
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		doc := transfer.Export(t.Nodes, now)
		Expect(doc.Version).To(Equal(transfer.Version))
		Expect(doc.ExportedAt).To(Equal(now))
		Expect(doc.Nodes).To(Equal(t.Nodes))
		Expect(doc.Nodes[0]).NotTo(BeIdenticalTo(t.Nodes[0]))
	})

	It("writes the wrapper field names", func() {
		var buf bytes.Buffer
		Expect(transfer.Write(&buf, transfer.Export(testutils.NewTripTree().Nodes, time.Now()))).To(Succeed())

		var raw map[string]json.RawMessage
		Expect(json.Unmarshal(buf.Bytes(), &raw)).To(Succeed())
		Expect(raw).To(HaveKey("nodes"))
		Expect(raw).To(HaveKey("exportedAt"))
		Expect(raw).To(HaveKey("version"))

		var nodes []map[string]any
		Expect(json.Unmarshal(raw["nodes"], &nodes)).To(Succeed())
		Expect(nodes[1]).To(HaveKey("parentId"))
		Expect(nodes[1]["metadata"]).To(HaveKey("isPinned"))
	})
})

var _ = Describe("Import", func() {
	var payload func(nodes []*tree.Node) []byte

	BeforeEach(func() {
		payload = func(nodes []*tree.Node) []byte {
			var buf bytes.Buffer
			Expect(transfer.Write(&buf, transfer.Export(nodes, time.Now()))).To(Succeed())
			return buf.Bytes()
		}
	})

	It("round trips an export", func() {
		t := testutils.NewTripTree()

		doc, err := transfer.Import(payload(t.Nodes), transfer.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Nodes).To(HaveLen(6))
		Expect(doc.Nodes[5].ID).To(Equal(t.F.ID))
		Expect(doc.Nodes[5].Metadata.Timestamp).To(BeTemporally("==", t.F.Metadata.Timestamp))
	})

	It("reads from a reader", func() {
		doc, err := transfer.Read(bytes.NewReader(payload(testutils.NewTripTree().Nodes)), transfer.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Version).To(Equal(transfer.Version))
	})

	DescribeTable("rejects malformed wrappers",
		func(body string) {
			_, err := transfer.Import([]byte(body), transfer.Options{})
			Expect(invalidImport(err)).To(BeTrue())
		},
		Entry("not JSON", `nope`),
		Entry("not an object", `[1, 2]`),
		Entry("missing nodes", `{"version": "1.0"}`),
		Entry("nodes is an object", `{"nodes": {}}`),
		Entry("nodes is null", `{"nodes": null}`),
		Entry("nodes is a string", `{"nodes": "x"}`),
		Entry("null node", `{"nodes": [null]}`),
	)

	It("accepts an empty nodes array", func() {
		doc, err := transfer.Import([]byte(`{"nodes": []}`), transfer.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Nodes).To(BeEmpty())
	})

	It("rejects nodes with invalid fields", func() {
		_, err := transfer.Import([]byte(`{"nodes": [{"id": "a", "role": "system"}]}`), transfer.Options{})
		Expect(invalidImport(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("Role must be one of")))

		_, err = transfer.Import([]byte(`{"nodes": [{"role": "user"}]}`), transfer.Options{Trust: true})
		Expect(err).To(MatchError(ContainSubstring("ID is required")))
	})

	Context("with an inconsistent tree", func() {
		var body []byte

		BeforeEach(func() {
			t := testutils.NewTripTree()
			t.R.Children = []string{t.F.ID}
			body = payload(t.Nodes)
		})

		It("rejects it by default", func() {
			_, err := transfer.Import(body, transfer.Options{})
			Expect(invalidImport(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("missing_backref")))
		})

		It("accepts it when trusted", func() {
			doc, err := transfer.Import(body, transfer.Options{Trust: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Nodes).To(HaveLen(6))
		})
	})
})

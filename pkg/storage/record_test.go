package storage_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/storage"
	"github.com/papercomputeco/arbor/pkg/tree"
	testutils "github.com/papercomputeco/arbor/pkg/utils/test"
)

var _ = Describe("Record", func() {
	It("converts nodes both ways", func() {
		t := testutils.NewTripTree()
		t.F.Metadata.IsPinned = true

		records := storage.NewRecords(t.Nodes)
		Expect(records[0].SchemaVersion).To(Equal(storage.SchemaVersion))
		Expect(records[0].ParentID).To(BeNil())
		Expect(*records[1].ParentID).To(Equal(t.R.ID))

		nodes, err := storage.Nodes(records)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(Equal(t.Nodes))
	})

	It("keeps the node field names and metadata nesting", func() {
		t := testutils.NewTripTree()
		data, err := json.Marshal(storage.NewRecord(t.C))
		Expect(err).NotTo(HaveOccurred())

		var fields map[string]any
		Expect(json.Unmarshal(data, &fields)).To(Succeed())
		Expect(fields).To(HaveKeyWithValue("schema_version", BeNumerically("==", storage.SchemaVersion)))
		Expect(fields).To(HaveKeyWithValue("id", t.C.ID))
		Expect(fields).To(HaveKeyWithValue("parentId", t.A.ID))
		Expect(fields).To(HaveKeyWithValue("role", "assistant"))
		Expect(fields).To(HaveKey("children"))
		Expect(fields).NotTo(HaveKey("tokenCount"))
		Expect(fields["metadata"]).To(HaveKeyWithValue("tokenCount", BeNumerically("==", t.C.Metadata.TokenCount)))
		Expect(fields["metadata"]).To(HaveKeyWithValue("modelUsed", "test-model"))
		Expect(fields["metadata"]).To(HaveKey("timestamp"))
		Expect(fields["metadata"]).To(HaveKey("isPinned"))

		var back storage.Record
		Expect(json.Unmarshal(data, &back)).To(Succeed())
		n, err := back.ToNode()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(t.C))
	})

	It("does not share memory with the source node", func() {
		t := testutils.NewTripTree()
		r := storage.NewRecord(t.R)
		r.Children[0] = "changed"
		Expect(t.R.Children[0]).To(Equal(t.A.ID))
	})

	It("rejects records from another schema version", func() {
		t := testutils.NewTripTree()
		records := storage.NewRecords(t.Nodes)
		records[3].SchemaVersion = storage.SchemaVersion + 1

		_, err := storage.Nodes(records)
		var invalid tree.InvalidImportError
		Expect(errors.As(err, &invalid)).To(BeTrue())
		Expect(invalid.Reason).To(ContainSubstring(t.D.ID))
	})
})

package eventstream_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals MutationEvent with expected top-level keys", func() {
		event := eventstream.NewMutationEvent(eventstream.EventTypeNodeDeleted, "my-project", "n1")
		event.ParentID = "p1"
		event.RemovedIDs = []string{"n1", "n2"}
		event.ActiveID = "p1"

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKeyWithValue("event_type", "arbor.node.deleted"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKeyWithValue("node_id", "n1"))
		Expect(got).To(HaveKey("removed_ids"))
		Expect(got).NotTo(HaveKey("pinned"))
	})

	It("assigns a fresh id to every event", func() {
		a := eventstream.NewMutationEvent(eventstream.EventTypeNodeAdded, "p", "n")
		b := eventstream.NewMutationEvent(eventstream.EventTypeNodeAdded, "p", "n")
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(a.Source.Project).To(Equal("p"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeNodeAdded).To(Equal("arbor.node.added"))
		Expect(eventstream.EventTypeNodePinned).To(Equal("arbor.node.pinned"))
		Expect(eventstream.EventTypeReplyDropped).To(Equal("arbor.reply.dropped"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil mutation event"))
	})
})

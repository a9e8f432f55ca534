package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/tree"
	testutils "github.com/papercomputeco/arbor/pkg/utils/test"
)

var _ = Describe("Summarize", func() {
	var (
		b             *testutils.Builder
		r, a, c, leaf *tree.Node
	)

	BeforeEach(func() {
		b = testutils.NewBuilder()
		r = b.Add(nil, tree.RoleUser, "root question")
		a = b.Add(r, tree.RoleAssistant, "a fairly long assistant answer")
		c = b.Add(r, tree.RoleUser, "side note")
		leaf = b.Add(a, tree.RoleUser, "follow up")
		c.Metadata.IsPinned = true
	})

	It("counts each step for an isolated node", func() {
		s, err := memory.Summarize(b.Nodes, leaf.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Policy).To(Equal(memory.PolicyIsolated))
		Expect(s.Pinned).To(Equal(1))
		Expect(s.Ancestors).To(Equal(3))
		Expect(s.Descendants).To(BeZero())
		Expect(s.Total).To(Equal(4))
	})

	It("does not count a pinned descendant twice at the root", func() {
		s, err := memory.Summarize(b.Nodes, r.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Policy).To(Equal(memory.PolicyHierarchical))
		Expect(s.Pinned).To(Equal(1))
		Expect(s.Ancestors).To(Equal(1))
		Expect(s.Descendants).To(Equal(2))
		Expect(s.Total).To(Equal(4))
	})

	It("sums token counts over exactly the nodes Compile includes", func() {
		for _, active := range []*tree.Node{r, a, c, leaf} {
			s, err := memory.Summarize(b.Nodes, active.ID)
			Expect(err).NotTo(HaveOccurred())

			included, err := memory.Included(tree.NewStore(b.Nodes...), active.ID)
			Expect(err).NotTo(HaveOccurred())

			want := 0
			for _, n := range included {
				want += n.Metadata.TokenCount
			}
			Expect(s.Tokens).To(Equal(want))

			msgs, err := memory.Compile(b.Nodes, active.ID, "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Total).To(Equal(len(msgs) - 1))
		}
	})

	It("reports the none policy without an active node", func() {
		s, err := memory.Summarize(b.Nodes, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Policy).To(Equal(memory.PolicyNone))
		Expect(s.Total).To(Equal(1))
	})

	It("fails for an unknown active id", func() {
		_, err := memory.Summarize(b.Nodes, "missing")
		Expect(err).To(MatchError(tree.NotFoundError{ID: "missing"}))
	})
})

var _ = Describe("Validate", func() {
	It("estimates tokens at four characters per token", func() {
		r := memory.Validate([]llm.Message{
			{Role: "user", Content: "abcd"},
			{Role: "assistant", Content: "efghi"},
		}, 0)
		Expect(r.Messages).To(Equal(2))
		Expect(r.EstimatedTokens).To(Equal(3))
		Expect(r.OK()).To(BeTrue())
	})

	It("warns on an empty message list", func() {
		r := memory.Validate(nil, 100)
		Expect(r.OK()).To(BeFalse())
		Expect(r.Warnings).To(ContainElement(ContainSubstring("empty")))
	})

	It("warns when the estimate exceeds the budget", func() {
		r := memory.Validate([]llm.Message{llm.NewUserMessage("0123456789abcdef")}, 3)
		Expect(r.EstimatedTokens).To(Equal(4))
		Expect(r.Warnings).To(ConsistOf(ContainSubstring("exceeds budget of 3")))
	})

	It("is quiet at exactly the budget", func() {
		r := memory.Validate([]llm.Message{llm.NewUserMessage("0123456789abcdef")}, 4)
		Expect(r.OK()).To(BeTrue())
	})
})

var _ = Describe("Inspect", func() {
	It("bundles messages, summary and report", func() {
		t := testutils.NewTripTree()

		view, err := memory.Inspect(tree.NewStore(t.Nodes...), t.D.ID, "why?", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(view.ActiveID).To(Equal(t.D.ID))
		Expect(view.Messages).To(HaveLen(5))
		Expect(view.Summary.Policy).To(Equal(memory.PolicyIsolated))
		Expect(view.Summary.Ancestors).To(Equal(4))
		Expect(view.Report.Messages).To(Equal(5))
		Expect(view.Report.OK()).To(BeFalse())
	})

	It("propagates NotFound", func() {
		_, err := memory.Inspect(tree.NewStore(), "missing", "?", 0)
		Expect(err).To(MatchError(tree.NotFoundError{ID: "missing"}))
	})
})

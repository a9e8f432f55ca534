package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/logger"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/arbor/pkg/utils/test"
)

func resultText(res *mcp.CallToolResult) string {
	Expect(res.Content).To(HaveLen(1))
	text, ok := res.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("MCP Server", func() {
	var (
		server *Server
		driver *inmemory.Driver
		trip   *testutils.TripTree
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		trip = testutils.NewTripTree()
		Expect(driver.Save(ctx, "trip", trip.Nodes)).To(Succeed())

		var err error
		server, err = NewServer(Config{
			Driver:      driver,
			TokenBudget: 100,
			Logger:      logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when storage driver is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("storage driver is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Driver: driver})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("builds an empty server in noop mode", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("context_compile", func() {
		It("compiles hierarchical context at the root", func() {
			res, view, err := server.handleCompile(ctx, nil, CompileInput{
				Project: "trip",
				NodeID:  trip.R.ID,
				Prompt:  "did I ask about benefits?",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(view.Summary.Policy).To(Equal(memory.PolicyHierarchical))
			Expect(view.Messages).To(HaveLen(7))
			Expect(view.Messages[6].Content).To(Equal("did I ask about benefits?"))
			Expect(view.Report.Budget).To(Equal(100))
			Expect(resultText(res)).To(ContainSubstring(`"policy":"hierarchical"`))
		})

		It("compiles isolated context inside a branch", func() {
			_, view, err := server.handleCompile(ctx, nil, CompileInput{
				Project: "trip",
				NodeID:  trip.F.ID,
				Prompt:  "ok",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Summary.Policy).To(Equal(memory.PolicyIsolated))
			Expect(view.Messages).To(HaveLen(3))
		})

		It("reports unknown nodes as tool errors", func() {
			res, _, err := server.handleCompile(ctx, nil, CompileInput{Project: "trip", NodeID: "missing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(ContainSubstring("node not found: missing"))
		})

		It("reports unknown projects as tool errors", func() {
			res, _, err := server.handleCompile(ctx, nil, CompileInput{Project: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(ContainSubstring("not found"))
		})

		It("requires a project", func() {
			res, _, err := server.handleCompile(ctx, nil, CompileInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("context_summary", func() {
		It("summarizes the context of a node", func() {
			res, out, err := server.handleSummary(ctx, nil, SummaryInput{Project: "trip", NodeID: trip.E.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Project).To(Equal("trip"))
			Expect(out.Summary.Ancestors).To(Equal(5))
			Expect(out.Summary.Descendants).To(BeZero())
			Expect(out.Summary.Total).To(Equal(5))
		})

		It("reports unknown nodes as tool errors", func() {
			res, _, err := server.handleSummary(ctx, nil, SummaryInput{Project: "trip", NodeID: "missing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})

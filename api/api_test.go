package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/api"
	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/logger"
	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/storage"
	"github.com/papercomputeco/arbor/pkg/storage/inmemory"
	"github.com/papercomputeco/arbor/pkg/transfer"
	testutils "github.com/papercomputeco/arbor/pkg/utils/test"
)

var _ = Describe("Server", func() {
	var (
		server *api.Server
		driver *inmemory.Driver
		trip   *testutils.TripTree
	)

	get := func(path string, into any) int {
		resp, err := server.Test(httptest.NewRequest(http.MethodGet, path, nil))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		if into != nil {
			Expect(json.Unmarshal(body, into)).To(Succeed())
		}
		return resp.StatusCode
	}

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		trip = testutils.NewTripTree()
		Expect(driver.Save(context.Background(), "trip", trip.Nodes)).To(Succeed())

		var err error
		server, err = api.NewServer(api.Config{ListenAddr: ":0", TokenBudget: 5}, driver, nil, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("requires a driver and a logger", func() {
			_, err := api.NewServer(api.Config{}, nil, nil, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("storage driver is required")))

			_, err = api.NewServer(api.Config{}, driver, nil, nil)
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})
	})

	It("answers ping", func() {
		var body string
		Expect(get("/ping", &body)).To(Equal(http.StatusOK))
		Expect(body).To(Equal("pong"))
	})

	It("lists projects", func() {
		Expect(driver.Save(context.Background(), "another", nil)).To(Succeed())

		var body struct {
			Count    int      `json:"count"`
			Projects []string `json:"projects"`
		}
		Expect(get("/projects", &body)).To(Equal(http.StatusOK))
		Expect(body.Projects).To(Equal([]string{"another", "trip"}))
	})

	It("lists nodes in store order", func() {
		var body struct {
			Count  int `json:"count"`
			Roots  int `json:"roots"`
			Leaves int `json:"leaves"`
			Nodes  []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		}
		Expect(get("/projects/trip/nodes", &body)).To(Equal(http.StatusOK))
		Expect(body.Count).To(Equal(6))
		Expect(body.Roots).To(Equal(1))
		Expect(body.Leaves).To(Equal(2))
		Expect(body.Nodes[5].ID).To(Equal(trip.F.ID))
	})

	It("returns 404 for unknown projects", func() {
		var body llm.ErrorResponse
		Expect(get("/projects/nope/nodes", &body)).To(Equal(http.StatusNotFound))
		Expect(body.Error).To(Equal("project not found"))
	})

	It("returns 422 for projects stored under another schema version", func() {
		records := storage.NewRecords(trip.Nodes)
		records[0].SchemaVersion = 0
		driver.Put("old", records)

		Expect(get("/projects/old/nodes", nil)).To(Equal(http.StatusUnprocessableEntity))
	})

	Describe("GET /projects/:project/nodes/:id", func() {
		It("returns the node with its path and policy", func() {
			var body api.NodeResponse
			Expect(get("/projects/trip/nodes/"+trip.D.ID, &body)).To(Equal(http.StatusOK))
			Expect(body.Node.Content).To(Equal("what are the benefits"))
			Expect(body.Depth).To(Equal(3))
			Expect(body.Path).To(Equal([]string{trip.R.ID, trip.A.ID, trip.C.ID, trip.D.ID}))
			Expect(body.Policy).To(Equal(memory.PolicyIsolated))
		})

		It("returns 404 for unknown nodes", func() {
			var body llm.ErrorResponse
			Expect(get("/projects/trip/nodes/missing", &body)).To(Equal(http.StatusNotFound))
			Expect(body.Error).To(ContainSubstring("missing"))
		})
	})

	Describe("GET /projects/:project/context/:id", func() {
		It("compiles hierarchical context at the root", func() {
			var view memory.View
			path := "/projects/trip/context/" + trip.R.ID + "?prompt=" + url.QueryEscape("did I ask about benefits?")
			Expect(get(path, &view)).To(Equal(http.StatusOK))

			Expect(view.Summary.Policy).To(Equal(memory.PolicyHierarchical))
			contents := make([]string, 0, len(view.Messages))
			for _, m := range view.Messages {
				contents = append(contents, m.Content)
			}
			Expect(contents).To(Equal([]string{
				"let's plan a trip", "recipe?", "recipe text", "what are the benefits",
				"benefits text", "places to visit", "did I ask about benefits?",
			}))
			Expect(view.Report.Budget).To(Equal(5))
			Expect(view.Report.Warnings).NotTo(BeEmpty())
		})

		It("returns 404 for unknown nodes", func() {
			Expect(get("/projects/trip/context/missing", nil)).To(Equal(http.StatusNotFound))
		})
	})

	It("summarizes a node", func() {
		var summary memory.Summary
		Expect(get("/projects/trip/summary/"+trip.F.ID, &summary)).To(Equal(http.StatusOK))
		Expect(summary.Policy).To(Equal(memory.PolicyIsolated))
		Expect(summary.Ancestors).To(Equal(2))
	})

	Describe("GET /projects/:project/integrity", func() {
		It("reports a consistent tree", func() {
			var body api.IntegrityResponse
			Expect(get("/projects/trip/integrity", &body)).To(Equal(http.StatusOK))
			Expect(body.OK).To(BeTrue())
			Expect(body.Issues).To(BeEmpty())
		})

		It("reports issues without repairing them", func() {
			trip.R.Children = nil
			Expect(driver.Save(context.Background(), "trip", trip.Nodes)).To(Succeed())

			var body api.IntegrityResponse
			Expect(get("/projects/trip/integrity", &body)).To(Equal(http.StatusOK))
			Expect(body.OK).To(BeFalse())
			Expect(body.Issues).To(HaveLen(2))
		})
	})

	It("exports a project", func() {
		resp, err := server.Test(httptest.NewRequest(http.MethodGet, "/projects/trip/export", nil))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("trip.json"))

		doc, err := transfer.Read(resp.Body, transfer.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Version).To(Equal(transfer.Version))
		Expect(doc.Nodes).To(HaveLen(6))
	})
})

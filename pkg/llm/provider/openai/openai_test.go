package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/llm/provider/openai"
)

var _ = Describe("Caller", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
		body     string
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		body = `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}]}`

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer sk-test"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		DeferCleanup(server.Close)
	})

	call := func(opts llm.Options) (string, error) {
		c := openai.NewCaller(openai.Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
		return c(context.Background(), []llm.Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			llm.NewUserMessage("again"),
		}, opts)
	}

	It("sends the full message list and returns the first choice", func() {
		reply, err := call(llm.Options{Model: "gpt-test", MaxTokens: 50})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("hello there"))

		Expect(received["model"]).To(Equal("gpt-test"))
		Expect(received["max_completion_tokens"]).To(BeNumerically("==", 50))
		Expect(received["messages"]).To(HaveLen(3))
	})

	It("omits the temperature when it is not set", func() {
		_, err := call(llm.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(received).NotTo(HaveKey("temperature"))
	})

	It("sends a zero temperature instead of dropping it", func() {
		_, err := call(llm.Options{Temperature: llm.Temperature(0)})
		Expect(err).NotTo(HaveOccurred())
		Expect(received).To(HaveKeyWithValue("temperature", BeNumerically("~", 0, 1e-6)))
	})

	It("passes a configured temperature through", func() {
		_, err := call(llm.Options{Temperature: llm.Temperature(0.5)})
		Expect(err).NotTo(HaveOccurred())
		Expect(received).To(HaveKeyWithValue("temperature", BeNumerically("~", 0.5, 1e-6)))
	})

	It("defaults the model", func() {
		_, err := call(llm.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(received["model"]).To(Equal(openai.DefaultModel))
	})

	It("wraps API errors as provider errors", func() {
		status = http.StatusInternalServerError
		body = `{"error":{"message":"boom","type":"server_error"}}`

		_, err := call(llm.Options{})
		var pe llm.ProviderError
		Expect(errors.As(err, &pe)).To(BeTrue())
		Expect(pe.Provider).To(Equal("openai"))
	})

	It("fails when no choices come back", func() {
		body = `{"id":"c1","choices":[]}`
		_, err := call(llm.Options{})
		Expect(err).To(MatchError(ContainSubstring("no choices")))
	})
})

package providers

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-cli/internal/observability"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

// stubServer serves canned responses and counts the requests it receives.
type stubServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newStubServer(t *testing.T, h http.HandlerFunc) *stubServer {
	t.Helper()
	s := &stubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) Hits() int {
	return int(s.hits.Load())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func testHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func testOptions(baseURL string, m *observability.Metrics) []Option {
	return []Option{
		WithBaseURL(baseURL),
		WithMetrics(m),
		WithLogger(observability.DiscardLogger()),
	}
}

func ptr[T any](v T) *T {
	return &v
}

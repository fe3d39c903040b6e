package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sells-group/coordfill/internal/resilience"
)

// sleepRecorder replaces real backoff waits in tests.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// newTestClient points a Client at srv with the default 429 policy and a
// recording sleep so backoff does not actually wait.
func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	retry := resilience.FromRetryConfig(5, 1000, 2)
	retry.Sleep = rec.Sleep

	base := []Option{
		WithBaseURL(srv.URL + "/search"),
		WithHTTPClient(srv.Client()),
		WithRetryConfig(retry),
	}
	return NewClient("test-key", append(base, opts...)...), rec
}

// statusSequence serves the given statuses/bodies in order, repeating the last one.
type statusSequence struct {
	mu       sync.Mutex
	statuses []int
	bodies   []string
	calls    int
	queries  []string
}

func (s *statusSequence) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i := s.calls
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	s.calls++
	s.queries = append(s.queries, r.URL.Query().Get("q"))
	status, body := s.statuses[i], s.bodies[i]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *statusSequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

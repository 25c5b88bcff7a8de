package overpass

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NERVsystems/overpass/pkg/geo"
	"github.com/NERVsystems/overpass/pkg/oql"
)

const emptyBody = `{"version": 0.6, "generator": "test", "elements": []}`

// newTestClient returns a client pointed at the given server with pacing
// relaxed so tests run fast.
func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithEndpoint(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(1000, 1000),
	}
	return NewClient(append(base, opts...)...)
}

func TestEnsureJSONOutput(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "prepended when absent",
			query: "node[amenity=cafe];out;",
			want:  "[out:json];node[amenity=cafe];out;",
		},
		{
			name:  "unchanged when present",
			query: "[out:json];node[amenity=cafe];out;",
			want:  "[out:json];node[amenity=cafe];out;",
		},
		{
			name:  "substring match anywhere counts",
			query: "node[note=[out:json]];out;",
			want:  "node[note=[out:json]];out;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureJSONOutput(tt.query); got != tt.want {
				t.Errorf("EnsureJSONOutput(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestQueryTransmitsAssembledQuery(t *testing.T) {
	var received atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		received.Store(r.PostFormValue("data"))
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	if _, err := client.Query(context.Background(), "node[amenity=cafe];out;"); err != nil {
		t.Fatalf("query failed: %v", err)
	}

	want := "[out:json];node[amenity=cafe];out;"
	if got := received.Load().(string); got != want {
		t.Errorf("transmitted query = %q, want %q", got, want)
	}
}

func TestQueryBBoxDirectivePrepended(t *testing.T) {
	var received atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Store(r.PostFormValue("data"))
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	bbox := geo.BoundingBox{MinLat: 40, MinLon: -74.1, MaxLat: 40.2, MaxLon: -73.9}
	if _, err := client.Query(context.Background(), "way[building];out;", WithBBox(bbox)); err != nil {
		t.Fatalf("query failed: %v", err)
	}

	want := "[bbox:40,-74.1,40.2,-73.9][out:json];way[building];out;"
	if got := received.Load().(string); got != want {
		t.Errorf("transmitted query = %q, want %q", got, want)
	}
}

func TestQueryInvalidBBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	client := newTestClient(srv)

	bbox := geo.BoundingBox{MinLat: 91, MinLon: 0, MaxLat: 92, MaxLon: 1}
	if _, err := client.Query(context.Background(), "node;out;", WithBBox(bbox)); err == nil {
		t.Fatal("expected validation error for latitude out of range")
	}
}

func TestQueryHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("parse error: unexpected token"))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	_, err := client.Query(context.Background(), "bogus")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", httpErr.StatusCode, http.StatusBadRequest)
	}
	if httpErr.Body != "parse error: unexpected token" {
		t.Errorf("body = %q", httpErr.Body)
	}
	if httpErr.Code() != ErrInvalidInput {
		t.Errorf("code = %s, want %s", httpErr.Code(), ErrInvalidInput)
	}
}

func TestQueryParseErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": [{"type": "area", "id": 1}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	_, err := client.Query(context.Background(), "node;out;")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestQueryCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv, WithCache(16, time.Minute))

	first, err := client.Query(context.Background(), "node[amenity=cafe];out;")
	if err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	second, err := client.Query(context.Background(), "node[amenity=cafe];out;")
	if err != nil {
		t.Fatalf("second query failed: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
	if first != second {
		t.Errorf("expected the cached response instance to be returned")
	}
}

func TestQueryCacheDisabled(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv, WithCache(0, 0))

	for range 2 {
		if _, err := client.Query(context.Background(), "node;out;"); err != nil {
			t.Fatalf("query failed: %v", err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
}

func TestRunStatement(t *testing.T) {
	var received atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Store(r.PostFormValue("data"))
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv)

	stmt := oql.Node().Filter("amenity", "cafe")
	if _, err := client.Run(context.Background(), stmt); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := "[out:json];node[amenity=cafe]"
	if got := received.Load().(string); got != want {
		t.Errorf("transmitted query = %q, want %q", got, want)
	}
}

func TestQueryEndpointOverride(t *testing.T) {
	var defaultHits, overrideHits atomic.Int64
	defaultSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defaultHits.Add(1)
		w.Write([]byte(emptyBody))
	}))
	defer defaultSrv.Close()
	overrideSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		overrideHits.Add(1)
		w.Write([]byte(emptyBody))
	}))
	defer overrideSrv.Close()

	client := newTestClient(defaultSrv)

	if _, err := client.Query(context.Background(), "node;out;", WithQueryEndpoint(overrideSrv.URL)); err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if overrideHits.Load() != 1 {
		t.Errorf("override endpoint hit %d times, want 1", overrideHits.Load())
	}
	if defaultHits.Load() != 0 {
		t.Errorf("default endpoint hit %d times, want 0", defaultHits.Load())
	}
}

func TestQueryDeduplicatesInFlight(t *testing.T) {
	var hits atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv, WithCache(0, 0))

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := client.Query(leaderCtx, "node;out;")
		leaderErr <- err
	}()
	<-started

	followerErr := make(chan error, 1)
	go func() {
		_, err := client.Query(context.Background(), "node;out;")
		followerErr <- err
	}()

	// Let the follower join the in-flight request before the leader
	// gives up on it.
	time.Sleep(50 * time.Millisecond)
	cancelLeader()

	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("leader error = %v, want context.Canceled", err)
	}

	close(release)
	if err := <-followerErr; err != nil {
		t.Fatalf("follower inherited the leader's cancellation: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 shared round trip", hits.Load())
	}
}

func TestQueryContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()
	defer close(release)

	client := newTestClient(srv)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Query(ctx, "node;out;"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("ping method = %s, want GET", r.Method)
		}
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestPingServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected error for 5xx status")
	}
}

func TestUserAgentHeader(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()

	client := newTestClient(srv, WithUserAgent("test-agent/1.0"))

	if _, err := client.Query(context.Background(), "node;out;"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if got := ua.Load().(string); got != "test-agent/1.0" {
		t.Errorf("User-Agent = %q, want %q", got, "test-agent/1.0")
	}
}

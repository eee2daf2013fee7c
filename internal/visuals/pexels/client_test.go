package pexels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"clipforge/internal/visuals"
	"clipforge/pkg/httputil"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		apiKey:     "test-key",
		httpClient: httputil.NewRetryClient(server.Client(), httputil.DefaultRetryConfig()),
		baseURL:    server.URL + "/v1/search",
		videoURL:   server.URL + "/videos/search",
	}
}

func TestSearchPhotos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			t.Error("missing Authorization header")
		}
		if r.URL.Path != "/v1/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "sunset" {
			t.Errorf("unexpected query: %s", r.URL.Query().Get("query"))
		}
		if r.URL.Query().Get("orientation") != "portrait" {
			t.Errorf("unexpected orientation: %s", r.URL.Query().Get("orientation"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"photos":[{"id":42,"width":1080,"height":1920,"alt":"sunset","src":{"large2x":"https://example.com/large.jpg","medium":"https://example.com/medium.jpg"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	got, err := client.Search(context.Background(), visuals.Query{
		Term:        "sunset",
		Kind:        visuals.KindImage,
		Orientation: "portrait",
		MaxResults:  5,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Provider != "pexels" || c.ProviderID != "42" {
		t.Errorf("identity = %s/%s, want pexels/42", c.Provider, c.ProviderID)
	}
	if c.URL != "https://example.com/large.jpg" {
		t.Errorf("URL = %s", c.URL)
	}
	if c.Kind != visuals.KindImage {
		t.Errorf("Kind = %s, want image", c.Kind)
	}
}

func TestSearchVideosPicksBestFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"videos":[{"id":7,"width":1920,"height":1080,"duration":12.5,"image":"https://example.com/thumb.jpg","video_files":[
			{"link":"https://example.com/sd.mp4","width":640,"height":360,"quality":"sd"},
			{"link":"https://example.com/hd.mp4","width":1920,"height":1080,"quality":"hd"},
			{"link":"https://example.com/hd-small.mp4","width":1280,"height":720,"quality":"hd"}
		]}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	got, err := client.Search(context.Background(), visuals.Query{Term: "ocean", Kind: visuals.KindVideo, MaxResults: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.URL != "https://example.com/hd.mp4" {
		t.Errorf("URL = %s, want the largest hd rendition", c.URL)
	}
	if c.Duration != 12.5 {
		t.Errorf("Duration = %v, want 12.5", c.Duration)
	}
}

func TestSearchRetriesOnRateLimit(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"photos":[{"id":1,"width":1080,"height":1920,"alt":"sunset","src":{"large2x":"https://example.com/l.jpg","medium":"https://example.com/m.jpg"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.httpClient = httputil.NewRetryClient(server.Client(), httputil.RetryConfig{
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2.0,
	})

	got, err := client.Search(context.Background(), visuals.Query{Term: "sunset", Kind: visuals.KindImage, MaxResults: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if atomic.LoadInt32(&attempts) != 2 {
		t.Errorf("attempts = %d, want a retry after the 429", attempts)
	}
}

func TestSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Search(context.Background(), visuals.Query{Term: "sunset", MaxResults: 5})
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

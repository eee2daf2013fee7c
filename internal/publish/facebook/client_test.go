package facebook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/publish"
)

func writeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte("fake mp4 bytes"), 0644); err != nil {
		t.Fatalf("write test video: %v", err)
	}
	return path
}

func newTestClient(server *httptest.Server) *Client {
	return New(Config{AccessToken: "test-token", PageID: "page1"},
		withBaseURL(server.URL), withHTTPClient(server.Client()))
}

func TestUploadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page1/videos" {
			t.Errorf("path = %s, want /page1/videos", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("access_token") != "test-token" {
			t.Errorf("access_token = %q", r.FormValue("access_token"))
		}
		if r.FormValue("title") != "My Video" {
			t.Errorf("title = %q", r.FormValue("title"))
		}
		if r.FormValue("description") != "desc" {
			t.Errorf("description = %q", r.FormValue("description"))
		}
		if _, ok := r.MultipartForm.Value["published"]; ok {
			t.Error("public upload must not carry published=false")
		}

		file, _, err := r.FormFile("source")
		if err != nil {
			t.Fatalf("source part: %v", err)
		}
		defer file.Close()
		if body, _ := io.ReadAll(file); string(body) != "fake mp4 bytes" {
			t.Errorf("file body = %q", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"fb1"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	result, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{
		Title:       "My Video",
		Description: "desc",
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.PlatformID != "fb1" {
		t.Errorf("PlatformID = %q, want fb1", result.PlatformID)
	}
	if result.PlatformURL != "https://www.facebook.com/page1/videos/fb1" {
		t.Errorf("PlatformURL = %q", result.PlatformURL)
	}
}

func TestUploadPrivateIsUnpublished(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("published") != "false" {
			t.Errorf("published = %q, want false for private uploads", r.FormValue("published"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"fb2"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{
		Title:      "x",
		Visibility: "private",
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
}

func TestUploadGraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid page token"}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error on graph error response")
	}
	if !strings.Contains(err.Error(), "invalid page token") {
		t.Errorf("error = %v, want the graph message attached", err)
	}
}

func TestUploadBadStatusWithoutErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v, want the status attached", err)
	}
}

package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/publish"
)

const testVideoBody = "fake mp4 bytes"

func writeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte(testVideoBody), 0644); err != nil {
		t.Fatalf("write test video: %v", err)
	}
	return path
}

func TestUploadSuccess(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/post/publish/video/init/":
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("Authorization = %q, want bearer token", got)
			}
			var req initRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode init request: %v", err)
			}
			if req.PostInfo.Title != "My Clip" {
				t.Errorf("title = %q", req.PostInfo.Title)
			}
			if req.PostInfo.PrivacyLevel != "PUBLIC_TO_EVERYONE" {
				t.Errorf("privacy = %q, want PUBLIC_TO_EVERYONE", req.PostInfo.PrivacyLevel)
			}
			size := int64(len(testVideoBody))
			if req.SourceInfo.Source != "FILE_UPLOAD" || req.SourceInfo.VideoSize != size ||
				req.SourceInfo.ChunkSize != size || req.SourceInfo.TotalChunkCount != 1 {
				t.Errorf("source_info = %+v, want single-chunk file upload", req.SourceInfo)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"data":{"publish_id":"pub1","upload_url":"%s/upload"},"error":{"code":"ok"}}`, server.URL)

		case "/upload":
			if r.Method != http.MethodPut {
				t.Errorf("upload method = %s, want PUT", r.Method)
			}
			wantRange := fmt.Sprintf("bytes 0-%d/%d", len(testVideoBody)-1, len(testVideoBody))
			if got := r.Header.Get("Content-Range"); got != wantRange {
				t.Errorf("Content-Range = %q, want %q", got, wantRange)
			}
			if got := r.Header.Get("Content-Type"); got != "video/mp4" {
				t.Errorf("Content-Type = %q, want video/mp4", got)
			}
			if body, _ := io.ReadAll(r.Body); string(body) != testVideoBody {
				t.Errorf("upload body = %q", body)
			}
			w.WriteHeader(http.StatusCreated)

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(Config{AccessToken: "test-token"}, withBaseURL(server.URL), withHTTPClient(server.Client()))
	result, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{Title: "My Clip"})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.PlatformID != "pub1" {
		t.Errorf("PlatformID = %q, want pub1", result.PlatformID)
	}
	if result.PlatformURL != "" {
		t.Errorf("PlatformURL = %q, want empty (processed asynchronously)", result.PlatformURL)
	}
}

func TestUploadInitAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{},"error":{"code":"access_token_invalid","message":"bad token"}}`))
	}))
	defer server.Close()

	client := New(Config{AccessToken: "bad"}, withBaseURL(server.URL), withHTTPClient(server.Client()))
	_, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error for api error code")
	}
	if !strings.Contains(err.Error(), "bad token") {
		t.Errorf("error = %v, want the api message attached", err)
	}
}

func TestUploadInitBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(Config{AccessToken: "bad"}, withBaseURL(server.URL), withHTTPClient(server.Client()))
	_, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestPrivacyLevel(t *testing.T) {
	tests := []struct {
		visibility string
		want       string
	}{
		{"private", "SELF_ONLY"},
		{"unlisted", "MUTUAL_FOLLOW_FRIENDS"},
		{"public", "PUBLIC_TO_EVERYONE"},
		{"", "PUBLIC_TO_EVERYONE"},
	}

	for _, tt := range tests {
		if got := privacyLevel(tt.visibility); got != tt.want {
			t.Errorf("privacyLevel(%q) = %q, want %q", tt.visibility, got, tt.want)
		}
	}
}

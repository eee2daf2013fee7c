package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}

		switch r.URL.Path {
		case "/assets":
			if r.URL.Query().Get("action") != "registerUpload" {
				t.Errorf("action = %q, want registerUpload", r.URL.Query().Get("action"))
			}
			if got := r.Header.Get("X-Restli-Protocol-Version"); got != "2.0.0" {
				t.Errorf("X-Restli-Protocol-Version = %q", got)
			}
			var payload struct {
				RegisterUploadRequest struct {
					Recipes []string `json:"recipes"`
					Owner   string   `json:"owner"`
				} `json:"registerUploadRequest"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode register request: %v", err)
			}
			if payload.RegisterUploadRequest.Owner != "urn:li:person:abc" {
				t.Errorf("owner = %q", payload.RegisterUploadRequest.Owner)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"value":{"asset":"urn:li:digitalmediaAsset:a1","uploadMechanism":{"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest":{"uploadUrl":"%s/upload"}}}}`, server.URL)

		case "/upload":
			if r.Method != http.MethodPut {
				t.Errorf("upload method = %s, want PUT", r.Method)
			}
			if body, _ := io.ReadAll(r.Body); string(body) != testVideoBody {
				t.Errorf("upload body = %q", body)
			}
			w.WriteHeader(http.StatusCreated)

		case "/ugcPosts":
			var payload struct {
				Author     string `json:"author"`
				Visibility struct {
					MemberNetwork string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
				} `json:"visibility"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode post request: %v", err)
			}
			if payload.Author != "urn:li:person:abc" {
				t.Errorf("author = %q", payload.Author)
			}
			if payload.Visibility.MemberNetwork != "PUBLIC" {
				t.Errorf("visibility = %q, want PUBLIC", payload.Visibility.MemberNetwork)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"urn:li:share:s1"}`))

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(Config{AccessToken: "test-token", OwnerURN: "urn:li:person:abc"},
		withBaseURL(server.URL), withHTTPClient(server.Client()))
	result, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{
		Title:       "My Post",
		Description: "desc",
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.PlatformID != "urn:li:share:s1" {
		t.Errorf("PlatformID = %q", result.PlatformID)
	}
	if result.PlatformURL != "https://www.linkedin.com/feed/update/urn:li:share:s1" {
		t.Errorf("PlatformURL = %q", result.PlatformURL)
	}
}

func TestUploadRegisterFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"expired token"}`))
	}))
	defer server.Close()

	client := New(Config{AccessToken: "bad", OwnerURN: "urn:li:person:abc"},
		withBaseURL(server.URL), withHTTPClient(server.Client()))
	_, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error on non-200 register response")
	}
}

func TestUploadRegisterMissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":{"asset":"urn:li:digitalmediaAsset:a1","uploadMechanism":{}}}`))
	}))
	defer server.Close()

	client := New(Config{AccessToken: "test-token", OwnerURN: "urn:li:person:abc"},
		withBaseURL(server.URL), withHTTPClient(server.Client()))
	_, err := client.Upload(context.Background(), writeTestVideo(t), publish.Metadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error when no upload url is returned")
	}
}

func TestVisibility(t *testing.T) {
	tests := []struct {
		visibility string
		want       string
	}{
		{"private", "CONNECTIONS"},
		{"unlisted", "CONNECTIONS"},
		{"public", "PUBLIC"},
		{"", "PUBLIC"},
	}

	for _, tt := range tests {
		if got := visibility(tt.visibility); got != tt.want {
			t.Errorf("visibility(%q) = %q, want %q", tt.visibility, got, tt.want)
		}
	}
}

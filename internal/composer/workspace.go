package composer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// workspace is the scoped temporary directory for one composition run.
// It is exclusive to the run and always released, including after failures
// that leave partially-staged files behind.
type workspace struct {
	dir string
}

func newWorkspace(parent string) (*workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("create workspace parent: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "compose-*")
	if err != nil {
		return nil, fmt.Errorf("allocate workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *workspace) release() {
	_ = os.RemoveAll(w.dir)
}

// stage materializes a source into the workspace under name, copying local
// files and fetching http(s) URLs.
func (w *workspace) stage(ctx context.Context, client *http.Client, source, name string) (string, error) {
	dest := w.path(name)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return dest, w.fetch(ctx, client, source, dest)
	}
	return dest, w.copyFile(source, dest)
}

func (w *workspace) copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source %s: %w", source, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create staged file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", source, err)
	}
	return nil
}

func (w *workspace) fetch(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create staged file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

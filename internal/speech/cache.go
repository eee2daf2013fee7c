package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/store"
)

// Result is the outcome of a cached synthesis call.
type Result struct {
	AudioPath string
	Duration  float64
	ByteSize  int64
	Format    string
	CacheHit  bool
}

// Cache deduplicates synthesis requests by content fingerprint. Artifacts
// live on disk under dir; the index lives in the relational store.
type Cache struct {
	provider Provider
	store    *store.Store
	dir      string
}

func NewCache(provider Provider, st *store.Store, dir string) *Cache {
	return &Cache{provider: provider, store: st, dir: dir}
}

// Synthesize returns a cached artifact for an identical prior request, or
// invokes the provider, persists the artifact and index entry, and returns
// the fresh result. A cache entry whose artifact is gone is purged and
// treated as a miss.
func (c *Cache) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	req = req.withDefaults()

	fp := Fingerprint(req)

	if entry, err := c.store.GetVoiceCacheEntry(ctx, fp); err == nil {
		if _, statErr := os.Stat(entry.AudioPath); statErr == nil {
			var duration float64
			if entry.Duration != nil {
				duration = *entry.Duration
			}
			return &Result{
				AudioPath: entry.AudioPath,
				Duration:  duration,
				ByteSize:  entry.ByteSize,
				Format:    entry.Format,
				CacheHit:  true,
			}, nil
		}
		slog.Warn("voice cache artifact missing, purging entry", "fingerprint", fp, "path", entry.AudioPath)
		_ = c.store.DeleteVoiceCacheEntry(ctx, fp)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	audio, err := c.provider.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	path, err := c.writeArtifact(fp, req.Format, audio)
	if err != nil {
		return nil, err
	}

	duration := EstimateDuration(audio)
	entry := &store.VoiceCacheEntry{
		Fingerprint: fp,
		AudioPath:   path,
		Duration:    &duration,
		ByteSize:    int64(len(audio)),
		Format:      req.Format,
	}
	if err := c.store.PutVoiceCacheEntry(ctx, entry); err != nil {
		return nil, err
	}

	return &Result{
		AudioPath: path,
		Duration:  duration,
		ByteSize:  int64(len(audio)),
		Format:    req.Format,
		CacheHit:  false,
	}, nil
}

// writeArtifact stages the audio under a temp name and renames it into place,
// so a crash mid-write never leaves the index pointing at a partial file.
func (c *Cache) writeArtifact(fingerprint, format string, audio []byte) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("create voice cache directory: %w", err)
	}

	name := fmt.Sprintf("voice_%s.%s", fingerprint[:16], format)
	path := filepath.Join(c.dir, name)

	tmp, err := os.CreateTemp(c.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create artifact temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(audio); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("publish artifact: %w", err)
	}

	return path, nil
}

// Fingerprint computes a stable hash over the normalized request tuple, so
// identical requests resolve to the same artifact.
func Fingerprint(req Request) string {
	req = req.withDefaults()
	key := strings.Join([]string{
		strings.TrimSpace(req.Text),
		strings.ToLower(strings.TrimSpace(req.Language)),
		req.Voice,
		fmt.Sprintf("%.2f", req.Speed),
		req.Format,
	}, "\x1f")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

type GCSStorage struct {
	client        *storage.Client
	bucket        string
	musicPrefix   string
	publishPrefix string
	localCacheDir string
}

func NewGCSStorage(ctx context.Context, bucket, musicPrefix, publishPrefix, localCacheDir string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client:        client,
		bucket:        bucket,
		musicPrefix:   musicPrefix,
		publishPrefix: publishPrefix,
		localCacheDir: localCacheDir,
	}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) Store(ctx context.Context, localPath, name string) (string, error) {
	in, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = in.Close() }()

	objectName := s.publishPrefix + "/" + name
	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName), nil
}

func (s *GCSStorage) RandomMusicTrack(ctx context.Context) (string, error) {
	tracks, err := s.listMusicTracks(ctx)
	if err != nil {
		return "", err
	}

	if len(tracks) == 0 {
		return "", fmt.Errorf("no music tracks found in gs://%s/%s", s.bucket, s.musicPrefix)
	}

	remotePath := tracks[rand.Intn(len(tracks))]
	localPath := filepath.Join(s.localCacheDir, filepath.Base(remotePath))

	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	if err := s.downloadFile(ctx, remotePath, localPath); err != nil {
		return "", fmt.Errorf("failed to download music track: %w", err)
	}

	return localPath, nil
}

func (s *GCSStorage) listMusicTracks(ctx context.Context) ([]string, error) {
	bkt := s.client.Bucket(s.bucket)
	query := &storage.Query{Prefix: s.musicPrefix}

	var tracks []string
	it := bkt.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		ext := strings.ToLower(filepath.Ext(attrs.Name))
		if ext == ".mp3" || ext == ".wav" || ext == ".m4a" {
			tracks = append(tracks, attrs.Name)
		}
	}

	return tracks, nil
}

func (s *GCSStorage) downloadFile(ctx context.Context, remotePath, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	obj := s.client.Bucket(s.bucket).Object(remotePath)
	r, err := obj.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}

	return nil
}

func (s *GCSStorage) EnsureCacheDir() error {
	return os.MkdirAll(s.localCacheDir, 0755)
}

package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
)

type LocalStorage struct {
	musicDir      string
	publishDir    string
	publicBaseURL string
}

func NewLocalStorage(musicDir, publishDir, publicBaseURL string) *LocalStorage {
	return &LocalStorage{
		musicDir:      musicDir,
		publishDir:    publishDir,
		publicBaseURL: publicBaseURL,
	}
}

func (s *LocalStorage) Store(ctx context.Context, localPath, name string) (string, error) {
	if err := os.MkdirAll(s.publishDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create publish directory: %w", err)
	}

	in, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = in.Close() }()

	dest := filepath.Join(s.publishDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create published file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}

	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", s.publicBaseURL, name), nil
	}
	return dest, nil
}

func (s *LocalStorage) RandomMusicTrack(ctx context.Context) (string, error) {
	tracks, err := s.ListMusicTracks()
	if err != nil {
		return "", err
	}

	if len(tracks) == 0 {
		return "", fmt.Errorf("no music tracks found in %s", s.musicDir)
	}

	return tracks[rand.Intn(len(tracks))], nil
}

func (s *LocalStorage) ListMusicTracks() ([]string, error) {
	entries, err := os.ReadDir(s.musicDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read music directory: %w", err)
	}

	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".mp3" || ext == ".wav" || ext == ".m4a" {
			tracks = append(tracks, filepath.Join(s.musicDir, entry.Name()))
		}
	}

	return tracks, nil
}

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.musicDir, 0755); err != nil {
		return fmt.Errorf("failed to create music directory: %w", err)
	}

	if err := os.MkdirAll(s.publishDir, 0755); err != nil {
		return fmt.Errorf("failed to create publish directory: %w", err)
	}

	return nil
}

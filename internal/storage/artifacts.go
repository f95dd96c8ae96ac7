package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
)

// ErrObjectNotFound is returned by Download when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Artifact is one local file mirrored to object storage.
type Artifact struct {
	Path        string
	ContentType string
	Required    bool
}

// Name returns the object name used under the storage prefix.
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// ServeArtifacts lists the files the API needs at start-up.
func ServeArtifacts(data *config.DataConfig) []Artifact {
	return []Artifact{
		{Path: data.MetadataPath(), ContentType: "text/csv", Required: true},
		{Path: data.EmbeddingsPath(), ContentType: "application/octet-stream", Required: true},
		{Path: data.IndexPath(), ContentType: "application/octet-stream", Required: true},
	}
}

// BuildArtifacts lists everything a build produces, provider cache included.
func BuildArtifacts(data *config.DataConfig) []Artifact {
	return append(ServeArtifacts(data), Artifact{
		Path:        data.ProviderCachePath(),
		ContentType: "application/json",
	})
}

// ArtifactSync copies artifacts between the data dir and object storage.
type ArtifactSync struct {
	store  ObjectStorage
	prefix string
}

// NewArtifactSync creates a sync rooted at prefix inside the bucket.
func NewArtifactSync(store ObjectStorage, prefix string) *ArtifactSync {
	return &ArtifactSync{store: store, prefix: prefix}
}

// Key returns the object key for an artifact.
func (s *ArtifactSync) Key(a Artifact) string {
	return path.Join(s.prefix, a.Name())
}

// Publish uploads every artifact. Optional artifacts missing on disk are
// skipped. Returns the number of uploaded files.
func (s *ArtifactSync) Publish(ctx context.Context, artifacts []Artifact) (int, error) {
	uploaded := 0
	for _, a := range artifacts {
		f, err := os.Open(a.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && !a.Required {
				logger.CtxInfo(ctx, "Skipping missing optional artifact: %s", a.Path)
				continue
			}
			return uploaded, fmt.Errorf("failed to open artifact: %w", err)
		}

		err = s.upload(ctx, f, a)
		f.Close()
		if err != nil {
			return uploaded, err
		}
		uploaded++
	}
	return uploaded, nil
}

func (s *ArtifactSync) upload(ctx context.Context, f *os.File, a Artifact) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat artifact: %w", err)
	}
	key := s.Key(a)
	if err := s.store.Upload(ctx, key, f, info.Size(), a.ContentType); err != nil {
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}
	logger.With(logger.Fields{"key": key, "bytes": info.Size()}).Info(ctx, "Artifact published")
	return nil
}

// Fetch downloads every artifact into the data dir. Downloads are staged and
// only replace local files once all required artifacts arrived, so a failed
// fetch leaves the previous set untouched.
func (s *ArtifactSync) Fetch(ctx context.Context, artifacts []Artifact) (int, error) {
	var staging repository.Staging
	defer staging.Discard()

	for _, a := range artifacts {
		if err := os.MkdirAll(filepath.Dir(a.Path), 0755); err != nil {
			return 0, fmt.Errorf("failed to create data dir: %w", err)
		}

		key := s.Key(a)
		body, err := s.store.Download(ctx, key)
		if err != nil {
			if errors.Is(err, ErrObjectNotFound) && !a.Required {
				logger.CtxInfo(ctx, "Optional artifact not in storage: %s", key)
				continue
			}
			return 0, fmt.Errorf("failed to fetch %s: %w", key, err)
		}

		err = staging.Stage(a.Path, func(w io.Writer) error {
			_, err := io.Copy(w, body)
			return err
		})
		body.Close()
		if err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", a.Path, err)
		}
	}

	fetched := staging.Pending()
	if err := staging.Commit(); err != nil {
		return 0, err
	}
	logger.With(nil).WithCount(fetched).Info(ctx, "Artifacts fetched from storage")
	return fetched, nil
}

package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/source/augmented"
	"github.com/Lukita-it/buscador-semantico/internal/source/imdb"
)

// Resolve picks the catalog source for a build: the Spanish-augmented
// metadata when it exists, else the raw dataset. With neither it returns
// domain.ErrSourceMissing.
func Resolve(metadataPath, rawPath string) (Source, error) {
	ok, err := fileExists(metadataPath)
	if err != nil {
		return nil, err
	}
	if ok {
		return augmented.NewAdapter(metadataPath), nil
	}

	ok, err = fileExists(rawPath)
	if err != nil {
		return nil, err
	}
	if ok {
		return imdb.NewAdapter(rawPath), nil
	}

	return nil, fmt.Errorf("neither %s nor %s exists: %w", metadataPath, rawPath, domain.ErrSourceMissing)
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}

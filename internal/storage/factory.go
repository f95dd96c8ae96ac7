package storage

import (
	"fmt"
	"strings"

	"github.com/Lukita-it/buscador-semantico/internal/config"
)

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: storage section of the application config.
//
// Returns:
//   - ObjectStorage: initialized storage client implementation.
//   - error: non-nil if storage is disabled or the client cannot be created.
func NewStorage(cfg *config.StorageConfig) (ObjectStorage, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("object storage is disabled")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	storeType := StorageType(strings.ToLower(cfg.Type))
	// Auto-detect storage type if not specified
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(&S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
	})
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case endpoint == "":
		return StorageTypeS3
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}

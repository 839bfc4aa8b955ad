package factory

import (
	"fmt"

	"go-nutrition-scanner/internal/config"
	"go-nutrition-scanner/internal/storage"
)

// StorageType selects the image acquisition backend for URL inputs.
type StorageType string

const (
	// HTTPStorage fetches images over plain HTTP(S)
	HTTPStorage StorageType = "http"
	// AzureStorage fetches images from Azure blob storage
	AzureStorage StorageType = "azure"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a factory bound to the loaded configuration.
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize), nil
	case AzureStorage:
		return storage.NewAzureStorage(f.cfg.AzureAccountName, f.cfg.AzureAccountKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

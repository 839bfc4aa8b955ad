package repository

import "context"

// ImageRepository defines the interface for image acquisition by URL
type ImageRepository interface {
	// FetchImage retrieves the raw bytes of an image from a URL
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

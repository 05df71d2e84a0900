package gyazo

import (
	"context"
)

// API defines the interface for Gyazo operations
type API interface {
	// ListImages retrieves one page of the user's images
	ListImages(ctx context.Context, page, perPage int) (*ImageCollection, error)

	// ListAllImages walks every page of the user's images
	ListAllImages(ctx context.Context, perPage int) (*ImageCollection, error)

	// GetImage retrieves a single image
	GetImage(ctx context.Context, imageID string) (*Image, error)

	// UploadImage uploads image data
	UploadImage(ctx context.Context, data []byte, opts *UploadOptions) (*Image, error)

	// DeleteImage deletes an image and returns the deleted record
	DeleteImage(ctx context.Context, imageID string) (*Image, error)

	// GetOEmbed retrieves the oEmbed document of a public image page
	GetOEmbed(ctx context.Context, pageURL string) (OEmbed, error)
}

// Downloader fetches image files
type Downloader interface {
	// Download fetches the full size image, nil if the image has no URL
	Download(ctx context.Context, img Image) ([]byte, error)

	// DownloadThumb fetches the thumbnail, nil if the image has no thumbnail URL
	DownloadThumb(ctx context.Context, img Image) ([]byte, error)
}

var (
	_ API        = (*Client)(nil)
	_ Downloader = (*Client)(nil)
)

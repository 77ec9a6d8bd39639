package service

import "context"

// AssetUploader stores binary content and returns a stable public URL.
type AssetUploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (url string, err error)
}

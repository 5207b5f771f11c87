package illustrate

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/yungbote/lecturenotes-backend/internal/platform/gcp"
)

// Host turns image bytes into a URL the renderer can load.
type Host interface {
	Host(ctx context.Context, key string, img Image) (string, error)
}

// DataURLHost inlines the image.
type DataURLHost struct{}

func (DataURLHost) Host(_ context.Context, _ string, img Image) (string, error) {
	if len(img.Bytes) == 0 {
		return "", fmt.Errorf("empty image")
	}
	return DataURL(img), nil
}

func DataURL(img Image) string {
	mime := strings.TrimSpace(img.MimeType)
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes)
}

// ObjectPrefix is where BucketHost stores illustrations.
const ObjectPrefix = "illustrations/"

// BucketHost uploads to GCS under illustrations/<key>.<ext> and returns the public URL.
type BucketHost struct {
	Bucket gcp.BucketService
}

func (h BucketHost) Host(ctx context.Context, key string, img Image) (string, error) {
	if len(img.Bytes) == 0 {
		return "", fmt.Errorf("empty image")
	}
	objectKey := ObjectPrefix + key + extensionFor(img.MimeType)
	exists, err := h.Bucket.Exists(ctx, objectKey)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := h.Bucket.UploadFile(ctx, objectKey, bytes.NewReader(img.Bytes)); err != nil {
			return "", fmt.Errorf("upload illustration: %w", err)
		}
	}
	return h.Bucket.GetPublicURL(objectKey), nil
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// Package media uploads dossier images to Cloudinary for durable hosting.
package media

import (
	"context"
	"log"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"estatescout/internal/config"
	"estatescout/internal/model"
)

// CloudinaryUploader uploads local images to Cloudinary. Upload failures are
// degraded-but-non-fatal for the caller, so Upload reports them in the
// result rather than as an error.
type CloudinaryUploader struct {
	client  *cloudinary.Cloudinary
	enabled bool
}

// NewCloudinaryUploader creates an uploader. With incomplete credentials the
// uploader is disabled and every upload reports failure.
func NewCloudinaryUploader(cfg *config.CloudinaryConfig) *CloudinaryUploader {
	if !cfg.Enabled {
		log.Println("⚠️ Cloudinary not configured - screenshots will be served from local paths")
		return &CloudinaryUploader{}
	}

	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		log.Printf("⚠️ Cloudinary init failed: %v", err)
		return &CloudinaryUploader{}
	}
	return &CloudinaryUploader{client: client, enabled: true}
}

// Enabled reports whether uploads can be attempted.
func (u *CloudinaryUploader) Enabled() bool {
	return u.enabled
}

// Upload sends a local image to Cloudinary under the given folder and public
// ID, returning the secure URL on success.
func (u *CloudinaryUploader) Upload(ctx context.Context, localPath, folder, publicID string) model.UploadResult {
	if !u.enabled {
		return model.UploadResult{Success: false, Error: "cloudinary not configured"}
	}

	resp, err := u.client.Upload.Upload(ctx, localPath, uploader.UploadParams{
		Folder:   folder,
		PublicID: publicID,
	})
	if err != nil {
		return model.UploadResult{Success: false, Error: err.Error()}
	}
	if resp.Error.Message != "" {
		return model.UploadResult{Success: false, Error: resp.Error.Message}
	}

	return model.UploadResult{
		Success:  true,
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
	}
}

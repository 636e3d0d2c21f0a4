package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/rouemaroc/spinwheel/internal/config"
)

// Cloudinary keeps gift pictures in one folder of a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(conf *config.CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(conf.CloudName, conf.APIKey, conf.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary.NewFromParams -> %w", err)
	}

	return &Cloudinary{
		cld:    cld,
		folder: conf.Folder,
	}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, publicID string) (string, string, error) {
	result, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       c.folder,
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return "", "", fmt.Errorf("c.cld.Upload.Upload -> %w", err)
	}
	if result.Error.Message != "" {
		return "", "", errors.New(result.Error.Message)
	}

	return result.SecureURL, result.PublicID, nil
}

func (c *Cloudinary) Destroy(ctx context.Context, publicID string) error {
	result, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("c.cld.Upload.Destroy -> %w", err)
	}
	if result.Error.Message != "" {
		return errors.New(result.Error.Message)
	}

	return nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CloudinaryConfig contains credentials required to talk to Cloudinary.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// CloudinaryStorage uploads documents as raw/auto assets; the stored path is the public id.
type CloudinaryStorage struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// NewCloudinaryStorage constructs a Cloudinary-backed storage.
func NewCloudinaryStorage(cfg CloudinaryConfig, logger zerolog.Logger) (*CloudinaryStorage, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryStorage{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary_storage").Logger(),
	}, nil
}

func (s *CloudinaryStorage) Driver() string { return DriverCloudinary }

func (s *CloudinaryStorage) Save(ctx context.Context, dir, name string, reader io.Reader) (StoredFile, error) {
	folder := path.Join(s.folder, CleanDir(dir))
	publicID := uuid.NewString() + strings.ToLower(filepath.Ext(name))

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto",
	})
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return StoredFile{}, fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("document uploaded to cloudinary")

	return StoredFile{
		Name: publicID,
		Path: result.PublicID,
		URL:  result.SecureURL,
	}, nil
}

func (s *CloudinaryStorage) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, ErrRemoteOnly
}

func (s *CloudinaryStorage) Delete(ctx context.Context, storedPath string) error {
	for _, resourceType := range []string{"raw", "image"} {
		result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
			PublicID:     storedPath,
			ResourceType: resourceType,
		})
		if err != nil {
			return fmt.Errorf("failed to delete asset: %w", err)
		}
		if result.Result == "ok" {
			return nil
		}
	}
	return nil
}

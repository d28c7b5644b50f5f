package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/log"
)

// ImageStore persists recipe images and returns the URL they are served from
type ImageStore interface {
	Save(ctx context.Context, image *Image) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// Image is a decoded upload
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeImage parses a base64 data URI such as data:image/png;base64,iVBOR...
func DecodeImage(dataURI string) (*Image, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, invalid("image", "must be a base64 encoded data URI")
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, invalid("image", fmt.Sprintf("unsupported image type %q", contentType))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, invalid("image", "invalid base64 payload")
	}
	if len(data) == 0 {
		return nil, invalid("image", "image is empty")
	}

	return &Image{Data: data, ContentType: contentType, Extension: ext}, nil
}

func imageKey(image *Image) string {
	return fmt.Sprintf("recipes/%s.%s", uuid.New().String(), image.Extension)
}

// S3ImageStore keeps images in an S3 bucket under the recipes/ prefix
type S3ImageStore struct {
	s3Config *config.S3Config
}

func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

// Save uploads the image and returns its public URL
func (s *S3ImageStore) Save(ctx context.Context, image *Image) (string, error) {
	key := imageKey(image)
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image.Data),
		ContentType: aws.String(image.ContentType),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to upload to S3")
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Log.WithField("url", publicURL).Debug("Uploaded recipe image to S3")
	return publicURL, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, imageURL string) error {
	u, err := url.Parse(imageURL)
	if err != nil {
		return errors.Wrap(err, "invalid image URL")
	}
	_, err = s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	})
	return errors.Wrap(err, "failed to delete from S3")
}

// LocalImageStore writes images below root and serves them from baseURL
type LocalImageStore struct {
	root    string
	baseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalImageStore{root: root, baseURL: baseURL}
}

func (s *LocalImageStore) Save(ctx context.Context, image *Image) (string, error) {
	key := imageKey(image)
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create media directory")
	}
	if err := os.WriteFile(target, image.Data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write image")
	}
	return s.baseURL + key, nil
}

func (s *LocalImageStore) Delete(ctx context.Context, imageURL string) error {
	key := strings.TrimPrefix(imageURL, s.baseURL)
	if key == imageURL || strings.Contains(key, "..") {
		return errors.Errorf("image %q is not managed by this store", imageURL)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path.Clean(key))))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete image")
	}
	return nil
}

// NewImageStore picks the store configured by IMAGE_STORAGE
func NewImageStore(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	if cfg.ImageStorage == "s3" {
		s3Config, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialise S3")
		}
		if err := s3Config.SetupBucketPolicy(ctx); err != nil {
			log.Log.WithError(err).Warn("Could not apply public read policy to the image bucket")
		}
		return NewS3ImageStore(s3Config), nil
	}
	return NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL), nil
}

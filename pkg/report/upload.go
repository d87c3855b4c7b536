package report

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ormasoftchile/zarah/pkg/logging"
)

// Destination is a parsed s3://bucket/prefix URI.
type Destination struct {
	Bucket string
	Prefix string
}

// ParseDestination parses an s3:// URI.
func ParseDestination(uri string) (Destination, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Destination{}, fmt.Errorf("parse upload destination: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Destination{}, fmt.Errorf("upload destination %q: want s3://bucket/prefix", uri)
	}
	return Destination{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Key joins the destination prefix with name.
func (d Destination) Key(name string) string {
	if d.Prefix == "" {
		return name
	}
	return path.Join(d.Prefix, name)
}

// PutObjectAPI is the subset of the S3 upload manager used here.
type PutObjectAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Uploader publishes report artifacts to object storage.
type Uploader struct {
	api    PutObjectAPI
	dest   Destination
	logger *zap.Logger
}

// NewUploader returns an Uploader using api.
func NewUploader(api PutObjectAPI, dest Destination, logger *zap.Logger) *Uploader {
	return &Uploader{api: api, dest: dest, logger: logging.OrNop(logger)}
}

// NewS3Uploader builds an Uploader from the default AWS configuration chain.
func NewS3Uploader(ctx context.Context, uri string, logger *zap.Logger) (*Uploader, error) {
	dest, err := ParseDestination(uri)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return NewUploader(manager.NewUploader(client), dest, logger), nil
}

// UploadFile uploads one file under its base name and returns the key.
func (u *Uploader) UploadFile(ctx context.Context, localPath string) (string, error) {
	return u.upload(ctx, localPath, filepath.Base(localPath))
}

// UploadDir uploads every regular file under dir, keeping relative paths.
// It returns the uploaded keys.
func (u *Uploader) UploadDir(ctx context.Context, dir string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(dir, func(p string, de os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filepath.Dir(dir), p)
		if err != nil {
			return err
		}
		key, err := u.upload(ctx, p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

func (u *Uploader) upload(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := u.dest.Key(name)
	_, err = u.api.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.dest.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	u.logger.Info("uploaded", zap.String("bucket", u.dest.Bucket), zap.String("key", key))
	return key, nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	case ".png":
		return "image/png"
	case ".prom", ".txt":
		return "text/plain"
	}
	return "application/octet-stream"
}

package uploads

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/khanghh/alumnet/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioFileStore keeps uploads in an S3 compatible bucket. Saved files are
// addressed by their public object URL.
type MinioFileStore struct {
	mc      *minio.Client
	bucket  string
	baseURL string
}

func (s *MinioFileStore) Save(ctx context.Context, kind string, file File) (string, error) {
	key := kind + "/" + newFileName(file.Ext)
	_, err := s.mc.PutObject(ctx, s.bucket, key, file.Reader, file.Size, minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *MinioFileStore) Remove(ctx context.Context, path string) error {
	key, ok := strings.CutPrefix(path, s.baseURL+"/")
	if !ok {
		return nil
	}
	err := s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return err
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioFileStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		slog.Info("Created upload bucket", "bucket", s.bucket)
	}
	return nil
}

func NewMinioFileStore(cfg config.MinioConfig) (*MinioFileStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	baseURL := (&url.URL{Scheme: scheme, Host: cfg.Endpoint, Path: "/" + cfg.Bucket}).String()
	return &MinioFileStore{mc: mc, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Package objectstore provides access to the object storage service holding
// raw uploaded document bytes. It implements the narrow contract the pipeline
// needs: existence check, download, metadata, and signed read URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Metadata describes a stored object.
type Metadata struct {
	Size        int64
	ContentType string
	// UserMetadata carries the custom fields set at upload time
	// (e.g. the original filename or uploader).
	UserMetadata map[string]string
}

// Store is the object storage client used by the pipeline.
type Store interface {
	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Download fetches the raw bytes stored at path.
	Download(ctx context.Context, path string) ([]byte, error)

	// GetMetadata returns size and custom metadata for the object at path.
	GetMetadata(ctx context.Context, path string) (*Metadata, error)

	// SignedReadURL returns a presigned GET URL valid for ttl.
	SignedReadURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// MinioStore implements Store against any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// Ensure MinioStore implements Store.
var _ Store = (*MinioStore)(nil)

// NewMinioStore creates a new MinioStore from storage configuration.
func NewMinioStore(cfg config.StorageConfig, logger *slog.Logger) (*MinioStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("component", "object_store"),
	}, nil
}

// Exists implements Store.Exists.
func (s *MinioStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %q: %w", path, err)
	}
	return true, nil
}

// Download implements Store.Download.
func (s *MinioStore) Download(ctx context.Context, path string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %w", path, err)
	}
	defer func() {
		if cerr := object.Close(); cerr != nil {
			s.logger.Warn("failed to close object reader", "path", path, "error", cerr)
		}
	}()

	data, err := io.ReadAll(object)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		return nil, fmt.Errorf("failed to read object %q: %w", path, err)
	}

	s.logger.Debug("downloaded object", "path", path, "bytes", len(data))
	return data, nil
}

// GetMetadata implements Store.GetMetadata.
func (s *MinioStore) GetMetadata(ctx context.Context, path string) (*Metadata, error) {
	info, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat object %q: %w", path, err)
	}

	return &Metadata{
		Size:         info.Size,
		ContentType:  info.ContentType,
		UserMetadata: info.UserMetadata,
	}, nil
}

// SignedReadURL implements Store.SignedReadURL.
func (s *MinioStore) SignedReadURL(
	ctx context.Context,
	path string,
	ttl time.Duration,
) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %q: %w", path, err)
	}
	return u.String(), nil
}

// PathFromSignedURL resolves an object path from a previously stored signed
// URL. Documents created before direct paths were stored carry only the URL;
// the path is its query-stripped, bucket-relative remainder.
func PathFromSignedURL(rawURL, bucket string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid signed URL: %w", err)
	}

	path := strings.TrimPrefix(u.Path, "/")
	path = strings.TrimPrefix(path, bucket+"/")
	if path == "" {
		return "", fmt.Errorf("signed URL carries no object path: %s", rawURL)
	}

	return path, nil
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.StatusCode == 404
}

// Package storage keeps user images in an S3-compatible bucket and hands
// back their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrNotConfigured = errors.New("storage is not initialized")
	ErrUploadFailed  = errors.New("failed to upload file")
	ErrDeleteFailed  = errors.New("failed to delete file")
)

// Blob is the object store the account services depend on.
type Blob interface {
	// Upload stores r under destDir/destFile and returns its URL.
	Upload(ctx context.Context, r io.Reader, size int64, contentType, destDir, destFile string) (string, error)
	// Remove deletes the object behind rawURL. URLs that do not point into
	// this store are ignored and yield "".
	Remove(ctx context.Context, rawURL string) (string, error)
}

// objectAPI is the part of *minio.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinIOStore struct {
	client objectAPI
	bucket string
	root   string // "<scheme>://<endpoint>/<bucket>/"
}

// NewMinIOStore connects to endpoint and makes sure the bucket exists.
func NewMinIOStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	return newStore(client, client.EndpointURL(), bucket), nil
}

func newStore(client objectAPI, endpoint *url.URL, bucket string) *MinIOStore {
	root := strings.TrimSuffix(endpoint.String(), "/") + "/" + bucket + "/"
	return &MinIOStore{client: client, bucket: bucket, root: root}
}

func (s *MinIOStore) Upload(ctx context.Context, r io.Reader, size int64, contentType, destDir, destFile string) (string, error) {
	key := objectKey(destDir, destFile)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return s.root + escapeKey(key), nil
}

func (s *MinIOStore) Remove(ctx context.Context, rawURL string) (string, error) {
	key, ok := s.objectKeyFromURL(rawURL)
	if !ok {
		return "", nil
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return s.root + escapeKey(key), nil
}

// objectKeyFromURL maps a URL produced by Upload back to its object key.
func (s *MinIOStore) objectKeyFromURL(rawURL string) (string, bool) {
	decoded, err := url.PathUnescape(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(decoded, s.root) {
		return "", false
	}

	key := strings.TrimPrefix(decoded, s.root)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", false
	}
	return key, true
}

func objectKey(destDir, destFile string) string {
	if destDir == "" {
		return destFile
	}
	return path.Join(destDir, destFile)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Disabled is used when no storage endpoint is configured. Every call fails
// with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, int64, string, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Remove(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

var (
	_ Blob = (*MinIOStore)(nil)
	_ Blob = Disabled{}
)

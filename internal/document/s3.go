package document

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds connection settings for an S3-compatible object store.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Fetcher reads s3://bucket/key URIs from an S3-compatible store.
type S3Fetcher struct {
	client *minio.Client
}

// NewS3Fetcher creates a fetcher connected to cfg.Endpoint. No request is
// made until the first Fetch.
func NewS3Fetcher(cfg S3Config) (*S3Fetcher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 fetcher: endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 fetcher: %w", err)
	}
	return &S3Fetcher{client: client}, nil
}

// Fetch downloads the object named by uri.
func (f *S3Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return nil, err
	}
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// splitS3URI extracts bucket and object key from s3://bucket/path/to/key.
func splitS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 URI must name a bucket and key: %q", uri)
	}
	return u.Host, key, nil
}

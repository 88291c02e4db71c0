package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint string
	Access   string
	Secret   string
	Bucket   string
	UseSSL   bool
	Region   string
	MaxBytes int64
}

type MinioGateway struct {
	minio    *minio.Client
	bucket   string
	maxBytes int64
}

func NewMinioGateway(cfg MinioConfig) (*MinioGateway, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Access, cfg.Secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	return &MinioGateway{
		minio:    mc,
		bucket:   cfg.Bucket,
		maxBytes: cfg.MaxBytes,
	}, nil
}

func (g *MinioGateway) Bucket() string {
	return g.bucket
}

func (g *MinioGateway) Ready(ctx context.Context) error {
	exists, err := g.minio.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", g.bucket)
	}
	return nil
}

func (g *MinioGateway) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := g.minio.GetObject(ctx, g.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; Stat issues the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		return nil, classifyMinioError(key, err)
	}
	if g.maxBytes > 0 && info.Size > g.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, key, info.Size)
	}

	return readLimited(obj, key, g.maxBytes)
}

func classifyMinioError(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("get object %s: %w", key, err)
}

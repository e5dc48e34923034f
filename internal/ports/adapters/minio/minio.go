package minio

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/forPelevin/redub/internal/types"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Prefix is prepended to every object key, e.g. "renders/".
	Prefix string
}

// Enabled reports whether enough is configured to publish anything.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type Adapter struct {
	client *minio.Client
	bucket string
	prefix string
}

func New(cfg Config) (*Adapter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Adapter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Upload stores localPath under key and returns the s3-style location.
func (a *Adapter) Upload(ctx context.Context, localPath, key string) (string, error) {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return "", &types.BackendError{Op: "minio bucket check", Err: err}
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", &types.BackendError{Op: "minio make bucket " + a.bucket, Err: err}
		}
	}

	objectKey := ObjectKey(a.prefix, key)
	info, err := a.client.FPutObject(ctx, a.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return "", &types.BackendError{Op: "minio upload " + objectKey, Err: err}
	}
	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}

func ObjectKey(prefix, key string) string {
	key = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func contentType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

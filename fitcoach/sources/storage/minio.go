package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/types"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient stores message attachments as objects and hands out presigned
// download links used as attachment references.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.Config) (*MinIOClient, error) {
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(context.Background(), cfg.MinIOBucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: cfg.MinIOBucket}, nil
}

func (m *MinIOClient) UploadAttachment(ctx context.Context, name, contentType string, r io.Reader, size int64) (types.Attachment, error) {
	key := filepath.Join("uploads", fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(name)))

	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return types.Attachment{}, err
	}

	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, 7*24*time.Hour, nil)
	if err != nil {
		return types.Attachment{}, err
	}

	return types.Attachment{
		Name:        name,
		URL:         url.String(),
		ContentType: contentType,
	}, nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"Gin_postgres_redis_inventory/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIO struct {
	bucket string
	client *minio.Client
}

func NewMinIO(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIO, error) {
	if bucket == "" {
		return nil, errors.New("minio bucket is empty")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinIO{bucket: bucket, client: client}, nil
}

func (m *MinIO) Save(ctx context.Context, src io.Reader, filename string, category models.AttachmentCategory) (string, error) {
	name, err := objectName(filename, category)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	_, err = m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(filename, data),
	})
	if err != nil {
		return "", err
	}
	return "minio://" + m.bucket + "/" + name, nil
}

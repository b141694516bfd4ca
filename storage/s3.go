package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"Gin_postgres_redis_inventory/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3BasePath = "attachments/"

type S3 struct {
	bucket string
	client *s3.Client
}

func NewS3(ctx context.Context, region, bucket string) (*S3, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket is empty")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &S3{bucket: bucket, client: s3.NewFromConfig(cfg)}, nil
}

func (s *S3) Save(ctx context.Context, src io.Reader, filename string, category models.AttachmentCategory) (string, error) {
	name, err := objectName(filename, category)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	key := s3BasePath + name
	mimeType := contentType(filename, data)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &mimeType,
	})
	if err != nil {
		return "", err
	}
	return "s3://" + s.bucket + "/" + key, nil
}

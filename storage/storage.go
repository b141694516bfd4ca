// Package storage keeps uploaded attachments (signed terms, removal notes)
// and hands back the reference recorded in the history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"Gin_postgres_redis_inventory/config"
	"Gin_postgres_redis_inventory/models"

	"github.com/google/uuid"
)

type Store interface {
	// Save stores src under category and returns the stored reference.
	Save(ctx context.Context, src io.Reader, filename string, category models.AttachmentCategory) (string, error)
}

// New picks the backend configured in storage.backend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocal(cfg.Storage.Dir), nil
	case "s3":
		return NewS3(ctx, cfg.Storage.S3.Region, cfg.Storage.S3.Bucket)
	case "minio":
		m := cfg.Storage.MinIO
		return NewMinIO(m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// objectName is <category>/<stem>_<uuid><ext>; the uuid keeps two uploads
// of "termo.pdf" apart.
func objectName(filename string, category models.AttachmentCategory) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("invalid attachment category: %q", category)
	}
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", errors.New("filename is empty")
	}
	ext := filepath.Ext(base)
	stem := strings.ReplaceAll(strings.TrimSuffix(base, ext), " ", "_")
	return fmt.Sprintf("%s/%s_%s%s", category, stem, uuid.NewString(), ext), nil
}

func contentType(name string, head []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(head)
}

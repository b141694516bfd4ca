package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"Gin_postgres_redis_inventory/models"
)

// Local writes attachments below Dir.
type Local struct {
	Dir string
}

func NewLocal(dir string) *Local { return &Local{Dir: dir} }

func (l *Local) Save(ctx context.Context, src io.Reader, filename string, category models.AttachmentCategory) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := objectName(filename, category)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(l.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

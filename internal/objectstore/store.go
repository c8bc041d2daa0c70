package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lshigami/vivavoce/config"
	"github.com/spf13/afero"
)

var ErrObjectNotFound = errors.New("object not found")

// Store keeps uploaded study material.
type Store interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewObjectKey builds a unique key under the session prefix, keeping the
// original file extension.
func NewObjectKey(sessionID, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return fmt.Sprintf("%s/%s%s", sessionID, uuid.New().String(), ext)
}

func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "", "local":
		return NewLocalStore(afero.NewOsFs(), cfg.Storage.LocalDir), nil
	case "minio":
		return NewMinioStore(context.Background(), cfg.Storage.Minio)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

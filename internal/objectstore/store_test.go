package objectstore

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lshigami/vivavoce/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := NewLocalStore(fs, "/data")

	payload := []byte("%PDF-1.4 notes")
	require.NoError(t, store.Put(ctx, "session-1/a.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf"))

	exists, err := afero.Exists(fs, "/data/session-1/a.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := store.Get(ctx, "session-1/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "session-1/a.pdf"))
	require.NoError(t, store.Delete(ctx, "session-1/a.pdf"))
	_, err = store.Get(ctx, "session-1/a.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := NewLocalStore(afero.NewMemMapFs(), "/data")
	for _, key := range []string{"", "../etc/passwd", "a/../../b"} {
		err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "text/plain")
		assert.Error(t, err, key)
	}
}

func TestNewObjectKey(t *testing.T) {
	a := NewObjectKey("session-1", "Lecture Notes.PDF")
	b := NewObjectKey("session-1", "Lecture Notes.PDF")
	assert.True(t, strings.HasPrefix(a, "session-1/"))
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.NotEqual(t, a, b)
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewStore(&config.Config{Storage: config.Storage{Driver: "ftp"}})
	assert.Error(t, err)

	_, err = NewStore(&config.Config{Storage: config.Storage{Driver: "minio"}})
	assert.Error(t, err)
}

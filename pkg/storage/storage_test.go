package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "certificates/bg.png", want: "certificates/bg.png"},
		{in: "/storage/certificates/bg.png", want: "certificates/bg.png"},
		{in: "  sig.png ", want: "sig.png"},
		{in: "../etc/passwd", wantErr: true},
		{in: "a/../../b", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := CleanKey(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidKey, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestLocalStore_OpenAndURL(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "certificates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "certificates", "bg.png"), []byte("png-bytes"), 0o644))

	s := NewLocalStore(root, "https://lms.example.com/storage/")

	rc, err := s.Open(context.Background(), "/storage/certificates/bg.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "https://lms.example.com/storage/certificates/bg.png", s.PublicURL("certificates/bg.png"))
}

func TestLocalStore_Missing(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "")
	_, err := s.Open(context.Background(), "nope.png")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestGCSStore_PublicURL(t *testing.T) {
	s := &GCSStore{bucket: "cert-assets"}
	assert.Equal(t, "https://storage.googleapis.com/cert-assets/sig.png", s.PublicURL("sig.png"))

	s.cdnDomain = "cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/sig.png", s.PublicURL("/sig.png"))
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeForKey("a/b.WEBP"))
	assert.Equal(t, "image/jpeg", ContentTypeForKey("a.jpeg?v=2"))
	assert.Equal(t, "", ContentTypeForKey("a.txt"))
}

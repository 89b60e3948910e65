package backend_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/model"
)

func localStorage(root, path string) *model.Storage {
	return &model.Storage{
		Name:    "local",
		Type:    model.StorageTypeLocal,
		BaseURL: "/storage/uploads",
		Path:    path,
		Options: model.StorageOptions{"documentRoot": root},
	}
}

func TestJoinURL(t *testing.T) {
	cases := []struct {
		base, path, filename, want string
	}{
		{"/storage/uploads", "", "a.txt", "/storage/uploads/a.txt"},
		{"/storage/uploads/", "", "a.txt", "/storage/uploads/a.txt"},
		{"http://localhost:13000/storage/uploads/another", "test/path", "a.txt", "http://localhost:13000/storage/uploads/another/test/path/a.txt"},
		{"/files", "/nested/", "a.txt", "/files/nested/a.txt"},
		{"", "", "a.txt", "/a.txt"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, backend.JoinURL(c.base, c.path, c.filename))
	}
}

func TestSplitName(t *testing.T) {
	title, ext := backend.SplitName("text.txt")
	assert.Equal(t, "text", title)
	assert.Equal(t, ".txt", ext)

	title, ext = backend.SplitName("archive.tar.gz")
	assert.Equal(t, "archive.tar", title)
	assert.Equal(t, ".gz", ext)

	title, ext = backend.SplitName("README")
	assert.Equal(t, "README", title)
	assert.Equal(t, "", ext)

	title, ext = backend.SplitName(".env")
	assert.Equal(t, ".env", title)
	assert.Equal(t, "", ext)

	title, _ = backend.SplitName(`C:\Users\me\photo.png`)
	assert.Equal(t, "photo", title)
}

// TestNewFilename 生成的文件名唯一且与原标题无关.
func TestNewFilename(t *testing.T) {
	seen := map[string]bool{}

	for range 1000 {
		name := backend.NewFilename("text.txt")
		require.True(t, strings.HasSuffix(name, ".txt"))
		require.NotContains(t, name, "text.")
		require.False(t, seen[name], "duplicate filename %s", name)
		seen[name] = true
	}

	assert.NotContains(t, backend.NewFilename("evil.p h/p"), " ")
}

func TestRegisteredTypes(t *testing.T) {
	assert.Equal(t, []string{"local", "s3"}, backend.Types())

	_, err := backend.Get("ftp")
	assert.Error(t, err)
}

// TestLocalWriteDelete 写入、读取、删除以及重复删除.
func TestLocalWriteDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	st := localStorage(root, "")

	b, err := backend.Get(model.StorageTypeLocal)
	require.NoError(t, err)

	res, err := b.Write(ctx, st, backend.File{Reader: strings.NewReader("Hello world!\n"), Name: "text.txt"})
	require.NoError(t, err)
	assert.Equal(t, int64(13), res.Size)
	assert.Equal(t, "", res.Path)

	content, err := os.ReadFile(filepath.Join(root, res.Filename))
	require.NoError(t, err)
	assert.Equal(t, "Hello world!\n", string(content))
	assert.Equal(t, "/storage/uploads/"+res.Filename, b.URLFor(st, res.Path, res.Filename))

	require.NoError(t, b.Delete(ctx, st, res.Path, res.Filename))
	_, err = os.Stat(filepath.Join(root, res.Filename))
	assert.True(t, os.IsNotExist(err))

	err = b.Delete(ctx, st, res.Path, res.Filename)

	var warn *backend.DeleteWarning
	require.True(t, errors.As(err, &warn))
	assert.True(t, warn.Missing)
}

// TestLocalWriteSubpath 引擎 path 下自动创建目录，不留下临时文件.
func TestLocalWriteSubpath(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	st := localStorage(root, "test/path")
	b := &backend.Local{}

	payload := bytes.Repeat([]byte("x"), 64*1024)

	res, err := b.Write(ctx, st, backend.File{Reader: bytes.NewReader(payload), Name: "big.bin"})
	require.NoError(t, err)
	assert.Equal(t, "test/path", res.Path)
	assert.Equal(t, int64(len(payload)), res.Size)

	entries, err := os.ReadDir(filepath.Join(root, "test", "path"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.Filename, entries[0].Name())
}

// TestLocalWriteError 根目录不可写时返回 WriteError.
func TestLocalWriteError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	st := localStorage(blocker, "sub")

	_, err := (&backend.Local{}).Write(context.Background(), st, backend.File{Reader: strings.NewReader("x"), Name: "a.txt"})

	var werr *backend.WriteError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "mkdir", werr.Op)
}

// TestLocalRejectsEscape path 不能跳出根目录.
func TestLocalRejectsEscape(t *testing.T) {
	st := localStorage(t.TempDir(), "../outside")

	_, err := (&backend.Local{}).Write(context.Background(), st, backend.File{Reader: strings.NewReader("x"), Name: "a.txt"})

	var werr *backend.WriteError
	assert.True(t, errors.As(err, &werr))

	_, err = backend.LocalFilePath(localStorage(t.TempDir(), ""), "", "../x")
	assert.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

// TestLocalWriteCleansTemp 复制失败时删除临时文件.
func TestLocalWriteCleansTemp(t *testing.T) {
	root := t.TempDir()
	st := localStorage(root, "")

	_, err := (&backend.Local{}).Write(context.Background(), st, backend.File{Reader: failingReader{}, Name: "a.txt"})
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestS3URLFor(t *testing.T) {
	b, err := backend.Get(model.StorageTypeS3)
	require.NoError(t, err)

	st := &model.Storage{
		Name:    "s3",
		Type:    model.StorageTypeS3,
		Path:    "docs",
		Options: model.StorageOptions{"endpoint": "https://minio.example.com", "bucket": "files"},
	}
	assert.Equal(t, "https://minio.example.com/files/docs/a.txt", b.URLFor(st, "docs", "a.txt"))

	st.BaseURL = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/docs/a.txt", b.URLFor(st, "docs", "a.txt"))
}

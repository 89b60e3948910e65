package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/tracing"
)

// TempPrefix 写入过程中临时文件的前缀.
const TempPrefix = ".upload-"

// LocalOptions 本地后端参数.
type LocalOptions struct {
	// DocumentRoot 根目录，相对路径基于进程工作目录；为空时使用全局配置
	DocumentRoot string `json:"documentRoot"`
}

// Local 本地文件系统后端.
type Local struct{}

func init() {
	Register(model.StorageTypeLocal, &Local{})
}

// LocalRoot 返回存储引擎的绝对根目录.
func LocalRoot(st *model.Storage) (string, error) {
	var opts LocalOptions
	if err := decodeOptions(st.Options, &opts); err != nil {
		return "", err
	}

	root := opts.DocumentRoot
	if root == "" {
		root = configs.GetConfig().Storage.Local.DocumentRoot
	}

	if root == "" {
		return "", fmt.Errorf("storage %q has no document root", st.Name)
	}

	return filepath.Abs(root)
}

// CleanSubpath 规范化引擎的 path，拒绝跳出根目录.
func CleanSubpath(p string) (string, error) {
	p = strings.Trim(filepath.ToSlash(p), "/")
	if p == "" {
		return "", nil
	}

	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q escapes document root", p)
	}

	return filepath.ToSlash(clean), nil
}

// LocalFilePath 返回文件在磁盘上的绝对路径，保证位于根目录之内.
func LocalFilePath(st *model.Storage, path, filename string) (string, error) {
	root, err := LocalRoot(st)
	if err != nil {
		return "", err
	}

	sub, err := CleanSubpath(path)
	if err != nil {
		return "", err
	}

	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	return filepath.Join(root, filepath.FromSlash(sub), filename), nil
}

// Write 先写入同目录下的临时文件，fsync 后重命名，读者不会看到写了一半的文件.
func (l *Local) Write(ctx context.Context, st *model.Storage, f File) (res *Result, err error) {
	_, span := tracing.StartSpan(ctx, "backend.local.write")
	defer span.End()

	sub, err := CleanSubpath(st.Path)
	if err != nil {
		return nil, &WriteError{Op: "resolve", Storage: st.Name, Err: err}
	}

	filename := NewFilename(f.Name)

	target, err := LocalFilePath(st, sub, filename)
	if err != nil {
		return nil, &WriteError{Op: "resolve", Storage: st.Name, Err: err}
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &WriteError{Op: "mkdir", Storage: st.Name, Err: err}
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return nil, &WriteError{Op: "create", Storage: st.Name, Err: err}
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, f.Reader)
	if err != nil {
		return nil, &WriteError{Op: "copy", Storage: st.Name, Err: err}
	}

	if err = tmp.Sync(); err != nil {
		return nil, &WriteError{Op: "sync", Storage: st.Name, Err: err}
	}

	if err = tmp.Close(); err != nil {
		return nil, &WriteError{Op: "close", Storage: st.Name, Err: err}
	}

	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return nil, &WriteError{Op: "chmod", Storage: st.Name, Err: err}
	}

	if err = os.Rename(tmp.Name(), target); err != nil {
		return nil, &WriteError{Op: "rename", Storage: st.Name, Err: err}
	}

	span.SetAttributes(attribute.String("storage", st.Name), attribute.Int64("size", n))

	return &Result{Filename: filename, Path: sub, Size: n}, nil
}

// Delete 删除文件；不存在时返回 Missing 的 DeleteWarning.
func (l *Local) Delete(ctx context.Context, st *model.Storage, path, filename string) error {
	_, span := tracing.StartSpan(ctx, "backend.local.delete")
	defer span.End()

	key := JoinURL("", path, filename)

	target, err := LocalFilePath(st, path, filename)
	if err != nil {
		return &DeleteWarning{Storage: st.Name, Key: key, Err: err}
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &DeleteWarning{Storage: st.Name, Key: key, Missing: true}
		}

		return &DeleteWarning{Storage: st.Name, Key: key, Err: err}
	}

	return nil
}

// URLFor 返回 baseUrl/path/filename.
func (l *Local) URLFor(st *model.Storage, path, filename string) string {
	return JoinURL(st.BaseURL, path, filename)
}

// Check 确认根目录存在且可写.
func (l *Local) Check(_ context.Context, st *model.Storage) error {
	root, err := LocalRoot(st)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(root, TempPrefix+"check-*")
	if err != nil {
		return err
	}

	_ = f.Close()

	return os.Remove(f.Name())
}

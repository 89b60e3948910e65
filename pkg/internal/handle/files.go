package handle

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/service"
)

// urlPrefix 取 baseUrl 的路径部分，去掉末尾的 /.
func urlPrefix(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	return strings.TrimRight(u.Path, "/")
}

// matchLocalStorage 找到 baseUrl 路径是请求路径前缀的本地存储，最长前缀优先.
func matchLocalStorage(storages []model.Storage, reqPath string) (*model.Storage, string) {
	var (
		best *model.Storage
		rest string
		size = -1
	)

	for i := range storages {
		st := &storages[i]
		if st.Type != model.StorageTypeLocal {
			continue
		}

		prefix := urlPrefix(st.BaseURL)
		if prefix == "" || len(prefix) <= size {
			continue
		}

		if !strings.HasPrefix(reqPath, prefix+"/") {
			continue
		}

		best, rest, size = st, strings.TrimPrefix(reqPath, prefix), len(prefix)
	}

	return best, rest
}

// fileETag 由相对路径、大小和修改时间计算，不读取文件内容.
// 存储的文件名唯一且写入后不再修改.
func fileETag(rel string, info fs.FileInfo) string {
	sum := xxhash.Sum64String(fmt.Sprintf("%s|%d|%d", rel, info.Size(), info.ModTime().UnixNano()))

	return fmt.Sprintf("\"%x\"", sum)
}

// ServeLocalFile 在本地存储的 baseUrl 下公开提供文件.
func ServeLocalFile(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

		return
	}

	ctx := c.Request.Context()

	storages, err := service.NewStorageRegistry(ctx).List(ctx)
	if err != nil {
		fail(c, err)

		return
	}

	st, rest := matchLocalStorage(storages, c.Request.URL.Path)
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

		return
	}

	root, err := backend.LocalRoot(st)
	if err != nil {
		fail(c, err)

		return
	}

	// 以 / 开头再 Clean，.. 不会越过根目录
	rel := path.Clean("/" + rest)
	if strings.Contains(rel, "/"+backend.TempPrefix) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

		return
	}

	name := filepath.Join(root, filepath.FromSlash(rel))

	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

			return
		}

		fail(c, err)

		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

		return
	}

	c.Header("ETag", fileETag(rel, info))
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

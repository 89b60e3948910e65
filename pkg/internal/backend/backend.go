// Package backend 定义存储后端接口（写入、删除、生成 URL）以及按存储类型注册的实现.
//
// Example:
//
//	b, err := backend.Get(st.Type)
//	if err != nil {
//		return err
//	}
//	res, err := b.Write(ctx, st, backend.File{Reader: r, Name: "text.txt"})
//	url := b.URLFor(st, res.Path, res.Filename)
package backend

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/yeisme/attachvault/pkg/internal/model"
)

// File 待写入的上传内容.
type File struct {
	Reader io.Reader
	// Name 客户端提供的原始文件名，只用来取扩展名
	Name     string
	Size     int64
	Mimetype string
}

// Result 写入结果.
type Result struct {
	Filename string
	Path     string
	Size     int64
}

// Backend 存储介质的具体实现.
type Backend interface {
	// Write 写入文件并返回生成的文件名、子路径和实际字节数，失败返回 *WriteError.
	Write(ctx context.Context, st *model.Storage, f File) (*Result, error)
	// Delete 删除文件，文件不存在或无法删除时返回 *DeleteWarning.
	Delete(ctx context.Context, st *model.Storage, path, filename string) error
	// URLFor 计算对外访问地址.
	URLFor(st *model.Storage, path, filename string) string
}

// Checker 可选能力：检查存储介质是否可用，供健康检查使用.
type Checker interface {
	Check(ctx context.Context, st *model.Storage) error
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register 注册某个存储类型的后端实现.
func Register(storageType string, b Backend) {
	mu.Lock()
	defer mu.Unlock()

	backends[storageType] = b
}

// Get 按存储类型查找后端.
func Get(storageType string) (Backend, error) {
	mu.RLock()
	defer mu.RUnlock()

	b, ok := backends[storageType]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %q", storageType)
	}

	return b, nil
}

// Types 返回已注册的存储类型（有序）.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(backends))
	for t := range backends {
		types = append(types, t)
	}

	sort.Strings(types)

	return types
}

// JoinURL 拼接 baseUrl、path 与文件名，path 为空时不产生多余的分隔符.
func JoinURL(baseURL, path, filename string) string {
	var b strings.Builder

	b.WriteString(strings.TrimRight(baseURL, "/"))

	if p := strings.Trim(path, "/"); p != "" {
		b.WriteByte('/')
		b.WriteString(p)
	}

	b.WriteByte('/')
	b.WriteString(filename)

	return b.String()
}

// decodeOptions 把存储引擎的 options 解析到具体后端的强类型结构.
func decodeOptions(opts model.StorageOptions, out any) error {
	if len(opts) == 0 {
		return nil
	}

	raw, err := sonic.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode storage options: %w", err)
	}

	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode storage options: %w", err)
	}

	return nil
}

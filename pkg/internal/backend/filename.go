package backend

import (
	"crypto/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID 生成单调递增的 ULID（小写）.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

// NewFilename 生成存储用文件名：ULID 加上原始扩展名，与原始标题无关.
func NewFilename(original string) string {
	return NewID() + safeExt(filepath.Ext(original))
}

const maxExtLen = 16

func safeExt(ext string) string {
	ext = strings.ToLower(ext)
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}

	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}

	return ext
}

// SplitName 把原始文件名拆成标题和扩展名，点开头且无其他扩展名的文件整体作为标题.
func SplitName(original string) (title, extname string) {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		return "", ""
	}

	extname = filepath.Ext(base)
	title = strings.TrimSuffix(base, extname)

	if title == "" {
		return base, ""
	}

	return title, extname
}

package backend

import "fmt"

// WriteError 写入存储介质失败，上传中止且不会产生记录.
type WriteError struct {
	Op      string
	Storage string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s on storage %q: %v", e.Op, e.Storage, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// DeleteWarning 删除物理文件时的非致命问题，只记录日志.
type DeleteWarning struct {
	Storage string
	Key     string
	// Missing 文件本来就不存在
	Missing bool
	Err     error
}

func (w *DeleteWarning) Error() string {
	if w.Missing {
		return fmt.Sprintf("file %s on storage %q already absent", w.Key, w.Storage)
	}

	return fmt.Sprintf("delete %s on storage %q: %v", w.Key, w.Storage, w.Err)
}

func (w *DeleteWarning) Unwrap() error { return w.Err }

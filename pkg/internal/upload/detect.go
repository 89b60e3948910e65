package upload

import (
	"bytes"
	"io"
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// sniffLen 类型嗅探读取的字节数
	sniffLen = 3072

	genericMimetype = "application/octet-stream"
)

// DetectMimetype 确定上传文件的 mimetype 并返回可继续完整读取的 reader.
// 优先使用客户端声明的类型；缺失或为 application/octet-stream 时按扩展名推断，
// 仍无法确定时嗅探内容.
func DetectMimetype(r io.Reader, filename, declared string) (string, io.Reader, error) {
	if mt := normalize(declared); mt != "" && mt != genericMimetype {
		return mt, r, nil
	}

	if byExt := normalize(mime.TypeByExtension(filepath.Ext(filename))); byExt != "" {
		return byExt, r, nil
	}

	head := make([]byte, sniffLen)

	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}

	head = head[:n]
	rest := io.MultiReader(bytes.NewReader(head), r)

	return normalize(mimetype.Detect(head).String()), rest, nil
}

package upload_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/upload"
)

// TestValidateNoRules 未配置规则时总是通过.
func TestValidateNoRules(t *testing.T) {
	assert.NoError(t, upload.Validate(upload.FileInfo{Size: 1 << 30, Mimetype: "image/png"}, model.StorageRules{}))
}

// TestValidateSize 大小等于上限通过，超过上限返回 413.
func TestValidateSize(t *testing.T) {
	rules := model.StorageRules{Size: 1024}

	assert.NoError(t, upload.Validate(upload.FileInfo{Size: 1024, Mimetype: "text/plain"}, rules))

	err := upload.Validate(upload.FileInfo{Size: 1025, Mimetype: "text/plain"}, rules)

	var verr *upload.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, verr.Code)
}

// TestValidateMimetype 类型规则按 glob 匹配.
func TestValidateMimetype(t *testing.T) {
	rules := model.StorageRules{Mimetype: []string{"text/*"}}

	assert.NoError(t, upload.Validate(upload.FileInfo{Size: 13, Mimetype: "text/plain"}, rules))
	assert.NoError(t, upload.Validate(upload.FileInfo{Size: 13, Mimetype: "text/plain; charset=utf-8"}, rules))

	err := upload.Validate(upload.FileInfo{Size: 13, Mimetype: "image/png"}, rules)

	var verr *upload.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, http.StatusUnsupportedMediaType, verr.Code)
}

func TestMatchMimetype(t *testing.T) {
	cases := []struct {
		mimetype string
		patterns []string
		want     bool
	}{
		{"image/png", []string{"image/png"}, true},
		{"IMAGE/PNG", []string{"image/png"}, true},
		{"image/jpeg", []string{"text/*", "image/*"}, true},
		{"application/pdf", []string{"*"}, true},
		{"application/pdf", []string{"*/*"}, true},
		{"application/vnd.ms-excel", []string{"application/vnd.*"}, true},
		{"text/plain", []string{"image/*"}, false},
		{"", []string{"*"}, false},
		{"text/plain", []string{"[invalid"}, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, upload.MatchMimetype(c.mimetype, c.patterns), "%s vs %v", c.mimetype, c.patterns)
	}
}

// TestDetectMimetype 声明类型优先，其次扩展名，最后嗅探内容，读取的数据不丢失.
func TestDetectMimetype(t *testing.T) {
	mt, r, err := upload.DetectMimetype(strings.NewReader("Hello world!\n"), "text.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mt)

	mt, _, err = upload.DetectMimetype(strings.NewReader("x"), "photo.png", "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)

	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)

	mt, r, err = upload.DetectMimetype(strings.NewReader(png), "blob", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, string(all))
}

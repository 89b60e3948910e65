package api_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/api"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/testutil"
)

type server struct {
	env    *testutil.Env
	engine *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	env := testutil.New(t)

	_, err := service.NewStorageRegistry(env.Ctx).EnsureDefaultStorage(env.Ctx)
	require.NoError(t, err)

	return &server{env: env, engine: api.NewEngine(env.Config, env.Manager, nil)}
}

func (s *server) do(t *testing.T, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *server) doJSON(t *testing.T, method, target string, v any) *httptest.ResponseRecorder {
	t.Helper()

	b, err := sonic.Marshal(v)
	require.NoError(t, err)

	return s.do(t, method, target, b, "application/json")
}

func (s *server) upload(t *testing.T, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	require.NoError(t, mw.Close())

	return s.do(t, http.MethodPost, "/api/v1/attachments", buf.Bytes(), mw.FormDataContentType())
}

// createStorage 通过接口创建本地存储，返回文档根目录.
func (s *server) createStorage(t *testing.T, body map[string]any) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), body["name"].(string))
	body["type"] = model.StorageTypeLocal
	body["options"] = map[string]any{"documentRoot": root}

	w := s.doJSON(t, http.MethodPost, "/api/v1/storages", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return root
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out struct {
		Data T `json:"data"`
	}

	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out.Data
}

func TestUploadAndServe(t *testing.T) {
	s := newServer(t)

	w := s.upload(t, "text.txt", "Hello world!\n", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	att := decode[model.Attachment](t, w)
	assert.Equal(t, "text", att.Title)
	assert.Equal(t, ".txt", att.Extname)
	assert.Equal(t, int64(13), att.Size)
	assert.Equal(t, "text/plain", att.Mimetype)
	assert.Equal(t, "/storage/uploads/"+att.Filename, att.URL)

	got := s.do(t, http.MethodGet, att.URL, nil, "")
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "Hello world!\n", got.Body.String())

	etag := got.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, att.URL, nil)
	req.Header.Set("If-None-Match", etag)

	cached := httptest.NewRecorder()
	s.engine.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)

	detail := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/attachments/%d", att.ID), nil, "")
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Equal(t, att.URL, decode[model.Attachment](t, detail).URL)
}

func TestServeRejectsTraversal(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/storage/uploads/../../etc/passwd", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/nowhere/file.txt", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadRejectedByRules(t *testing.T) {
	s := newServer(t)

	root := s.createStorage(t, map[string]any{
		"name":  "images",
		"rules": map[string]any{"mimetype": []string{"image/*"}, "size": 5},
	})

	w := s.upload(t, "text.txt", "Hello world!\n", map[string]string{"storage": "images"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "mimetype")

	png := "\x89PNG\r\n\x1a\n0000000000"
	w = s.upload(t, "big.png", png, map[string]string{"storage": "images"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, "a.txt", "x", map[string]string{"storage": "missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := os.Stat(root)
	assert.True(t, err != nil || isEmptyDir(t, root))
}

func isEmptyDir(t *testing.T, dir string) bool {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	return len(entries) == 0
}

func TestUploadWithAttachmentField(t *testing.T) {
	s := newServer(t)

	s.createStorage(t, map[string]any{"name": "local1", "baseUrl": "/storage/local1"})

	w := s.doJSON(t, http.MethodPost, "/api/v1/fields", map[string]any{
		"collection": "customers",
		"name":       "avatar",
		"storage":    "local1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.upload(t, "a.txt", "abc", map[string]string{"attachmentField": "customers.avatar"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	att := decode[model.Attachment](t, w)
	assert.True(t, strings.HasPrefix(att.URL, "/storage/local1/"), att.URL)

	got := s.do(t, http.MethodGet, att.URL, nil, "")
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "abc", got.Body.String())
}

func TestDestroyParanoid(t *testing.T) {
	s := newServer(t)

	root := s.createStorage(t, map[string]any{"name": "keep", "baseUrl": "/storage/keep", "paranoid": true})

	w := s.upload(t, "a.txt", "abc", map[string]string{"storage": "keep"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	att := decode[model.Attachment](t, w)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/attachments/%d", att.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"deleted":1`)

	assert.FileExists(t, filepath.Join(root, att.Filename))

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/attachments/%d", att.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/attachments/trash", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), att.Filename)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/attachments/%d/restore", att.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/attachments/%d", att.ID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDestroyMissingFile(t *testing.T) {
	s := newServer(t)

	w := s.upload(t, "a.txt", "abc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	att := decode[model.Attachment](t, w)
	require.NoError(t, os.Remove(filepath.Join(s.env.Root, att.Filename)))

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/attachments/%d", att.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/attachments/%d", att.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 重复删除仍然成功
	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/attachments/%d", att.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":0`)
}

func TestBulkDestroy(t *testing.T) {
	s := newServer(t)

	ids := make([]uint, 0, 3)

	for i := range 3 {
		w := s.upload(t, fmt.Sprintf("f%d.txt", i), "abc", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		ids = append(ids, decode[model.Attachment](t, w).ID)
	}

	w := s.doJSON(t, http.MethodDelete, "/api/v1/attachments", map[string]any{
		"filter": map[string]any{"id": ids[:2]},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"deleted":2`)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/attachments?filterByTk=%d", ids[2]), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/v1/attachments", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/attachments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestStorageRoutes(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/storage-types", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), model.StorageTypeLocal)
	assert.Contains(t, w.Body.String(), model.StorageTypeS3)

	w = s.doJSON(t, http.MethodPost, "/api/v1/storages", map[string]any{"name": "bad", "type": "ftp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(t, http.MethodPost, "/api/v1/storages", map[string]any{"name": "up", "type": "local", "path": "../x"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.doJSON(t, http.MethodPut, "/api/v1/storages/local", map[string]any{"title": "Uploads"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Uploads", decode[model.Storage](t, w).Title)

	w = s.do(t, http.MethodGet, "/api/v1/storages/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/storages", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Storage](t, w), 1)
}

func TestHealthAndScheduler(t *testing.T) {
	s := newServer(t)

	for _, p := range []string{"db", "kv", "mq", "storages"} {
		w := s.do(t, http.MethodGet, "/api/v1/health/"+p, nil, "")
		assert.Equal(t, http.StatusOK, w.Code, p+": "+w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/api/v1/scheduler/jobs", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

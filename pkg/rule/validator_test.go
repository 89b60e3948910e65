package rule_test

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/rule"
)

type engineRequest struct {
	Name string `json:"name" rule:"omitempty,slug,max=16"`
	Type string `json:"type" rule:"required,oneof=local s3"`
	Size int64  `json:"size" rule:"min=0"`
}

func TestEngineSharedWithGin(t *testing.T) {
	engine := rule.Engine()
	require.NotNil(t, engine)

	// gin 的 binding 使用同一个实例，rule 标签对请求绑定同样生效
	assert.Same(t, engine, binding.Validator.Engine())
	assert.NoError(t, binding.Validator.ValidateStruct(engineRequest{Type: "local"}))
	assert.Error(t, binding.Validator.ValidateStruct(engineRequest{Type: "ftp"}))
}

func TestValidateStruct(t *testing.T) {
	cases := []struct {
		name  string
		req   engineRequest
		field string
	}{
		{name: "valid", req: engineRequest{Name: "local1", Type: "local"}},
		{name: "generated name", req: engineRequest{Type: "s3"}},
		{name: "missing type", req: engineRequest{Name: "x"}, field: "type"},
		{name: "bad slug", req: engineRequest{Name: "../etc", Type: "local"}, field: "name"},
		{name: "too long", req: engineRequest{Name: "abcdefghijklmnopq", Type: "local"}, field: "name"},
		{name: "negative size", req: engineRequest{Type: "local", Size: -1}, field: "size"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := rule.ValidateStruct(tc.req)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, rule.Errors(err), tc.field)
		})
	}
}

func TestSlug(t *testing.T) {
	for _, s := range []string{"local", "local1", "s_01J9ZK", "customers.avatar", "a-b"} {
		assert.NoError(t, rule.ValidateVar(s, "slug"), s)
	}

	for _, s := range []string{"", "../etc", "a/b", "has space", "_lead"} {
		assert.Error(t, rule.ValidateVar(s, "slug"), s)
	}
}

func TestRegisterValidationAndAlias(t *testing.T) {
	require.NoError(t, rule.RegisterValidation("mime_glob", func(fl validator.FieldLevel) bool {
		major, _, ok := splitMime(fl.Field().String())
		return ok && major != ""
	}))

	assert.NoError(t, rule.ValidateVar("image/*", "mime_glob"))
	assert.Error(t, rule.ValidateVar("image", "mime_glob"))

	rule.RegisterAlias("engine_name", "required,slug,max=8")
	assert.NoError(t, rule.ValidateVar("local", "engine_name"))
	assert.Error(t, rule.ValidateVar("", "engine_name"))
	assert.Error(t, rule.ValidateVar("local_storage", "engine_name"))
}

func splitMime(s string) (string, string, bool) {
	for i := range len(s) {
		if s[i] == '/' {
			return s[:i], s[i+1:], true
		}
	}

	return s, "", false
}

func TestErrors(t *testing.T) {
	errs := rule.Errors(rule.ValidateStruct(engineRequest{Size: -1}))
	assert.Equal(t, "failed on required", errs["type"])
	assert.Equal(t, "failed on min=0", errs["size"])

	assert.Nil(t, rule.Errors(nil))
	assert.Nil(t, rule.Errors(assert.AnError))
}

package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/testutil"
	"github.com/yeisme/attachvault/pkg/internal/types"
)

func TestEnsureDefaultStorage(t *testing.T) {
	env := testutil.New(t)
	reg := service.NewStorageRegistry(env.Ctx)

	_, ok, err := reg.Default(env.Ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := reg.EnsureDefaultStorage(env.Ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "local", st.Name)
	assert.Equal(t, model.StorageTypeLocal, st.Type)
	assert.Equal(t, "/storage/uploads", st.BaseURL)
	assert.Equal(t, env.Root, st.Options["documentRoot"])
	assert.True(t, st.Default)
	assert.True(t, st.Rules.IsZero())

	// 已有存储时不再创建
	again, err := reg.EnsureDefaultStorage(env.Ctx)
	require.NoError(t, err)
	assert.Nil(t, again)

	def, ok, err := reg.Default(env.Ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.ID, def.ID)
}

func TestCreateStorageSingleDefault(t *testing.T) {
	env := setup(t)
	reg := service.NewStorageRegistry(env.Ctx)

	// 先读一次让缓存里有旧的默认引擎
	old, ok, err := reg.Default(env.Ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "local", old.Name)

	st, _ := createLocal(t, env, types.CreateStorageRequest{Name: "local2", Default: true})

	def, ok, err := reg.Default(env.Ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.ID, def.ID)

	local, err := reg.Get(env.Ctx, "local")
	require.NoError(t, err)
	assert.False(t, local.Default)

	all, err := reg.List(env.Ctx)
	require.NoError(t, err)

	defaults := 0

	for _, s := range all {
		if s.Default {
			defaults++
		}
	}

	assert.Equal(t, 1, defaults)
}

func TestCreateStorageValidation(t *testing.T) {
	env := setup(t)
	reg := service.NewStorageRegistry(env.Ctx)

	_, err := reg.Create(env.Ctx, types.CreateStorageRequest{Name: "ftp1", Type: "ftp"})
	assert.True(t, service.IsConfigurationError(err))

	_, err = reg.Create(env.Ctx, types.CreateStorageRequest{Name: "local", Type: model.StorageTypeLocal})
	assert.True(t, service.IsConfigurationError(err))

	st, err := reg.Create(env.Ctx, types.CreateStorageRequest{Type: model.StorageTypeLocal})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(st.Name, "s_"))
}

func TestUpdateStorage(t *testing.T) {
	env := setup(t)
	reg := service.NewStorageRegistry(env.Ctx)

	st, err := reg.Get(env.Ctx, "local")
	require.NoError(t, err)
	assert.False(t, st.Paranoid)

	paranoid := true
	rules := model.StorageRules{Size: 1024, Mimetype: []string{"text/*"}}

	updated, err := reg.Update(env.Ctx, "local", types.UpdateStorageRequest{Paranoid: &paranoid, Rules: &rules})
	require.NoError(t, err)
	assert.True(t, updated.Paranoid)
	assert.Equal(t, rules, updated.Rules)

	// 缓存已失效
	st, err = reg.Get(env.Ctx, "local")
	require.NoError(t, err)
	assert.True(t, st.Paranoid)
	assert.Equal(t, int64(1024), st.Rules.Size)

	_, err = reg.Update(env.Ctx, "missing", types.UpdateStorageRequest{Paranoid: &paranoid})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteStorage(t *testing.T) {
	env := setup(t)
	reg := service.NewStorageRegistry(env.Ctx)

	createLocal(t, env, types.CreateStorageRequest{Name: "scratch"})

	svc := service.NewAttachmentService(env.Ctx)
	_, err := svc.Create(env.Ctx, service.Upload{
		Reader: strings.NewReader("Hello world!\n"), Filename: "text.txt", Size: 13, Storage: "scratch",
	})
	require.NoError(t, err)

	err = reg.Delete(env.Ctx, "scratch")
	assert.True(t, service.IsConfigurationError(err))

	createLocal(t, env, types.CreateStorageRequest{Name: "empty"})
	require.NoError(t, reg.Delete(env.Ctx, "empty"))

	_, err = reg.Get(env.Ctx, "empty")
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, reg.Delete(env.Ctx, "empty"), service.ErrNotFound)
}

// TestStorageSingleDefaultIndex 绕过 registry 直接写入第二个默认引擎会被数据库拒绝.
func TestStorageSingleDefaultIndex(t *testing.T) {
	env := setup(t)
	reg := service.NewStorageRegistry(env.Ctx)
	db := env.Manager.GetDBClient()

	err := db.Create(&model.Storage{Name: "rogue", Type: model.StorageTypeLocal, Default: true}).Error
	require.Error(t, err)

	other, _ := createLocal(t, env, types.CreateStorageRequest{Name: "other"})

	yes := true
	_, err = reg.Update(env.Ctx, "other", types.UpdateStorageRequest{Default: &yes})
	require.NoError(t, err)

	var defaults []model.Storage
	require.NoError(t, db.Where(map[string]any{"default": true}).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	assert.Equal(t, other.ID, defaults[0].ID)
}

func TestStoragePathEscapesRoot(t *testing.T) {
	env := setup(t)
	reg := service.NewStorageRegistry(env.Ctx)

	for _, p := range []string{"../x", "/a/../../x", ".."} {
		_, err := reg.Create(env.Ctx, types.CreateStorageRequest{Name: "bad", Type: model.StorageTypeLocal, Path: p})
		assert.True(t, service.IsConfigurationError(err), p)
	}

	_, err := reg.Get(env.Ctx, "bad")
	assert.ErrorIs(t, err, service.ErrNotFound)

	escape := "a/../../x"
	_, err = reg.Update(env.Ctx, "local", types.UpdateStorageRequest{Path: &escape})
	assert.True(t, service.IsConfigurationError(err))

	nested := "a/../b"
	st, err := reg.Update(env.Ctx, "local", types.UpdateStorageRequest{Path: &nested})
	require.NoError(t, err)
	assert.Equal(t, "a/../b", st.Path)
}

package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/testutil"
	"github.com/yeisme/attachvault/pkg/internal/types"
)

// setup 准备环境并创建默认本地存储.
func setup(t *testing.T) *testutil.Env {
	t.Helper()

	env := testutil.New(t)

	st, err := service.NewStorageRegistry(env.Ctx).EnsureDefaultStorage(env.Ctx)
	require.NoError(t, err)
	require.NotNil(t, st)

	return env
}

// createLocal 创建一个文档根目录独立的本地存储.
func createLocal(t *testing.T, env *testutil.Env, req types.CreateStorageRequest) (*model.Storage, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), req.Name)
	req.Type = model.StorageTypeLocal
	req.Options = model.StorageOptions{"documentRoot": root}

	if req.BaseURL == "" {
		req.BaseURL = "/storage/" + req.Name
	}

	st, err := service.NewStorageRegistry(env.Ctx).Create(env.Ctx, req)
	require.NoError(t, err)

	return st, root
}

// countFiles 统计目录下的普通文件数，目录不存在时为 0.
func countFiles(t *testing.T, root string) int {
	t.Helper()

	n := 0

	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}

			return err
		}

		if !d.IsDir() {
			n++
		}

		return nil
	})
	require.NoError(t, err)

	return n
}

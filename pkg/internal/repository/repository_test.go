package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/repository"
	"github.com/yeisme/attachvault/pkg/internal/testutil"
)

func seedFields(t *testing.T, env *testutil.Env) *repository.Repository[model.AttachmentField] {
	t.Helper()

	repo := repository.New[model.AttachmentField](env.Manager.DB.DB)

	for _, name := range []string{"avatar", "cover", "resume"} {
		require.NoError(t, repo.Create(env.Ctx, &model.AttachmentField{Collection: "customers", Name: name}))
	}

	return repo
}

func TestFindFilterAndSort(t *testing.T) {
	env := testutil.New(t)
	repo := seedFields(t, env)

	rows, err := repo.Find(env.Ctx, repository.Query{Sort: []string{"-name"}})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "resume", rows[0].Name)

	rows, err = repo.Find(env.Ctx, repository.Query{Filter: map[string]any{"name": []string{"avatar", "resume"}}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.Find(env.Ctx, repository.Query{Sort: []string{"id"}, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "resume", rows[0].Name)

	_, err = repo.Find(env.Ctx, repository.Query{Sort: []string{"name; DROP TABLE x"}})
	require.Error(t, err)

	_, err = repo.Find(env.Ctx, repository.Query{Filter: map[string]any{"1=1 OR name": "x"}})
	require.Error(t, err)
}

func TestFindOneAndCount(t *testing.T) {
	env := testutil.New(t)
	repo := seedFields(t, env)

	f, err := repo.FindOne(env.Ctx, repository.Query{Filter: map[string]any{"name": "cover"}})
	require.NoError(t, err)

	byTk, err := repo.FindOne(env.Ctx, repository.Query{FilterByTk: f.ID})
	require.NoError(t, err)
	assert.Equal(t, "cover", byTk.Name)

	_, err = repo.FindOne(env.Ctx, repository.Query{FilterByTk: uint(999)})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := repo.Count(env.Ctx, repository.Query{Filter: map[string]any{"collection": "customers"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestUpdateAndDestroy(t *testing.T) {
	env := testutil.New(t)
	repo := seedFields(t, env)

	n, err := repo.Update(env.Ctx, repository.Query{Filter: map[string]any{"name": "avatar"}}, map[string]any{"storage": "local1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	f, err := repo.FindOne(env.Ctx, repository.Query{Filter: map[string]any{"name": "avatar"}})
	require.NoError(t, err)
	assert.Equal(t, "local1", f.Storage)

	// 没有条件时拒绝删除全部
	_, err = repo.Destroy(env.Ctx, repository.Query{})
	require.Error(t, err)

	n, err = repo.Destroy(env.Ctx, repository.Query{FilterByTk: []uint{f.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.Count(env.Ctx, repository.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), left)
}

func TestTrashed(t *testing.T) {
	env := testutil.New(t)
	repo := repository.New[model.Attachment](env.Manager.DB.DB)

	att := &model.Attachment{Title: "a", Filename: "a.txt", StorageID: 1}
	require.NoError(t, repo.Create(env.Ctx, att))

	_, err := repo.Destroy(env.Ctx, repository.Query{FilterByTk: att.ID})
	require.NoError(t, err)

	_, err = repo.FindOne(env.Ctx, repository.Query{FilterByTk: att.ID})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	trashed, err := repo.Find(env.Ctx, repository.Query{Trashed: true})
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, map[string]any{}, trashed[0].Meta)

	n, err := repo.ForceDestroy(env.Ctx, repository.Query{FilterByTk: att.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Count(env.Ctx, repository.Query{Trashed: true})
	require.NoError(t, err)
	assert.Zero(t, n)
}

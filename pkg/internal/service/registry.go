package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/attachvault/pkg/cache"
	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/repository"
	"github.com/yeisme/attachvault/pkg/internal/types"
	nlog "github.com/yeisme/attachvault/pkg/log"
)

const registryCacheNamespace = "storage"

// StorageRegistry 管理命名的存储引擎配置，读多写少，读取走 KV 缓存.
type StorageRegistry struct {
	storages    *repository.Repository[model.Storage]
	attachments *repository.Repository[model.Attachment]
	cache       *cache.Cache
	ttl         time.Duration
	local       configs.LocalStorageConfig
	seed        bool
}

// NewStorageRegistry 从 context 获取依赖实例.
func NewStorageRegistry(c context.Context) *StorageRegistry {
	return newStorageRegistry(depsFrom(c))
}

func newStorageRegistry(d deps) *StorageRegistry {
	ttl := d.cfg.Storage.CacheTTL
	if ttl <= 0 {
		ttl = configs.DefaultRegistryCacheTTL
	}

	return &StorageRegistry{
		storages:    repository.New[model.Storage](d.db.DB),
		attachments: repository.New[model.Attachment](d.db.DB),
		cache:       cache.NewCache(d.kv.KVStore, registryCacheNamespace),
		ttl:         ttl,
		local:       d.cfg.Storage.Local,
		seed:        d.cfg.Storage.SeedDefault,
	}
}

// Get 按名称查找.
func (r *StorageRegistry) Get(ctx context.Context, name string) (*model.Storage, error) {
	return r.lookup(ctx, "name:"+name, repository.Query{Filter: map[string]any{"name": name}})
}

// GetByID 按主键查找.
func (r *StorageRegistry) GetByID(ctx context.Context, id uint) (*model.Storage, error) {
	return r.lookup(ctx, "id:"+strconv.FormatUint(uint64(id), 10), repository.Query{FilterByTk: id})
}

// Default 返回标记为 default 的存储引擎，没有时 ok 为 false.
func (r *StorageRegistry) Default(ctx context.Context) (st *model.Storage, ok bool, err error) {
	st, err = r.lookup(ctx, "default", repository.Query{Filter: map[string]any{"default": true}})
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return st, true, nil
}

func (r *StorageRegistry) lookup(ctx context.Context, key string, q repository.Query) (*model.Storage, error) {
	st, err := cache.GetOrSet(ctx, r.cache, key, func() (model.Storage, error) {
		row, err := r.storages.FindOne(ctx, q)
		if err != nil {
			return model.Storage{}, err
		}

		return *row, nil
	}, r.ttl)
	if err != nil {
		return nil, err
	}

	return &st, nil
}

// List 按创建顺序返回全部存储引擎.
func (r *StorageRegistry) List(ctx context.Context) ([]model.Storage, error) {
	return cache.GetOrSet(ctx, r.cache, "list", func() ([]model.Storage, error) {
		return r.storages.Find(ctx, repository.Query{Sort: []string{"id"}})
	}, r.ttl)
}

// Create 创建存储引擎，default 为 true 时在同一事务里清除其他引擎的 default.
func (r *StorageRegistry) Create(ctx context.Context, req types.CreateStorageRequest) (*model.Storage, error) {
	if req.Name == "" {
		req.Name = "s_" + backend.NewID()
	}

	if _, err := backend.Get(req.Type); err != nil {
		return nil, configErrorf("%v", err)
	}

	if _, err := backend.CleanSubpath(req.Path); err != nil {
		return nil, configErrorf("%v", err)
	}

	st := &model.Storage{
		Name:     req.Name,
		Title:    req.Title,
		Type:     req.Type,
		BaseURL:  req.BaseURL,
		Path:     req.Path,
		Rules:    req.Rules,
		Options:  req.Options,
		Default:  req.Default,
		Paranoid: req.Paranoid,
	}

	if _, err := r.storages.FindOne(ctx, repository.Query{Filter: map[string]any{"name": st.Name}}); err == nil {
		return nil, configErrorf("storage %q already exists", st.Name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	err := r.storages.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := r.storages.WithTx(tx)

		if st.Default {
			if err := clearDefault(ctx, tx, repo); err != nil {
				return err
			}
		}

		return repo.Create(ctx, st)
	})
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}

	r.invalidate(ctx)

	return st, nil
}

// clearDefault 先锁住当前的默认引擎，再按最新提交的数据清除 default.
// 没有默认引擎可锁时由 storages 上的部分唯一索引兜底（MySQL 依赖 default 索引上的间隙锁）.
func clearDefault(ctx context.Context, tx *gorm.DB, repo *repository.Repository[model.Storage]) error {
	var ids []uint

	err := tx.WithContext(ctx).Model(&model.Storage{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where(map[string]any{"default": true}).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("lock default storage: %w", err)
	}

	_, err = repo.Update(ctx, repository.Query{Filter: map[string]any{"default": true}}, map[string]any{"default": false})

	return err
}

// Update 修改存储引擎，只更新请求中出现的字段.
func (r *StorageRegistry) Update(ctx context.Context, name string, req types.UpdateStorageRequest) (*model.Storage, error) {
	st, err := r.storages.FindOne(ctx, repository.Query{Filter: map[string]any{"name": name}})
	if err != nil {
		return nil, err
	}

	values := map[string]any{}

	if req.Title != nil {
		values["title"] = *req.Title
	}

	if req.BaseURL != nil {
		values["base_url"] = *req.BaseURL
	}

	if req.Path != nil {
		if _, err := backend.CleanSubpath(*req.Path); err != nil {
			return nil, configErrorf("%v", err)
		}

		values["path"] = *req.Path
	}

	if req.Paranoid != nil {
		values["paranoid"] = *req.Paranoid
	}

	if req.Default != nil {
		values["default"] = *req.Default
	}

	err = r.storages.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := r.storages.WithTx(tx)

		if req.Default != nil && *req.Default {
			if err := clearDefault(ctx, tx, repo); err != nil {
				return err
			}
		}

		// serializer 字段需要走模型保存
		if req.Rules != nil || req.Options != nil {
			if req.Rules != nil {
				st.Rules = *req.Rules
			}

			if req.Options != nil {
				st.Options = *req.Options
			}

			if err := tx.WithContext(ctx).Model(st).Select("rules", "options").Updates(st).Error; err != nil {
				return err
			}
		}

		if len(values) == 0 {
			return nil
		}

		_, err := repo.Update(ctx, repository.Query{FilterByTk: st.ID}, values)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update storage %q: %w", name, err)
	}

	r.invalidate(ctx)

	return r.storages.FindOne(ctx, repository.Query{FilterByTk: st.ID})
}

// Delete 删除存储引擎，仍被附件（包括回收站中的）引用时拒绝.
func (r *StorageRegistry) Delete(ctx context.Context, name string) error {
	st, err := r.storages.FindOne(ctx, repository.Query{Filter: map[string]any{"name": name}})
	if err != nil {
		return err
	}

	ref := map[string]any{"storage_id": st.ID}

	live, err := r.attachments.Count(ctx, repository.Query{Filter: ref})
	if err != nil {
		return err
	}

	trashed, err := r.attachments.Count(ctx, repository.Query{Filter: ref, Trashed: true})
	if err != nil {
		return err
	}

	if live+trashed > 0 {
		return configErrorf("storage %q is referenced by %d attachments", name, live+trashed)
	}

	if _, err := r.storages.Destroy(ctx, repository.Query{FilterByTk: st.ID}); err != nil {
		return fmt.Errorf("delete storage %q: %w", name, err)
	}

	r.invalidate(ctx)

	return nil
}

// EnsureDefaultStorage 没有任何存储引擎时按配置创建默认的本地存储.
func (r *StorageRegistry) EnsureDefaultStorage(ctx context.Context) (*model.Storage, error) {
	if !r.seed {
		return nil, nil
	}

	n, err := r.storages.Count(ctx, repository.Query{})
	if err != nil {
		return nil, err
	}

	if n > 0 {
		return nil, nil
	}

	st, err := r.Create(ctx, types.CreateStorageRequest{
		Name:    r.local.Name,
		Title:   "Local storage",
		Type:    model.StorageTypeLocal,
		BaseURL: r.local.BaseURL,
		Options: model.StorageOptions{"documentRoot": r.local.DocumentRoot},
		Default: true,
	})
	if err != nil {
		return nil, err
	}

	nlog.Logger().Info().Str("name", st.Name).Str("documentRoot", r.local.DocumentRoot).Msg("default local storage created")

	return st, nil
}

func (r *StorageRegistry) invalidate(ctx context.Context) {
	if err := r.cache.Clear(ctx); err != nil {
		l := nlog.Logger()
		l.Warn().Err(err).Msg("failed to clear storage registry cache")
	}
}

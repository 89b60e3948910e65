package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yeisme/attachvault/pkg/internal/model"
	"github.com/yeisme/attachvault/pkg/internal/repository"
	"github.com/yeisme/attachvault/pkg/internal/types"
)

// FieldService 管理引用附件的字段声明（例如 customers.avatar 由哪个存储引擎管理）.
type FieldService struct {
	fields   *repository.Repository[model.AttachmentField]
	registry *StorageRegistry
}

// NewFieldService 从 context 获取依赖实例.
func NewFieldService(c context.Context) *FieldService {
	return newFieldService(depsFrom(c))
}

func newFieldService(d deps) *FieldService {
	return &FieldService{
		fields:   repository.New[model.AttachmentField](d.db.DB),
		registry: newStorageRegistry(d),
	}
}

// SplitFieldKey 把 "collection.name" 拆成两部分.
func SplitFieldKey(key string) (collection, name string, ok bool) {
	collection, name, ok = strings.Cut(key, ".")
	if !ok || collection == "" || name == "" {
		return "", "", false
	}

	return collection, name, true
}

// Create 声明字段，指定的存储引擎必须存在.
func (s *FieldService) Create(ctx context.Context, req types.CreateFieldRequest) (*model.AttachmentField, error) {
	if req.Storage != "" {
		if _, err := s.registry.Get(ctx, req.Storage); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, configErrorf("storage %q not found", req.Storage)
			}

			return nil, err
		}
	}

	f := &model.AttachmentField{Collection: req.Collection, Name: req.Name, Storage: req.Storage}

	existing, err := s.fields.FindOne(ctx, repository.Query{Filter: map[string]any{"collection": f.Collection, "name": f.Name}})

	switch {
	case err == nil:
		if _, err := s.fields.Update(ctx, repository.Query{FilterByTk: existing.ID}, map[string]any{"storage": f.Storage}); err != nil {
			return nil, fmt.Errorf("update field %s: %w", f.Key(), err)
		}

		existing.Storage = f.Storage

		return existing, nil
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}

	if err := s.fields.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create field %s: %w", f.Key(), err)
	}

	return f, nil
}

// Get 按 collection.name 查找.
func (s *FieldService) Get(ctx context.Context, key string) (*model.AttachmentField, error) {
	collection, name, ok := SplitFieldKey(key)
	if !ok {
		return nil, ErrNotFound
	}

	return s.fields.FindOne(ctx, repository.Query{Filter: map[string]any{"collection": collection, "name": name}})
}

// List 返回全部字段声明.
func (s *FieldService) List(ctx context.Context) ([]model.AttachmentField, error) {
	return s.fields.Find(ctx, repository.Query{Sort: []string{"collection", "name"}})
}

// Delete 删除字段声明.
func (s *FieldService) Delete(ctx context.Context, collection, name string) error {
	n, err := s.fields.Destroy(ctx, repository.Query{Filter: map[string]any{"collection": collection, "name": name}})
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// Package repository 在 GORM 之上提供通用的 find/create/update/destroy，
// 支持按主键（FilterByTk）或按字段（Filter，值为切片时使用 IN）筛选.
package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound 没有匹配的记录.
var ErrNotFound = errors.New("record not found")

var columnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Query 查询条件.
type Query struct {
	// FilterByTk 主键，可以是单个值或切片
	FilterByTk any
	// Filter 字段等值条件，值为切片时生成 IN
	Filter map[string]any
	// Sort 排序字段，"-" 前缀表示降序，例如 "-id"
	Sort     []string
	Page     int
	PageSize int
	// Trashed 只查询软删除的记录
	Trashed bool
}

// Repository 某个模型的通用仓储.
type Repository[T any] struct {
	db *gorm.DB
}

// New 创建仓储.
func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// WithTx 返回绑定到事务的仓储.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx}
}

// DB 返回底层连接.
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

func (r *Repository[T]) scope(ctx context.Context, q Query) (*gorm.DB, error) {
	var zero T

	tx := r.db.WithContext(ctx).Model(&zero)

	if q.Trashed {
		tx = tx.Unscoped().Where("deleted_at IS NOT NULL")
	}

	if q.FilterByTk != nil {
		tx = tx.Where("id IN ?", asSlice(q.FilterByTk))
	}

	for field, value := range q.Filter {
		if !columnPattern.MatchString(field) {
			return nil, fmt.Errorf("invalid filter field %q", field)
		}

		tx = tx.Where(map[string]any{field: value})
	}

	return tx, nil
}

func asSlice(v any) any {
	switch v.(type) {
	case []uint, []int, []int64, []string, []any:
		return v
	default:
		return []any{v}
	}
}

func order(tx *gorm.DB, sort []string) (*gorm.DB, error) {
	for _, s := range sort {
		desc := strings.HasPrefix(s, "-")
		field := strings.TrimPrefix(s, "-")

		if !columnPattern.MatchString(field) {
			return nil, fmt.Errorf("invalid sort field %q", field)
		}

		if desc {
			field += " DESC"
		}

		tx = tx.Order(field)
	}

	return tx, nil
}

// Find 返回匹配的记录.
func (r *Repository[T]) Find(ctx context.Context, q Query) ([]T, error) {
	tx, err := r.scope(ctx, q)
	if err != nil {
		return nil, err
	}

	if tx, err = order(tx, q.Sort); err != nil {
		return nil, err
	}

	if q.PageSize > 0 {
		page := max(q.Page, 1)
		tx = tx.Offset((page - 1) * q.PageSize).Limit(q.PageSize)
	}

	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// FindOne 返回第一条匹配记录，没有时返回 ErrNotFound.
func (r *Repository[T]) FindOne(ctx context.Context, q Query) (*T, error) {
	q.Page, q.PageSize = 1, 1

	if len(q.Sort) == 0 {
		q.Sort = []string{"id"}
	}

	rows, err := r.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	return &rows[0], nil
}

// Count 统计匹配的记录数.
func (r *Repository[T]) Count(ctx context.Context, q Query) (int64, error) {
	tx, err := r.scope(ctx, q)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, err
	}

	return n, nil
}

// Create 插入一条记录.
func (r *Repository[T]) Create(ctx context.Context, v *T) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// Update 按条件更新字段，返回影响行数.
func (r *Repository[T]) Update(ctx context.Context, q Query, values map[string]any) (int64, error) {
	tx, err := r.scope(ctx, q)
	if err != nil {
		return 0, err
	}

	res := tx.Updates(values)

	return res.RowsAffected, res.Error
}

// Destroy 按条件删除（模型带 DeletedAt 时为软删除），没有任何条件时拒绝执行.
func (r *Repository[T]) Destroy(ctx context.Context, q Query) (int64, error) {
	return r.destroy(ctx, q, false)
}

// ForceDestroy 物理删除记录，忽略软删除.
func (r *Repository[T]) ForceDestroy(ctx context.Context, q Query) (int64, error) {
	return r.destroy(ctx, q, true)
}

func (r *Repository[T]) destroy(ctx context.Context, q Query, force bool) (int64, error) {
	if q.FilterByTk == nil && len(q.Filter) == 0 {
		return 0, errors.New("destroy requires filterByTk or filter")
	}

	tx, err := r.scope(ctx, q)
	if err != nil {
		return 0, err
	}

	if force {
		tx = tx.Unscoped()
	}

	var zero T

	res := tx.Delete(&zero)

	return res.RowsAffected, res.Error
}

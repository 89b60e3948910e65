// Package cache 提供基于键值存储的泛型缓存，值使用 sonic 编码为 JSON.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, "storage")
//	st, err := cache.GetOrSet(ctx, c, "name:local", func() (model.Storage, error) {
//		return loadFromDB("local")
//	}, 5*time.Minute)
//
// 所有键自动加上命名空间前缀，Clear 只清理本命名空间.
// 缓存未命中以 error 返回，GetOrSet 把未命中和解码失败都当作需要回源.
//
// 每个命名空间有一个代号，Clear 时更换. GetOrSet 在回源前后比较代号，
// 回源期间发生过 Clear 的结果不写入缓存，避免旧数据覆盖失效.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/yeisme/attachvault/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore   kv.KVStore
	namespace string
}

// NewCache 创建一个新的缓存实例，namespace 为空时不加前缀.
func NewCache(kvStore kv.KVStore, namespace string) *Cache {
	return &Cache{
		kvStore:   kvStore,
		namespace: namespace,
	}
}

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}

	return c.namespace + ":" + k
}

// genKey 代号键，不匹配 Clear 使用的前缀模式.
func (c *Cache) genKey() string {
	return "@gen:" + c.namespace
}

// generation 当前代号，读取失败视为空代号.
func (c *Cache) generation(ctx context.Context) string {
	b, err := c.kvStore.Get(ctx, c.genKey())
	if err != nil {
		return ""
	}

	return string(b)
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := c.kvStore.Delete(ctx, c.key(k)); err != nil {
			return err
		}
	}

	return nil
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 命中直接返回，否则调用 getter 回源并写入缓存；写缓存失败不影响返回值.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	gen := c.generation(ctx)

	value, err := getter()
	if err != nil {
		return value, err
	}

	if c.generation(ctx) != gen {
		return value, nil
	}

	if err := Set(ctx, c, key, value, ttl); err != nil {
		return value, nil
	}

	// Set 与 Clear 交错时撤销本次写入
	if c.generation(ctx) != gen {
		_ = c.kvStore.Delete(ctx, c.key(key))
	}

	return value, nil
}

// Clear 更换代号后清空本命名空间下的所有键.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.kvStore.Set(ctx, c.genKey(), []byte(uuid.NewString()), 0); err != nil {
		return err
	}

	keys, err := c.kvStore.Keys(ctx, c.key("*"))
	if err != nil {
		return err
	}

	for _, key := range keys {
		if key == c.genKey() {
			continue
		}

		if err := c.kvStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

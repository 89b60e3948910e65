// Package storage 聚合元数据库、KV 缓存和消息队列客户端.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	db := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/model"
	dbc "github.com/yeisme/attachvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/attachvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/attachvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/attachvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB *dbc.Client
	KV *kvc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化，重复调用返回同一实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = New(ctx, configs.GetConfig())
		if mgrErr == nil {
			nlog.Logger().Info().Msg("storage manager initialized")
		}
	})

	return mgr, mgrErr
}

// New 按给定配置创建 Manager，启用 auto_migrate 时迁移表结构.
func New(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	db, err := dbc.Open(ctx, cfg.DB, cfg.Server.Debug)
	if err != nil {
		return nil, err
	}

	m := &Manager{DB: db}

	if cfg.DB.AutoMigrate {
		if err := m.Migrate(ctx); err != nil {
			_ = m.Close()

			return nil, err
		}
	}

	store, err := kvc.NewKVStore(ctx, cfg.KV)
	if err != nil {
		_ = m.Close()

		return nil, fmt.Errorf("init kv: %w", err)
	}

	m.KV = &kvc.Client{KVStore: store}

	mq, err := mqc.New(ctx, cfg.MQ)
	if err != nil {
		_ = m.Close()

		return nil, err
	}

	m.MQ = mq

	return m, nil
}

// singleDefaultIndex 保证 storages 最多一行 default 为真.
const singleDefaultIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_storages_single_default ON storages ("default") WHERE "default"`

// Migrate 迁移所有模型. MySQL 不支持部分索引，不创建 singleDefaultIndex.
func (m *Manager) Migrate(ctx context.Context) error {
	db := m.DB.WithContext(ctx)

	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	switch db.Dialector.Name() {
	case "sqlite", "postgres":
		if err := db.Exec(singleDefaultIndex).Error; err != nil {
			return fmt.Errorf("create single default index: %w", err)
		}
	}

	return nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 释放全部连接.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}

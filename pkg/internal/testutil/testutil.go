// Package testutil 为服务层和 HTTP 层测试准备独立的配置、内存数据库和文档根目录.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/configs"
	ctxPkg "github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/storage"
)

var seq atomic.Int64

// Env 一次测试使用的运行环境.
type Env struct {
	Ctx     context.Context
	Manager *storage.Manager
	Config  *configs.AppConfig
	// Root 默认本地存储的文档根目录
	Root string
}

// New 加载默认配置并指向临时目录和独立的 SQLite 内存库，返回带 Manager 的 context.
// 调用方不能使用 t.Parallel，配置是全局的.
func New(t testing.TB) *Env {
	t.Helper()

	root := filepath.Join(t.TempDir(), "uploads")
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	t.Setenv("ATTACHVAULT_DB_TYPE", string(configs.SQLite))
	t.Setenv("ATTACHVAULT_DB_DATABASE", fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1)))
	t.Setenv("ATTACHVAULT_DB_MAX_OPEN_CONNS", "1")
	t.Setenv("ATTACHVAULT_STORAGE_LOCAL_DOCUMENT_ROOT", root)
	t.Setenv("ATTACHVAULT_METRICS_DB_METRICS", "false")
	t.Setenv("ATTACHVAULT_MQ_COMMON_ENABLE_METRICS", "false")
	t.Setenv("ATTACHVAULT_KV_TYPE", "memory")
	t.Setenv("ATTACHVAULT_MQ_TYPE", string(configs.MQTypeGoChannel))

	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := configs.GetConfig()

	mgr, err := storage.New(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = mgr.Close() })

	return &Env{
		Ctx:     ctxPkg.WithStorageManager(context.Background(), mgr),
		Manager: mgr,
		Config:  cfg,
		Root:    root,
	}
}

package configs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/configs"
)

// TestInitConfigDefaults 没有配置文件时使用默认值.
func TestInitConfigDefaults(t *testing.T) {
	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := configs.GetConfig()
	assert.Equal(t, configs.DefaultPort, cfg.Server.Port)
	assert.Equal(t, "/storage/uploads", cfg.Storage.Local.BaseURL)
	assert.Equal(t, "storage/uploads", cfg.Storage.Local.DocumentRoot)
	assert.Equal(t, "local", cfg.Storage.Local.Name)
	assert.True(t, cfg.Storage.SeedDefault)
	assert.Equal(t, configs.SQLite, cfg.DB.Type)
	assert.Equal(t, "memory", cfg.KV.Type)
	assert.Equal(t, configs.MQTypeGoChannel, cfg.MQ.Type)
	assert.Equal(t, "*/30 * * * *", cfg.Upload.TempSweepCron)
	assert.Equal(t, time.Hour, cfg.Upload.TempMaxAge)
}

// TestInitConfigLegacyEnv 兼容旧的环境变量.
func TestInitConfigLegacyEnv(t *testing.T) {
	t.Setenv("LOCAL_STORAGE_BASE_URL", "http://localhost:13000/storage/uploads")
	t.Setenv("LOCAL_STORAGE_DEST", "/tmp/uploads")
	t.Setenv("APP_PORT", "14000")

	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := configs.GetConfig()
	assert.Equal(t, "http://localhost:13000/storage/uploads", cfg.Storage.Local.BaseURL)
	assert.Equal(t, "/tmp/uploads", cfg.Storage.Local.DocumentRoot)
	assert.Equal(t, 14000, cfg.Server.Port)
}

// TestInitConfigPrefixedEnv 带前缀的环境变量优先于旧变量.
func TestInitConfigPrefixedEnv(t *testing.T) {
	t.Setenv("LOCAL_STORAGE_DEST", "/tmp/legacy")
	t.Setenv("ATTACHVAULT_STORAGE_LOCAL_DOCUMENT_ROOT", "/tmp/prefixed")
	t.Setenv("ATTACHVAULT_UPLOAD_DELETE_PARALLEL", "8")

	require.NoError(t, configs.InitConfig(t.TempDir()))

	cfg := configs.GetConfig()
	assert.Equal(t, "/tmp/prefixed", cfg.Storage.Local.DocumentRoot)
	assert.Equal(t, 8, cfg.Upload.DeleteParallel)
}

// TestInitConfigFile 从 yaml 文件读取配置.
func TestInitConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 18080
  reload_config: false
storage:
  local:
    base_url: /files
    document_root: data/files
kv:
  type: memory
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	require.NoError(t, configs.InitConfig(dir))

	cfg := configs.GetConfig()
	assert.Equal(t, 18080, cfg.Server.Port)
	assert.Equal(t, "/files", cfg.Storage.Local.BaseURL)
	assert.Equal(t, "data/files", cfg.Storage.Local.DocumentRoot)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), configs.GetViper().ConfigFileUsed())
}

// TestInitConfigInvalid 非法配置返回错误.
func TestInitConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	content := `
kv:
  type: groupcache
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	assert.Error(t, configs.InitConfig(dir))
}

func TestDBConfigDSN(t *testing.T) {
	c := configs.DBConfig{Type: configs.SQLite, Database: ":memory:"}
	assert.Equal(t, ":memory:", c.GetDSN())

	c = configs.DBConfig{Type: configs.SQLite, Database: "attachvault"}
	assert.Equal(t, "file:attachvault.db", c.GetDSN())

	c = configs.DBConfig{Type: configs.Pg}
	assert.Equal(t, configs.PostgreSQL, c.Normalize())
}

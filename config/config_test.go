package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "操作失败"
	testErr := errors.New("internal database error")

	// nil err 返回 fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release 模式返回 fallback，不暴露错误详情
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	// debug 模式返回 err.Error()
	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))

	// GlobalConfig 为 nil 时返回 err.Error()（视为开发环境）
	GlobalConfig = nil
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 720*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 5, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.False(t, cfg.Analytics.StrictPeriod)
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoadConfig_ExternalFileAndEnv(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := []byte("database:\n  driver: sqlite\n  sqlite_path: /tmp/test.db\nanalytics:\n  strict_period: true\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("EXPENSE_SERVER_PORT", ":9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.SQLitePath)
	assert.True(t, cfg.Analytics.StrictPeriod)
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "debug"},
			Database: DatabaseConfig{Driver: DriverMySQL, Host: "localhost", DBName: "expenses"},
			JWT:      JWTConfig{Secret: "secret"},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Database.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "不支持的数据库驱动")

	cfg = base()
	cfg.Database.Driver = DriverSQLite
	assert.ErrorContains(t, cfg.Validate(), "sqlite_path")

	cfg = base()
	cfg.Server.Mode = "release"
	cfg.JWT.Secret = defaultJWTSecret
	assert.ErrorContains(t, cfg.Validate(), "jwt.secret")

	cfg = base()
	cfg.AMQP.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "amqp.url")
}

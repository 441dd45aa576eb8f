package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/proofhost/pkg/types"
)

// TestNewProvider_Defaults 测试空配置得到完整默认值
func TestNewProvider_Defaults(t *testing.T) {
	p, err := NewProvider(nil)
	require.NoError(t, err)

	assert.Equal(t, "proofhost", p.GetAppName())
	assert.Equal(t, "prod", p.GetEnvironment())
	assert.Equal(t, "info", p.GetLog().Level)
	assert.Equal(t, 8080, p.GetAPI().HTTPPort)
	assert.Equal(t, 10*time.Minute, p.GetAPI().V1WaitTimeout)
	assert.False(t, p.GetBadger().Enabled)
	assert.NotNil(t, p.GetProver().ChainSpecs)
}

// TestLoadFile 测试从文件加载配置
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proofhost.json")
	content := `{
		"environment": "dev",
		"api": {"http_port": 9191, "v1_wait_timeout": "30s"},
		"log": {"level": "DEBUG"},
		"storage": {"persist_ledger": true, "data_root": "` + dir + `"},
		"prover": {"native": {"workers": 3}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	appConfig, err := LoadFile(path)
	require.NoError(t, err)

	p, err := NewProvider(appConfig)
	require.NoError(t, err)
	assert.Equal(t, "dev", p.GetEnvironment())
	assert.Equal(t, 9191, p.GetAPI().HTTPPort)
	assert.Equal(t, 30*time.Second, p.GetAPI().V1WaitTimeout)
	assert.Equal(t, "debug", p.GetLog().Level)
	assert.True(t, p.GetBadger().Enabled)
	assert.Equal(t, filepath.Join(dir, "badger"), p.GetBadger().Path)
	assert.Equal(t, 3, p.GetProver().Native.Workers)
}

// TestLoadFile_Missing 测试配置文件不存在时使用默认配置
func TestLoadFile_Missing(t *testing.T) {
	appConfig, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, &types.AppConfig{}, appConfig)
}

// TestNewProvider_InvalidSection 测试非法配置项导致构造失败
func TestNewProvider_InvalidSection(t *testing.T) {
	_, err := Parse([]byte(`{"api": {"http_port": "x"}}`))
	require.Error(t, err)

	appConfig, err := Parse([]byte(`{"api": {"http_port": 70000}}`))
	require.NoError(t, err)
	_, err = NewProvider(appConfig)
	require.Error(t, err)
}

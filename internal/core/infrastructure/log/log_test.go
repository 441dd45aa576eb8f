package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	logconfig "github.com/weisyn/proofhost/internal/config/log"
	"github.com/weisyn/proofhost/pkg/types"
)

func newBufferCores() (*bytes.Buffer, *bytes.Buffer, *moduleRoutingCore) {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "message", LevelKey: "level"})
	var sysBuf, bizBuf bytes.Buffer
	core := newModuleRoutingCore(
		zapcore.NewCore(enc, zapcore.AddSync(&sysBuf), zapcore.DebugLevel),
		zapcore.NewCore(enc, zapcore.AddSync(&bizBuf), zapcore.DebugLevel),
	)
	return &sysBuf, &bizBuf, core
}

// TestModuleRoutingCore_RoutesByModuleField 测试按单次调用的 module 字段路由
func TestModuleRoutingCore_RoutesByModuleField(t *testing.T) {
	sysBuf, bizBuf, core := newBufferCores()
	entry := zapcore.Entry{Message: "hello", Level: zapcore.InfoLevel}

	require.NoError(t, core.Write(entry, []zapcore.Field{zap.String("module", "ledger")}))
	assert.NotZero(t, sysBuf.Len())
	assert.Zero(t, bizBuf.Len())
	sysBuf.Reset()

	require.NoError(t, core.Write(entry, []zapcore.Field{zap.String("module", "orchestrator")}))
	assert.Zero(t, sysBuf.Len())
	assert.NotZero(t, bizBuf.Len())
	bizBuf.Reset()

	require.NoError(t, core.Write(entry, nil))
	assert.NotZero(t, sysBuf.Len(), "未知模块写入两边")
	assert.NotZero(t, bizBuf.Len())
}

// TestModuleRoutingCore_BoundModule 测试经 With 绑定的 module 字段同样参与路由
func TestModuleRoutingCore_BoundModule(t *testing.T) {
	sysBuf, bizBuf, core := newBufferCores()

	logger := Wrap(zap.New(core))
	NewModuleLogger(logger, "backend").Info("compute started")

	assert.Contains(t, sysBuf.String(), "compute started")
	assert.Zero(t, bizBuf.Len())

	NewModuleLogger(logger, "api").With("request_id", "r-1").Info("submit")
	assert.Contains(t, bizBuf.String(), "submit")
	assert.NotContains(t, sysBuf.String(), "submit")
}

// TestNew_MultiFile 测试多文件模式在日志目录下创建系统/业务日志
func TestNew_MultiFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proofhost.log")
	level := "debug"
	options := logconfig.New(&types.UserLogConfig{Level: &level, FilePath: &path}).GetOptions()
	options.EnableCaller = false

	logger, err := New(options)
	require.NoError(t, err)

	NewModuleLogger(logger, "ledger").Debug("record inserted")
	NewModuleLogger(logger, "orchestrator").Info("task registered")
	_ = logger.Sync()

	system, err := os.ReadFile(filepath.Join(dir, options.SystemLogFile))
	require.NoError(t, err)
	business, err := os.ReadFile(filepath.Join(dir, options.BusinessLogFile))
	require.NoError(t, err)

	assert.Contains(t, string(system), "record inserted")
	assert.NotContains(t, string(system), "task registered")
	assert.Contains(t, string(business), "task registered")
}

// TestLogOptions_ZapLevel 测试未知级别回退到 info
func TestLogOptions_ZapLevel(t *testing.T) {
	bogus := "verbose"
	options := logconfig.New(&types.UserLogConfig{Level: &bogus}).GetOptions()
	assert.Equal(t, zapcore.InfoLevel, options.ZapLevel())

	warn := "WARN"
	options = logconfig.New(&types.UserLogConfig{Level: &warn}).GetOptions()
	assert.Equal(t, zapcore.WarnLevel, options.ZapLevel())
}

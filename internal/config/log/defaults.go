package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel 默认日志级别
	defaultLogLevel = "info"

	// defaultToConsole 默认输出到控制台；配置了 file_path 后关闭
	defaultToConsole = true

	// defaultFilePath 默认不写文件
	defaultFilePath = ""

	// === 日志轮转配置（lumberjack） ===

	// defaultMaxSize 单个日志文件最大100MB
	defaultMaxSize = 100

	// defaultMaxBackups 最多保留10个备份
	defaultMaxBackups = 10

	// defaultMaxAge 备份保留30天
	defaultMaxAge = 30

	// defaultCompress 压缩历史日志
	defaultCompress = true

	// === 调试配置 ===

	defaultEnableCaller     = true
	defaultEnableStacktrace = true

	// === 多文件日志配置 ===

	// defaultEnableMultiFile 系统日志与业务日志分文件
	// 系统日志：ledger、backend、storage、event
	// 业务日志：api、orchestrator
	defaultEnableMultiFile = true

	defaultSystemLogFile   = "proofhost-system.log"
	defaultBusinessLogFile = "proofhost-business.log"
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}

// Package log 定义 proofhost 的日志接口
//
// 📋 **日志接口**
//
// 所有模块只依赖本接口，具体实现（zap + lumberjack）位于
// internal/core/infrastructure/log，由 fx 注入。
// 模块日志通过 With("module", name) 派生，便于按模块路由与过滤。
package log

import "go.uber.org/zap"

// Logger 日志记录器
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})

	Info(msg string)
	Infof(format string, args ...interface{})

	Warn(msg string)
	Warnf(format string, args ...interface{})

	Error(msg string)
	Errorf(format string, args ...interface{})

	// Fatal 记录后退出进程
	Fatal(msg string)
	Fatalf(format string, args ...interface{})

	// With 返回附带键值字段的子日志器
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 返回底层 zap 日志器（供 gin 中间件等直接使用）
	GetZapLogger() *zap.Logger
}

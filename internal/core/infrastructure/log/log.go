// Package log 提供基于zap的日志实现
// 支持控制台输出、lumberjack 文件轮转，以及按模块拆分的系统/业务日志
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	logconfig "github.com/weisyn/proofhost/internal/config/log"
	logInterface "github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
)

// Logger 实现了log.Logger接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

// New 根据配置创建日志记录器
func New(options *logconfig.LogOptions) (*Logger, error) {
	level := zap.NewAtomicLevelAt(options.ZapLevel())

	var cores []zapcore.Core
	if options.ToConsole {
		cores = append(cores, zapcore.NewCore(options.ConsoleEncoder(), zapcore.AddSync(os.Stdout), level))
	}

	if options.FilePath != "" {
		absPath, err := filepath.Abs(options.FilePath)
		if err != nil {
			return nil, fmt.Errorf("获取日志文件绝对路径失败: %w", err)
		}

		if options.EnableMultiFile {
			logDir := filepath.Dir(absPath)
			systemCore := zapcore.NewCore(options.FileEncoder(),
				fileWriter(filepath.Join(logDir, options.SystemLogFile), options), level)
			businessCore := zapcore.NewCore(options.FileEncoder(),
				fileWriter(filepath.Join(logDir, options.BusinessLogFile), options), level)
			cores = append(cores, newModuleRoutingCore(systemCore, businessCore))
		} else {
			cores = append(cores, zapcore.NewCore(options.FileEncoder(), fileWriter(absPath, options), level))
		}
	}

	var zapOptions []zap.Option
	if options.EnableCaller {
		// 跳过本文件的封装层
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if options.EnableStacktrace {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return Wrap(zap.New(zapcore.NewTee(cores...), zapOptions...)), nil
}

// Wrap 用现有的zap日志器构造Logger
func Wrap(zapLogger *zap.Logger) *Logger {
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}

// fileWriter 创建带轮转的文件写入器，目录创建失败时退回 stderr
func fileWriter(logPath string, options *logconfig.LogOptions) zapcore.WriteSyncer {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "创建日志目录失败 %s: %v\n", filepath.Dir(logPath), err)
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    options.MaxSize,
		MaxBackups: options.MaxBackups,
		MaxAge:     options.MaxAge,
		Compress:   options.Compress,
	})
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger { return l.zapLogger }

func (l *Logger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.sugar.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.sugar.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *Logger) Fatal(msg string)                          { l.sugar.Fatal(msg) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	sugar := l.sugar.With(args...)
	return &Logger{zapLogger: sugar.Desugar(), sugar: sugar}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

var _ logInterface.Logger = (*Logger)(nil)

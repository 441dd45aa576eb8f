package log

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// 模块分组：系统日志记录基础设施，业务日志记录请求与任务生命周期
var (
	systemModules = map[string]bool{
		"ledger":  true,
		"backend": true,
		"storage": true,
		"event":   true,
		"metrics": true,
		"system":  true,
	}
	businessModules = map[string]bool{
		"api":          true,
		"orchestrator": true,
		"request":      true,
		"app":          true,
	}
)

// moduleRoutingCore 按 module 字段把日志写入 system.log 或 business.log
//
// module 字段既可能在单次调用中出现，也可能经 With 绑定在子日志器上，
// 两种情况都需要识别，因此 With 时会记住已绑定的模块名。
type moduleRoutingCore struct {
	systemCore   zapcore.Core
	businessCore zapcore.Core
	module       string
}

func newModuleRoutingCore(system, business zapcore.Core) *moduleRoutingCore {
	return &moduleRoutingCore{systemCore: system, businessCore: business}
}

// Enabled 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Enabled(level zapcore.Level) bool {
	return c.systemCore.Enabled(level) || c.businessCore.Enabled(level)
}

// With 实现 zapcore.Core 接口
func (c *moduleRoutingCore) With(fields []zapcore.Field) zapcore.Core {
	module := c.module
	if m := moduleOf(fields); m != "" {
		module = m
	}
	return &moduleRoutingCore{
		systemCore:   c.systemCore.With(fields),
		businessCore: c.businessCore.With(fields),
		module:       module,
	}
}

// Check 实现 zapcore.Core 接口，实际路由在 Write 中进行
func (c *moduleRoutingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	module := c.module
	if m := moduleOf(fields); m != "" {
		module = m
	}

	switch {
	case systemModules[module]:
		return c.systemCore.Write(entry, fields)
	case businessModules[module]:
		return c.businessCore.Write(entry, fields)
	default:
		// 未知模块两边都写
		return errors.Join(
			c.systemCore.Write(entry, fields),
			c.businessCore.Write(entry, fields),
		)
	}
}

// Sync 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Sync() error {
	if err := errors.Join(c.systemCore.Sync(), c.businessCore.Sync()); err != nil {
		return fmt.Errorf("同步日志文件失败: %w", err)
	}
	return nil
}

func moduleOf(fields []zapcore.Field) string {
	for _, field := range fields {
		if field.Key != "module" {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.StringerType:
			if s, ok := field.Interface.(fmt.Stringer); ok && s != nil {
				return s.String()
			}
		default:
			if s, ok := field.Interface.(string); ok {
				return s
			}
		}
	}
	return ""
}

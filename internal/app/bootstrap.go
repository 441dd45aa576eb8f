package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	apihttp "github.com/weisyn/proofhost/internal/api/http"
	"github.com/weisyn/proofhost/internal/config"
	"github.com/weisyn/proofhost/internal/core/infrastructure/event"
	"github.com/weisyn/proofhost/internal/core/infrastructure/log"
	"github.com/weisyn/proofhost/internal/core/prover"
	configiface "github.com/weisyn/proofhost/pkg/interfaces/config"
)

// Framework layers
const (
	// 基础设施层
	LayerInfrastructure = "infrastructure"
	// 业务逻辑层
	LayerBusiness = "business"
	// 应用层
	LayerApplication = "application"
)

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() configiface.AppOptions { return b.opts }),
		config.Module(), // 1. 配置(不依赖其他)
		log.Module(),    // 2. 日志(依赖配置)
		event.Module(),  // 3. 事件(依赖日志)
		fx.Provide(
			func() prometheus.Registerer { return prometheus.DefaultRegisterer },
			func() prometheus.Gatherer { return prometheus.DefaultGatherer },
		),
	}
}

// SetupBusinessLayer 设置业务逻辑层模块
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		prover.Module(), // 台账、后端、编排器
	}
}

// SetupApplicationLayer 设置应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	if !b.opts.enableAPI {
		return nil
	}
	return []fx.Option{
		apihttp.Module(),
	}
}

// Build 按层组装 fx 应用
func (b *Bootstrap) Build() *fx.App {
	var all []fx.Option
	all = append(all, b.SetupInfrastructureLayer()...)
	all = append(all, b.SetupBusinessLayer()...)
	all = append(all, b.SetupApplicationLayer()...)
	all = append(all, b.opts.extra...)
	all = append(all,
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.With(zap.String("module", "fx"))}
			l.UseLogLevel(zap.DebugLevel)
			return l
		}),
	)

	b.fxApp = fx.New(all...)
	return b.fxApp
}

// StartApp 启动 fx 应用
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if b.fxApp == nil {
		b.Build()
	}
	if err := b.fxApp.Err(); err != nil {
		return fmt.Errorf("组装应用失败: %w", err)
	}
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止 fx 应用
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if b.fxApp == nil {
		return nil
	}
	return b.fxApp.Stop(ctx)
}

// Done 应用收到退出信号时关闭
func (b *Bootstrap) Done() <-chan struct{} {
	ch := make(chan struct{})
	if b.fxApp == nil {
		return ch
	}
	go func() {
		<-b.fxApp.Wait()
		close(ch)
	}()
	return ch
}

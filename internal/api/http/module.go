package http

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	logimpl "github.com/weisyn/proofhost/internal/core/infrastructure/log"
	"github.com/weisyn/proofhost/internal/core/prover/request"
	"github.com/weisyn/proofhost/pkg/interfaces/config"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
)

// ModuleInput HTTP模块输入依赖
type ModuleInput struct {
	fx.In

	ConfigProvider config.Provider
	Orchestrator   prover.Orchestrator
	Backends       prover.BackendTable
	Requests       *request.Builder

	Logger     log.Logger            `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Gatherer   prometheus.Gatherer   `optional:"true"`
	Lifecycle  fx.Lifecycle
}

// Module 返回HTTP服务模块
func Module() fx.Option {
	return fx.Module("http",
		fx.Provide(ProvideServer),
		// 没有其他组件依赖 *Server，显式触发构造以挂上生命周期钩子
		fx.Invoke(func(*Server) {}),
	)
}

// ProvideServer 创建HTTP服务器并挂接生命周期
//
// http_enabled 为 false 时仍构造服务器（便于依赖方引用），但不监听端口。
func ProvideServer(input ModuleInput) *Server {
	initializeGinMode(input.ConfigProvider.GetEnvironment())

	options := input.ConfigProvider.GetAPI()
	server := NewServer(ServerDeps{
		Options:      options,
		Orchestrator: input.Orchestrator,
		Backends:     input.Backends,
		Requests:     input.Requests,
		Logger:       logimpl.NewModuleLogger(input.Logger, "api"),
		Registerer:   input.Registerer,
		Gatherer:     input.Gatherer,
	})

	if !options.HTTPEnabled {
		if input.Logger != nil {
			input.Logger.Warn("HTTP API 已在配置中禁用")
		}
		return server
	}

	input.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
	return server
}

// initializeGinMode 非 dev 环境使用 Release 模式并关闭 gin 自带输出
func initializeGinMode(environment string) {
	if environment == "dev" {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard
	gin.DefaultErrorWriter = io.Discard
}

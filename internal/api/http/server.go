// Package http provides the HTTP API of the proof orchestrator.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/proofhost/internal/api/http/handlers"
	"github.com/weisyn/proofhost/internal/api/http/middleware"
	apiconfig "github.com/weisyn/proofhost/internal/config/api"
	"github.com/weisyn/proofhost/internal/core/prover/request"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
)

// Server HTTP服务器
//
// 🎯 **路由**：
//   - POST /v1/proof               提交并等待证明
//   - POST /v2/proof               提交任务
//   - POST /v2/proof/cancel        取消任务
//   - GET  /v2/proof/report        任务报告
//   - POST /v2/proof/prune         清理终态任务
//   - GET  /health, /health/live   健康检查
//   - GET  /metrics                prometheus（metrics_enabled 时）
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	options    *apiconfig.APIOptions
	logger     log.Logger

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// ServerDeps 服务器依赖
type ServerDeps struct {
	Options      *apiconfig.APIOptions
	Orchestrator prover.Orchestrator
	Backends     prover.BackendTable
	Requests     *request.Builder
	Logger       log.Logger

	// Registerer 为 nil 时不注册API请求指标
	Registerer prometheus.Registerer
	// Gatherer 为 nil 时使用默认注册表
	Gatherer prometheus.Gatherer
}

// NewServer 创建HTTP服务器并注册路由
func NewServer(deps ServerDeps) *Server {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(deps.Logger),
		middleware.Recovery(deps.Logger),
		middleware.NewMetrics(deps.Registerer).Middleware(),
	)

	s := &Server{
		router:  router,
		options: deps.Options,
		logger:  deps.Logger,
	}
	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: deps.Options.ReadTimeout,
		ReadTimeout:       deps.Options.ReadTimeout,
	}

	handlers.NewHealthHandler(deps.Orchestrator, deps.Backends).RegisterRoutes(router)
	handlers.NewProofHandlers(deps.Orchestrator, deps.Backends, deps.Requests, deps.Options.V1WaitTimeout, deps.Logger).RegisterRoutes(router)

	if deps.Options.MetricsEnabled {
		gatherer := deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return s
}

// Handler 返回路由处理器（测试中配合 httptest 使用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 监听配置地址并在后台提供服务
//
// 端口被占用时直接返回错误。
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("HTTP服务器已启动")
	}

	addr := s.options.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", addr, err)
	}
	s.listener = ln
	s.serveErr = make(chan error, 1)

	go func() {
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.Errorf("HTTP服务器运行失败: %v", err)
			}
			s.serveErr <- err
		}
		close(s.serveErr)
	}()

	if s.logger != nil {
		s.logger.Infof("HTTP服务器已启动，监听地址: %s", ln.Addr())
	}
	return nil
}

// Addr 实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 优雅关闭，最长等待 shutdown_timeout
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.listener != nil
	s.mu.Unlock()
	if !started {
		return nil
	}

	if s.options.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.ShutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Errorf("HTTP服务器关闭出错: %v", err)
		}
		return err
	}
	if err := <-s.serveErr; err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("HTTP服务器已关闭")
	}
	return nil
}

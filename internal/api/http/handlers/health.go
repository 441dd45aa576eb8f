package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/proofhost/internal/api/http/types"
	"github.com/weisyn/proofhost/internal/app/version"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
)

// HealthHandler 健康检查端点处理器
//
// - /health: 版本、运行时长、已注册后端与台账任务数
// - /health/live: 存活检查
type HealthHandler struct {
	startTime time.Time
	orch      prover.Orchestrator
	backends  prover.BackendTable
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(orch prover.Orchestrator, backends prover.BackendTable) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		orch:      orch,
		backends:  backends,
	}
}

// RegisterRoutes 注册健康检查路由
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	health := r.Group("/health")
	{
		health.GET("", h.GetHealth)
		health.GET("/live", h.GetLiveness)
	}
}

// GetHealth 完整健康报告
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, &apitypes.HealthResponse{
		Status:    "healthy",
		Version:   version.GetVersion(),
		Uptime:    time.Since(h.startTime).Truncate(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Backends:  h.backends.Kinds(),
		Tasks:     len(h.orch.Report()),
	})
}

// GetLiveness 存活检查
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/proofhost/internal/api/http/types"
	"github.com/weisyn/proofhost/internal/core/prover/request"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// ProofHandlers 证明任务端点
//
// 🎯 **两代接口**：
//   - v1: 直接交给后端计算并同步等待（上限 v1Wait），不进入任务台账
//   - v2: 提交立即返回任务状态，配合 cancel/report/prune 管理任务
type ProofHandlers struct {
	orch     prover.Orchestrator
	backends prover.BackendTable
	requests *request.Builder
	v1Wait   time.Duration
	logger   log.Logger
}

// NewProofHandlers 创建证明任务处理器
func NewProofHandlers(orch prover.Orchestrator, backends prover.BackendTable, requests *request.Builder, v1Wait time.Duration, logger log.Logger) *ProofHandlers {
	return &ProofHandlers{
		orch:     orch,
		backends: backends,
		requests: requests,
		v1Wait:   v1Wait,
		logger:   logger,
	}
}

// RegisterRoutes 注册 v1/v2 路由
func (h *ProofHandlers) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	{
		v1.POST("/proof", h.SubmitV1)
	}

	v2 := r.Group("/v2")
	{
		v2.POST("/proof", h.SubmitV2)
		v2.POST("/proof/cancel", h.Cancel)
		v2.GET("/proof/report", h.Report)
		v2.POST("/proof/prune", h.Prune)
	}
}

// SubmitV1 计算并等待证明
//
// 计算随请求结束而取消，结果不写入台账，不影响之后 v2 对同一请求的登记。
func (h *ProofHandlers) SubmitV1(c *gin.Context) {
	req, err := bindRequest(c, h.requests)
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := h.backends.Lookup(req.ProofType)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	if h.v1Wait > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.v1Wait)
		defer cancel()
	}

	handle := b.Compute(ctx, req)
	select {
	case <-handle.Done():
	case <-ctx.Done():
		handle.Cancel()
		if h.logger != nil {
			h.logger.Warnf("v1 等待证明未完成: proof_type=%s block=%d err=%v", req.ProofType, req.BlockNumber, ctx.Err())
		}
		writeError(c, ctx.Err())
		return
	}

	proof, err := handle.Result()
	switch {
	case err != nil:
		writeErrorKind(c, http.StatusInternalServerError, apitypes.ErrorKindProofFailed, err.Error())
	case proof == nil:
		writeErrorKind(c, http.StatusInternalServerError, apitypes.ErrorKindProofFailed, "backend returned no proof")
	default:
		writeOK(c, proof)
	}
}

// SubmitV2 提交任务，立即返回状态
//
// 已成功的任务直接返回证明，其余返回当前状态。
func (h *ProofHandlers) SubmitV2(c *gin.Context) {
	req, err := bindRequest(c, h.requests)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.orch.Submit(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	if res.Proof != nil {
		writeOK(c, &apitypes.ProofData{Proof: res.Proof})
		return
	}
	writeOK(c, &apitypes.ProofStatusData{Status: res.Status})
}

// Cancel 取消计算中的任务
func (h *ProofHandlers) Cancel(c *gin.Context) {
	req, err := bindRequest(c, h.requests)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.orch.Cancel(req); err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, nil)
}

// Report 列出所有任务
func (h *ProofHandlers) Report(c *gin.Context) {
	reports := h.orch.Report()
	if reports == nil {
		reports = []types.TaskReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// Prune 清理所有终态任务
func (h *ProofHandlers) Prune(c *gin.Context) {
	writeOK(c, &apitypes.PruneData{Removed: h.orch.Prune()})
}

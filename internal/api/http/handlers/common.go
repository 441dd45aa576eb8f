// Package handlers provides the HTTP handlers of the proof API.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/proofhost/internal/api/http/types"
	"github.com/weisyn/proofhost/internal/core/prover/request"
	"github.com/weisyn/proofhost/pkg/types"
)

// writeOK 写入成功响应
func writeOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, apitypes.NewOKResponse(data))
}

// writeError 按错误类别写入错误响应
func writeError(c *gin.Context, err error) {
	kind, status := apitypes.ClassifyError(err)
	writeErrorKind(c, status, kind, err.Error())
}

func writeErrorKind(c *gin.Context, status int, kind apitypes.ErrorKind, message string) {
	_ = c.Error(errors.New(message))
	c.AbortWithStatusJSON(status, apitypes.NewErrorResponse(kind, message))
}

// bindRequest 解析请求体并与默认请求合并、校验
//
// 空请求体视为所有字段未设置。
func bindRequest(c *gin.Context, builder *request.Builder) (*types.ProofRequest, error) {
	var opt types.ProofRequestOpt
	if err := c.ShouldBindJSON(&opt); err != nil && !errors.Is(err, io.EOF) {
		return nil, request.WrapInvalidRequestError("body", err.Error())
	}
	return builder.Build(opt)
}

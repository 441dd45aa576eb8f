package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/proofhost/internal/api/http/types"
	infralog "github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
)

// Recovery 捕获处理器 panic 并返回 internal 错误
func Recovery(logger infralog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if logger != nil {
					logger.Errorf("HTTP处理器panic: request_id=%s path=%s panic=%v",
						GetRequestID(c), c.Request.URL.Path, r)
				}
				_ = c.Error(fmt.Errorf("panic: %v", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apitypes.NewErrorResponse(apitypes.ErrorKindInternal, "internal server error"))
			}
		}()
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	resp "pomelo/internal/pkg/http"
)

// Recovery 异常恢复中间件
// 渲染任务在独立 goroutine 中执行，这里只兜底 HTTP 处理链路的 panic
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Str("request_id", c.GetString("request_id")).
					Msg("panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					resp.NewErrorResponse(50000, "Internal Server Error"))
			}
		}()
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pomelo/internal/pkg/ctxutil"
	"pomelo/internal/pkg/jwt"
)

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入 user_id 到 context
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "未授权",
			})
			c.Abort()
			return
		}

		// 提取 Token（Bearer {token}）
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "Invalid authorization header",
			})
			c.Abort()
			return
		}

		claims, err := jwtUtil.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    40102,
				"message": "Token无效或已过期",
			})
			c.Abort()
			return
		}

		// 将 user_id 注入到 context
		ctx := ctxutil.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}

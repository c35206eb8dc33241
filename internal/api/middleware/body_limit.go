package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 超限时读取请求体的 handler 会收到 *http.MaxBytesError，由 handler 层返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

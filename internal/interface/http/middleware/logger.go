package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshelf/pkg/logger"
)

// HeaderRequestID 请求ID响应头
const HeaderRequestID = "X-Request-ID"

// slowRequest 超过该耗时记为慢请求
const slowRequest = 3 * time.Second

// RequestLogger 请求ID与访问日志
// 客户端带了X-Request-ID时沿用,否则生成uuid;请求ID写入request context,后续logger.Ctx(ctx)自动带出
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = logger.NewRequestID()
		}
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		l := logger.Ctx(c.Request.Context())
		evt := l.Info()
		switch {
		case status >= 500:
			evt = l.Error()
		case latency > slowRequest:
			evt = l.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		if uid := GetUserID(c); uid != 0 {
			evt = evt.Uint("user_id", uid)
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http请求")
	}
}

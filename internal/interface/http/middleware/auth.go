package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// Context中的键
const (
	ctxUserID   = "user_id"
	ctxEmail    = "email"
	ctxNickname = "nickname"
	ctxRole     = "role"
	ctxToken    = "token"
	ctxClaims   = "claims"
)

// TokenBlacklist Token黑名单查询
// 实现:persistence/redis.SessionStore、persistence/memory.SessionStore
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 1. 从Header提取Token
// 2. 检查Token黑名单
// 3. 验证Access Token
// 4. 将用户信息注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(authMiddleware.RequireAuth())
//	authorized.GET("/cart", cartHandler.View)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 提取Token,格式:Authorization: Bearer <token>
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, apperrors.ErrUnauthorized)
			return
		}

		// 2. 黑名单(已登出或已注销)
		blacklisted, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
		if err != nil {
			response.Abort(c, http.StatusInternalServerError, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "验证Token失败"))
			return
		}
		if blacklisted {
			response.Abort(c, http.StatusUnauthorized, apperrors.New(apperrors.ErrCodeTokenExpired, "Token已失效,请重新登录"))
			return
		}

		// 3. 只接受Access Token
		claims, err := m.jwtManager.ParseAccessToken(tokenString)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, err)
			return
		}

		// 4. 注入用户信息
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxNickname, claims.Nickname)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxToken, tokenString)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireRole 角色校验,必须放在RequireAuth之后
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := user.Role(GetRole(c))
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, apperrors.ErrForbidden)
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserID 当前登录用户ID,未登录返回0
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetRole 当前登录用户角色
func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// GetToken 当前请求的Access Token
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// TokenRemaining 当前Access Token的剩余有效期(登出时拉黑用)
func TokenRemaining(c *gin.Context) time.Duration {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return jwt.RemainingTTL(claims)
		}
	}
	return 0
}

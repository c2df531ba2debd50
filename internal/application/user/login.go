package user

import (
	"context"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// LoginUseCase 用户登录用例
// 1. 验证邮箱密码
// 2. 生成JWT Token对(claims中带角色)
// 3. 保存会话
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore SessionStore
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager, sessionStore SessionStore) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	// 1. 验证邮箱密码
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	// 2. 生成Token对
	pair, err := uc.jwtManager.GenerateToken(u.ID, u.Email, u.Nickname, string(u.Role))
	if err != nil {
		return nil, err
	}

	// 3. 保存会话,有效期与Refresh Token一致
	session := map[string]any{
		"user_id":  u.ID,
		"email":    u.Email,
		"role":     string(u.Role),
		"login_at": time.Now().Unix(),
		"ip":       req.ClientIP,
	}
	if err := uc.sessionStore.SaveSession(ctx, u.ID, session, uc.jwtManager.RefreshTokenExpire()); err != nil {
		// 会话只用于审计和强制下线,保存失败不影响登录
		logger.Ctx(ctx).Warn().Err(err).Uint("user_id", u.ID).Msg("保存会话失败")
	}

	return &LoginResponse{
		User:         *toUserInfo(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// LogoutUseCase 用户登出用例
type LogoutUseCase struct {
	sessionStore SessionStore
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(sessionStore SessionStore) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore}
}

// Execute 删除会话并把Access Token拉黑到其过期为止
func (uc *LogoutUseCase) Execute(ctx context.Context, userID uint, accessToken string, remaining time.Duration) error {
	if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
		return err
	}
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, remaining)
}

// RefreshUseCase 刷新Access Token
// 重新查询用户,角色变更或账号注销后旧的Refresh Token换不到有效权限
type RefreshUseCase struct {
	userRepo     user.Repository
	jwtManager   *jwt.Manager
	sessionStore SessionStore
}

// NewRefreshUseCase 创建刷新用例
func NewRefreshUseCase(userRepo user.Repository, jwtManager *jwt.Manager, sessionStore SessionStore) *RefreshUseCase {
	return &RefreshUseCase{
		userRepo:     userRepo,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

// RefreshResponse 刷新响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Execute 用Refresh Token换取新的Access Token
func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	// 1. 校验Refresh Token
	claims, err := uc.jwtManager.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	// 2. 会话必须存在(登出、注销后会话已删除)
	if _, err := uc.sessionStore.GetSession(ctx, claims.UserID); err != nil {
		return nil, err
	}

	// 3. 重新查询用户,签发带最新角色的Access Token
	u, err := uc.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	token, err := uc.jwtManager.RefreshAccessToken(refreshToken, u.Email, u.Nickname, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: token, ExpiresIn: uc.jwtManager.AccessTokenExpireSeconds()}, nil
}

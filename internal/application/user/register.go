package user

import (
	"context"
	"errors"

	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// RegisterUseCase 用户注册用例
// 设计说明:
// 1. 领域服务负责校验和密码加密
// 2. 用户、购物车、购买记录在同一个事务中创建,三者同生共死
type RegisterUseCase struct {
	txManager    tx.Manager
	userService  user.Service
	userRepo     user.Repository
	cartRepo     cart.Repository
	purchaseRepo purchase.Repository
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(
	txManager tx.Manager,
	userService user.Service,
	userRepo user.Repository,
	cartRepo cart.Repository,
	purchaseRepo purchase.Repository,
) *RegisterUseCase {
	return &RegisterUseCase{
		txManager:    txManager,
		userService:  userService,
		userRepo:     userRepo,
		cartRepo:     cartRepo,
		purchaseRepo: purchaseRepo,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Nickname string
}

// Execute 注册顾客
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	// 1. 校验并构造用户(密码已加密)
	u, err := uc.userService.NewCustomer(req.Email, req.Password, req.Nickname)
	if err != nil {
		return nil, err
	}

	// 2. 事务中创建用户、购物车、购买记录
	if err := uc.create(ctx, u); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().Uint("user_id", u.ID).Msg("用户注册成功")
	return toUserInfo(u), nil
}

// EnsureAdmin 确保管理员账号存在(启动时根据配置调用)
// 邮箱已注册时提升为管理员,密码保持不变
func (uc *RegisterUseCase) EnsureAdmin(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	existing, err := uc.userRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			existing.Role = user.RoleAdmin
			if err := uc.userRepo.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		return toUserInfo(existing), nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return nil, err
	}

	u, err := uc.userService.NewCustomer(req.Email, req.Password, req.Nickname)
	if err != nil {
		return nil, err
	}
	u.Role = user.RoleAdmin
	if err := uc.create(ctx, u); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().Uint("user_id", u.ID).Str("email", u.Email).Msg("已创建管理员账号")
	return toUserInfo(u), nil
}

func (uc *RegisterUseCase) create(ctx context.Context, u *user.User) error {
	return uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.userRepo.Create(txCtx, u); err != nil {
			return err // 邮箱重复返回ErrEmailDuplicate
		}
		if err := uc.cartRepo.Create(txCtx, cart.NewCart(u.ID)); err != nil {
			return err
		}
		_, err := uc.purchaseRepo.GetOrCreate(txCtx, u.ID)
		return err
	})
}

func toUserInfo(u *user.User) *UserInfo {
	return &UserInfo{
		ID:       u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	}
}

package user

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/bookshelf/internal/application/event"
	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/saga"
)

// DeleteAccountUseCase 注销账号
//
// 购物车和购买记录不依赖数据库级联删除,而是由Saga显式删除:
//
//	revoke_session → delete_cart → delete_history → delete_user
//
// 任何一步失败,已删除的购物车和购买记录按快照恢复。
// delete_user是最后一步,成功后整个注销不可逆。
type DeleteAccountUseCase struct {
	locker       tx.Locker
	userRepo     user.Repository
	cartRepo     cart.Repository
	purchaseRepo purchase.Repository
	sessionStore SessionStore
	publisher    event.Publisher
	timeout      time.Duration
}

// NewDeleteAccountUseCase 创建注销用例
func NewDeleteAccountUseCase(
	locker tx.Locker,
	userRepo user.Repository,
	cartRepo cart.Repository,
	purchaseRepo purchase.Repository,
	sessionStore SessionStore,
	publisher event.Publisher,
) *DeleteAccountUseCase {
	return &DeleteAccountUseCase{
		locker:       locker,
		userRepo:     userRepo,
		cartRepo:     cartRepo,
		purchaseRepo: purchaseRepo,
		sessionStore: sessionStore,
		publisher:    publisher,
		timeout:      10 * time.Second,
	}
}

// Execute 注销账号,accessToken会被拉黑remaining时长
func (uc *DeleteAccountUseCase) Execute(ctx context.Context, userID uint, accessToken string, remaining time.Duration) error {
	// 与结算、加购互斥,注销过程中购物车不会变化
	release, err := uc.locker.Acquire(ctx, tx.UserKey(userID))
	if err != nil {
		return err
	}
	defer release()

	u, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	var (
		cartSnapshot    *cart.Cart
		historySnapshot *purchase.History
	)

	s := saga.NewSaga("delete_account", uc.timeout)

	// 1. 下线:删除会话并拉黑当前Token,重新登录即可恢复,不需要补偿
	s.AddStep("revoke_session", func(ctx context.Context) error {
		if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
			return err
		}
		return uc.sessionStore.AddToBlacklist(ctx, accessToken, remaining)
	}, nil)

	// 2. 删除购物车
	s.AddStep("delete_cart", func(ctx context.Context) error {
		c, err := uc.cartRepo.FindByUserID(ctx, userID)
		switch {
		case errors.Is(err, cart.ErrCartNotFound):
			return nil
		case err != nil:
			return err
		}
		cartSnapshot = c
		return uc.cartRepo.DeleteByUserID(ctx, userID)
	}, func(ctx context.Context) error {
		if cartSnapshot == nil {
			return nil
		}
		if err := uc.cartRepo.Create(ctx, cart.NewCart(userID)); err != nil {
			return err
		}
		return uc.cartRepo.Save(ctx, cartSnapshot)
	})

	// 3. 删除购买记录
	s.AddStep("delete_history", func(ctx context.Context) error {
		h, err := uc.purchaseRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		historySnapshot = h
		return uc.purchaseRepo.DeleteByUserID(ctx, userID)
	}, func(ctx context.Context) error {
		if historySnapshot == nil {
			return nil
		}
		if _, err := uc.purchaseRepo.GetOrCreate(ctx, userID); err != nil {
			return err
		}
		return uc.purchaseRepo.Save(ctx, historySnapshot)
	})

	// 4. 删除用户
	s.AddStep("delete_user", func(ctx context.Context) error {
		return uc.userRepo.Delete(ctx, userID)
	}, nil)

	if err := s.Execute(ctx); err != nil {
		return err
	}

	logger.Ctx(ctx).Info().Uint("user_id", userID).Msg("账号已注销")

	evt := event.UserDeleted{Meta: event.NewMeta(), UserID: userID, Email: u.Email}
	if err := uc.publisher.Publish(context.WithoutCancel(ctx), event.RoutingUserDeleted, evt); err != nil {
		logger.Ctx(ctx).Error().Err(err).Uint("user_id", userID).Msg("发布注销事件失败")
	}
	return nil
}

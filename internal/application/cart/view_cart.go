package cart

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/cart"
)

// ViewCartUseCase 查看购物车
type ViewCartUseCase struct {
	cartRepo cart.Repository
}

// NewViewCartUseCase 创建查看购物车用例
func NewViewCartUseCase(cartRepo cart.Repository) *ViewCartUseCase {
	return &ViewCartUseCase{cartRepo: cartRepo}
}

// Execute 查询购物车
func (uc *ViewCartUseCase) Execute(ctx context.Context, userID uint) (*View, error) {
	c, err := uc.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewView(c), nil
}

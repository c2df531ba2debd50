package handler

import (
	"github.com/gin-gonic/gin"

	appcheckout "github.com/xiebiao/bookshelf/internal/application/checkout"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// CheckoutHandler 结算HTTP处理器
type CheckoutHandler struct {
	checkoutUseCase *appcheckout.CheckoutUseCase
}

// NewCheckoutHandler 创建结算处理器
func NewCheckoutHandler(checkoutUseCase *appcheckout.CheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{checkoutUseCase: checkoutUseCase}
}

// Checkout 结算
// @Summary      结算购物车
// @Description  购物车中的图书全部转入购买记录并扣减库存,任何一本库存不足则什么都不改变
// @Tags         结算
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appcheckout.Result} "status=ok或empty"
// @Failure      200 {object} response.Response{data=appcheckout.Result} "40001库存不足,data中带缺货明细"
// @Failure      429 {object} response.Response "请求过于频繁"
// @Router       /api/v1/checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	result, err := h.checkoutUseCase.Execute(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Status == appcheckout.StatusInsufficientStock {
		response.Fail(c, apperrors.ErrCodeInsufficientStock, apperrors.ErrInsufficientStock.Message, result)
		return
	}
	response.Success(c, result)
}

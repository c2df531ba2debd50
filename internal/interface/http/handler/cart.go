package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/bookshelf/internal/application/cart"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// CartHandler 购物车HTTP处理器
type CartHandler struct {
	viewUseCase   *appcart.ViewCartUseCase
	addUseCase    *appcart.AddToCartUseCase
	removeUseCase *appcart.RemoveFromCartUseCase
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(
	viewUseCase *appcart.ViewCartUseCase,
	addUseCase *appcart.AddToCartUseCase,
	removeUseCase *appcart.RemoveFromCartUseCase,
) *CartHandler {
	return &CartHandler{
		viewUseCase:   viewUseCase,
		addUseCase:    addUseCase,
		removeUseCase: removeUseCase,
	}
}

// View 查看购物车
// @Summary      查看购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appcart.View}
// @Router       /api/v1/cart [get]
func (h *CartHandler) View(c *gin.Context) {
	result, err := h.viewUseCase.Execute(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Add 加入一本书
// @Summary      加入购物车
// @Description  每次加入一本,同一本书可以重复加入;加入时不检查库存
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddToCartRequest true "图书ID"
// @Success      200 {object} response.Response{data=appcart.View}
// @Failure      200 {object} response.Response "40402图书不存在"
// @Router       /api/v1/cart/items [post]
func (h *CartHandler) Add(c *gin.Context) {
	var req dto.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.addUseCase.Execute(c.Request.Context(), middleware.GetUserID(c), req.BookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Remove 移除一本书
// @Summary      从购物车移除一本
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Param        book_id path int true "图书ID"
// @Success      200 {object} response.Response{data=appcart.View}
// @Failure      200 {object} response.Response "40404购物车中没有该图书"
// @Router       /api/v1/cart/items/{book_id} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	var uri dto.BookIDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.removeUseCase.Execute(c.Request.Context(), middleware.GetUserID(c), uri.BookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

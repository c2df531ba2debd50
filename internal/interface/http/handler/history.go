package handler

import (
	"github.com/gin-gonic/gin"

	apppurchase "github.com/xiebiao/bookshelf/internal/application/purchase"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// HistoryHandler 购买记录HTTP处理器
type HistoryHandler struct {
	listUseCase   *apppurchase.ListHistoryUseCase
	removeUseCase *apppurchase.RemoveFromHistoryUseCase
}

// NewHistoryHandler 创建购买记录处理器
func NewHistoryHandler(listUseCase *apppurchase.ListHistoryUseCase, removeUseCase *apppurchase.RemoveFromHistoryUseCase) *HistoryHandler {
	return &HistoryHandler{
		listUseCase:   listUseCase,
		removeUseCase: removeUseCase,
	}
}

// List 查看购买记录
// @Summary      购买记录
// @Tags         购买记录
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=apppurchase.HistoryView}
// @Router       /api/v1/history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	result, err := h.listUseCase.Execute(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Remove 从购买记录移除一本
// @Summary      移除购买记录
// @Description  移除一本,库存不会退回
// @Tags         购买记录
// @Produce      json
// @Security     BearerAuth
// @Param        book_id path int true "图书ID"
// @Success      200 {object} response.Response{data=apppurchase.HistoryView}
// @Failure      200 {object} response.Response "40405购买记录中没有该图书"
// @Router       /api/v1/history/items/{book_id} [delete]
func (h *HistoryHandler) Remove(c *gin.Context) {
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

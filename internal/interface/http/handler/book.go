package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	publishBookUseCase *appbook.PublishBookUseCase
	getBookUseCase     *appbook.GetBookUseCase
	listBooksUseCase   *appbook.ListBooksUseCase
	deleteBookUseCase  *appbook.DeleteBookUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	publishBookUseCase *appbook.PublishBookUseCase,
	getBookUseCase *appbook.GetBookUseCase,
	listBooksUseCase *appbook.ListBooksUseCase,
	deleteBookUseCase *appbook.DeleteBookUseCase,
) *BookHandler {
	return &BookHandler{
		publishBookUseCase: publishBookUseCase,
		getBookUseCase:     getBookUseCase,
		listBooksUseCase:   listBooksUseCase,
		deleteBookUseCase:  deleteBookUseCase,
	}
}

// PublishBook 发布图书(上架)
// @Summary      发布图书
// @Description  管理员上架图书,价格可以为空,库存默认5本
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishBookRequest true "图书信息"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      200 {object} response.Response "40004 ISBN已存在 40900参数错误"
// @Failure      403 {object} response.Response "非管理员"
// @Router       /api/v1/books [post]
func (h *BookHandler) PublishBook(c *gin.Context) {
	var req dto.PublishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.publishBookUseCase.Execute(c.Request.Context(), appbook.PublishBookRequest{
		OperatorID:   middleware.GetUserID(c),
		OperatorRole: middleware.GetRole(c),
		ISBN:         req.ISBN,
		Title:        req.Title,
		Author:       req.Author,
		Publisher:    req.Publisher,
		Genre:        req.Genre,
		Category:     req.Category,
		Price:        req.Price,
		Stock:        req.Stock,
		CoverURL:     req.CoverURL,
		Description:  req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookResponse(result))
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      200 {object} response.Response "40402图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	var uri dto.IDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.getBookUseCase.Execute(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewBookResponse(result))
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  分页查询,支持关键词、类型、价格区间过滤
// @Tags         图书
// @Produce      json
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量(最大100)"
// @Param        keyword   query string false "关键词(标题/作者/出版社/类型)"
// @Param        genre     query string false "类型(子串匹配,大小写不敏感)"
// @Param        min_price query int    false "最低价格(分)"
// @Param        max_price query int    false "最高价格(分)"
// @Param        sort_by   query string false "排序" Enums(price_asc, price_desc, created_at_desc)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.BookListItem}}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		Genre:    req.Genre,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		SortBy:   req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewBookListItems(result.List), result.Total, result.Page, result.PageSize)
}

// DeleteBook 下架图书
// @Summary      下架图书
// @Description  管理员下架图书;仍在购物车中的该图书会导致结算返回图书不存在
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response
// @Failure      200 {object} response.Response "40402图书不存在"
// @Failure      403 {object} response.Response "非管理员"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	var uri dto.IDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}

	err := h.deleteBookUseCase.Execute(c.Request.Context(), appbook.DeleteBookRequest{
		OperatorID:   middleware.GetUserID(c),
		OperatorRole: middleware.GetRole(c),
		BookID:       uri.ID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

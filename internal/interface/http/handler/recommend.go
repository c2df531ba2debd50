package handler

import (
	"github.com/gin-gonic/gin"

	apprecommend "github.com/xiebiao/bookshelf/internal/application/recommend"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// RecommendHandler 推荐HTTP处理器
type RecommendHandler struct {
	recommendUseCase *apprecommend.RecommendUseCase
	defaultLimit     int
	maxLimit         int
}

// NewRecommendHandler 创建推荐处理器
func NewRecommendHandler(recommendUseCase *apprecommend.RecommendUseCase, defaultLimit, maxLimit int) *RecommendHandler {
	return &RecommendHandler{
		recommendUseCase: recommendUseCase,
		defaultLimit:     defaultLimit,
		maxLimit:         maxLimit,
	}
}

// Recommend 个性化推荐
// @Summary      推荐图书
// @Description  按已购图书的类型偏好推荐,没有购买记录时推荐最贵的图书;不会推荐已购买的图书
// @Tags         推荐
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "推荐数量"
// @Success      200 {object} response.Response{data=dto.RecommendResponse}
// @Router       /api/v1/recommendations [get]
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req dto.RecommendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	limit := h.defaultLimit
	if req.Limit != nil {
		limit = min(*req.Limit, h.maxLimit)
	}

	list, err := h.recommendUseCase.Execute(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.RecommendResponse{Limit: limit, List: list})
}

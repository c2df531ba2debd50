package dto

import (
	apprecommend "github.com/xiebiao/bookshelf/internal/application/recommend"
)

// RecommendRequest 推荐请求,limit省略时使用配置的默认值,超过上限时截断
type RecommendRequest struct {
	Limit *int `form:"limit" binding:"omitempty,min=1" example:"10"`
}

// RecommendResponse 推荐响应
type RecommendResponse struct {
	Limit int                           `json:"limit" example:"10"`
	List  []apprecommend.Recommendation `json:"list"`
}

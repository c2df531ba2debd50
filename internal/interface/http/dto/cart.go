package dto

// AddToCartRequest 加入购物车请求,每次加入一本
type AddToCartRequest struct {
	BookID uint `json:"book_id" binding:"required,min=1" example:"1"`
}

// BookIDURI 路径参数中的图书ID
type BookIDURI struct {
	BookID uint `uri:"book_id" binding:"required,min=1"`
}

// IDURI 路径参数中的ID
type IDURI struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

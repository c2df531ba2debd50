package cart

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

var (
	// ErrCartNotFound 购物车不存在(用户不存在或已注销)
	ErrCartNotFound = apperrors.New(apperrors.ErrCodeNotFound, "购物车不存在")

	// ErrItemNotInCart 购物车中没有该图书
	ErrItemNotInCart = apperrors.New(apperrors.ErrCodeCartItemNotFound, "购物车中没有该图书")
)

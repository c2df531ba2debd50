package book

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 目录维护和库存相关的错误
// ErrBookNotFound、ErrInsufficientStock与pkg/errors中的同名错误是同一个值,两层都可以用errors.Is判断
var (
	ErrBookNotFound = apperrors.ErrBookNotFound

	ErrISBNDuplicate = apperrors.ErrISBNDuplicate

	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须在0到9999.99元之间")

	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	ErrInsufficientStock = apperrors.ErrInsufficientStock

	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")

	ErrForbidden = apperrors.New(apperrors.ErrCodeForbidden, "只有管理员可以维护图书")
)

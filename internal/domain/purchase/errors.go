package purchase

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// ErrItemNotInHistory 购买记录中没有该图书
var ErrItemNotInHistory = apperrors.New(apperrors.ErrCodeHistoryItemNotFound, "购买记录中没有该图书")

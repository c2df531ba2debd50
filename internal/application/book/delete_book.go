package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// DeleteBookUseCase 图书下架用例
//
// 购物车和购买记录中的图书ID保持不变:
//   - 查看购物车时该行标记为removed
//   - 购物车中含有已下架图书时结算返回ErrBookNotFound,不做任何修改
//   - 推荐不再返回该图书
type DeleteBookUseCase struct {
	bookService book.Service
}

// NewDeleteBookUseCase 创建下架用例
func NewDeleteBookUseCase(bookService book.Service) *DeleteBookUseCase {
	return &DeleteBookUseCase{bookService: bookService}
}

// DeleteBookRequest 下架请求
type DeleteBookRequest struct {
	OperatorID   uint
	OperatorRole string
	BookID       uint
}

// Execute 执行下架,图书不存在返回ErrBookNotFound
func (uc *DeleteBookUseCase) Execute(ctx context.Context, req DeleteBookRequest) error {
	if user.Role(req.OperatorRole) != user.RoleAdmin {
		return book.ErrForbidden
	}

	if err := uc.bookService.DeleteBook(ctx, req.BookID); err != nil {
		return err
	}

	logger.Ctx(ctx).Info().
		Uint("book_id", req.BookID).
		Uint("operator_id", req.OperatorID).
		Msg("图书下架")
	return nil
}

package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func price(v int64) *int64 { return &v }

type fixture struct {
	publish *PublishBookUseCase
	get     *GetBookUseCase
	list    *ListBooksUseCase
	remove  *DeleteBookUseCase
}

func newFixture() *fixture {
	svc := book.NewService(memory.NewBookRepository(memory.NewStore()))
	return &fixture{
		publish: NewPublishBookUseCase(svc),
		get:     NewGetBookUseCase(svc),
		list:    NewListBooksUseCase(svc),
		remove:  NewDeleteBookUseCase(svc),
	}
}

func adminRequest(isbn, title, genre string, p *int64) PublishBookRequest {
	return PublishBookRequest{
		OperatorID:   1,
		OperatorRole: "ADMIN",
		ISBN:         isbn,
		Title:        title,
		Author:       "author",
		Publisher:    "press",
		Genre:        genre,
		Price:        p,
	}
}

func TestPublishBook(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.publish.Execute(ctx, adminRequest("9787115428028", "Go语言", "Programming", price(5900)))
	require.NoError(t, err)
	assert.NotZero(t, detail.ID)
	assert.Equal(t, book.DefaultStock, detail.Stock)

	got, err := f.get.Execute(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go语言", got.Title)
	assert.Equal(t, int64(5900), *got.Price)

	// 未定价的图书可以上架
	detail, err = f.publish.Execute(ctx, adminRequest("9787111213826", "无价之宝", "Drama", nil))
	require.NoError(t, err)
	assert.Nil(t, detail.Price)
}

func TestPublishBook_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.publish.Execute(ctx, adminRequest("9787115428028", "Go语言", "Programming", nil))
	require.NoError(t, err)

	customer := adminRequest("9787111213826", "x", "", nil)
	customer.OperatorRole = "CUSTOMER"

	tests := []struct {
		name string
		req  PublishBookRequest
		want error
	}{
		{"顾客无权上架", customer, book.ErrForbidden},
		{"ISBN重复", adminRequest("9787115428028", "x", "", nil), book.ErrISBNDuplicate},
		{"ISBN格式错误", adminRequest("123", "x", "", nil), book.ErrInvalidISBN},
		{"价格为负", adminRequest("9787111213826", "x", "", price(-1)), book.ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.publish.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetBook_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.get.Execute(context.Background(), 42)
	assert.Equal(t, apperrors.ErrCodeBookNotFound, apperrors.CodeOf(err))
}

func TestListBooks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seed := []PublishBookRequest{
		adminRequest("9787115428028", "The Hobbit", "Fantasy, Adventure", price(3000)),
		adminRequest("9787111213826", "Dune", "Science Fiction", price(5000)),
		adminRequest("9787020002207", "Emma", "Romance", nil),
	}
	for _, req := range seed {
		_, err := f.publish.Execute(ctx, req)
		require.NoError(t, err)
	}

	resp, err := f.list.Execute(ctx, ListBooksRequest{SortBy: book.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, DefaultPageSize, resp.PageSize)
	titles := make([]string, 0, len(resp.List))
	for _, item := range resp.List {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"Dune", "The Hobbit", "Emma"}, titles, "未定价排最后")

	resp, err = f.list.Execute(ctx, ListBooksRequest{Genre: "fiction"})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "Dune", resp.List[0].Title)

	resp, err = f.list.Execute(ctx, ListBooksRequest{Keyword: "HOBBIT"})
	require.NoError(t, err)
	assert.Len(t, resp.List, 1)

	resp, err = f.list.Execute(ctx, ListBooksRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, resp.List, 1)
	assert.Equal(t, 2, resp.TotalPages)

	_, err = f.list.Execute(ctx, ListBooksRequest{MinPrice: price(5000), MaxPrice: price(100)})
	assert.ErrorIs(t, err, book.ErrInvalidPrice)
}

func TestDeleteBook(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	detail, err := f.publish.Execute(ctx, adminRequest("9787115428028", "Go语言", "Programming", price(5900)))
	require.NoError(t, err)

	err = f.remove.Execute(ctx, DeleteBookRequest{OperatorRole: "CUSTOMER", BookID: detail.ID})
	assert.ErrorIs(t, err, book.ErrForbidden)

	require.NoError(t, f.remove.Execute(ctx, DeleteBookRequest{OperatorID: 1, OperatorRole: "ADMIN", BookID: detail.ID}))

	_, err = f.get.Execute(ctx, detail.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	err = f.remove.Execute(ctx, DeleteBookRequest{OperatorRole: "ADMIN", BookID: detail.ID})
	assert.Equal(t, apperrors.ErrCodeBookNotFound, apperrors.CodeOf(err))
}

package book

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func price(p int64) *int64 { return &p }

func TestNewBookDefaultStock(t *testing.T) {
	b := NewBook("9787115428028", "Go语言", "A", "P", "Programming", price(5900), nil)
	assert.Equal(t, DefaultStock, b.Stock)

	stock := 0
	b = NewBook("9787115428028", "Go语言", "A", "P", "Programming", nil, &stock)
	assert.Equal(t, 0, b.Stock)
	assert.False(t, b.HasPrice())
	assert.Equal(t, int64(0), b.PriceOrZero())
}

func TestHasStock(t *testing.T) {
	b := &Book{ID: 1, Stock: 2}
	assert.True(t, b.HasStock(2))
	assert.False(t, b.HasStock(3))
}

func TestGenreTokens(t *testing.T) {
	tests := []struct {
		name  string
		genre string
		want  []string
	}{
		{"单个类型", "Fantasy", []string{"fantasy"}},
		{"多个类型去空白", " Fantasy ,  Adventure", []string{"fantasy", "adventure"}},
		{"丢弃空串", "Sci-Fi,, ,", []string{"sci-fi"}},
		{"保留重复", "Drama,drama", []string{"drama", "drama"}},
		{"空字段", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Book{Genre: tt.genre}
			assert.Equal(t, tt.want, b.GenreTokens())
		})
	}
}

func TestMatchesGenre(t *testing.T) {
	b := &Book{Genre: "Science Fiction, Adventure"}

	assert.True(t, b.MatchesGenre("fiction"))
	assert.True(t, b.MatchesGenre("  ADVENTURE "))
	assert.False(t, b.MatchesGenre("fantasy"))
	assert.False(t, b.MatchesGenre(" "))
}

func TestComparePriceDesc(t *testing.T) {
	books := []*Book{
		{ID: 1, Price: price(100)},
		{ID: 2},
		{ID: 3, Price: price(300)},
		{ID: 4, Price: price(100)},
		{ID: 5},
	}
	slices.SortStableFunc(books, ComparePriceDesc)

	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []uint{3, 1, 4, 2, 5}, ids)
}

func TestIsValidISBN(t *testing.T) {
	assert.True(t, IsValidISBN("9787115428028"))
	assert.True(t, IsValidISBN("978-7-115-42802-8"))
	assert.True(t, IsValidISBN("080442957X"))
	assert.False(t, IsValidISBN("12345"))
	assert.False(t, IsValidISBN("X804429570"))
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder(7)
	assert.Equal(t, uint(7), p.ID)
	assert.True(t, p.IsPlaceholder())
	assert.False(t, NewBook("9787115428028", "Go", "A", "P", "", nil, nil).IsPlaceholder())
}

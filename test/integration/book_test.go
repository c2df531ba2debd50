//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 图书模块集成测试
//
// 测试场景覆盖:
// 1. 图书上架(只有管理员可以)
// 2. 未定价、默认库存
// 3. 图书列表:关键词、类型、价格区间、排序、分页
// 4. 图书下架

// BookListData 图书列表响应数据
type BookListData struct {
	List     []BookData `json:"list"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// listBooks 查询图书列表
func listBooks(t *testing.T, query url.Values) BookListData {
	t.Helper()
	resp := GetJSON(t, BaseURL+"/books?"+query.Encode(), "")
	require.Equal(t, 0, resp.Code, "查询图书列表失败: %s", resp.Message)

	var data BookListData
	resp.Decode(t, &data)
	return data
}

func bookIDs(books []BookData) []uint {
	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	return ids
}

// TestBookPublish 测试图书上架功能
func TestBookPublish(t *testing.T) {
	admin := AdminToken(t)
	_, customer := RegisterTestUser(t, "book_customer")

	t.Run("管理员正常上架", func(t *testing.T) {
		isbn := GenerateTestISBN()
		resp := PostJSON(t, BaseURL+"/books", map[string]any{
			"isbn":      isbn,
			"title":     "《Go语言高级编程》",
			"author":    "柴树杉",
			"publisher": "人民邮电出版社",
			"genre":     "Programming, Computer Science",
			"price":     8900,
			"stock":     100,
		}, admin)
		require.Equal(t, 0, resp.Code, "上架应该成功: %s", resp.Message)

		var data BookData
		resp.Decode(t, &data)
		assert.NotZero(t, data.ID)
		assert.Equal(t, isbn, data.ISBN)
		require.NotNil(t, data.Price)
		assert.Equal(t, int64(8900), *data.Price)
		assert.Equal(t, 100, data.Stock)

		t.Logf("✓ 上架成功,图书ID: %d", data.ID)
	})

	t.Run("未定价且使用默认库存", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/books", map[string]any{
			"isbn":   GenerateTestISBN(),
			"title":  "《未定价图书》",
			"author": "测试作者",
		}, admin)
		require.Equal(t, 0, resp.Code, "上架应该成功: %s", resp.Message)

		var data BookData
		resp.Decode(t, &data)
		assert.Nil(t, data.Price, "未传price应该是未定价")
		assert.Equal(t, 5, data.Stock, "未传stock应该使用默认库存")

		detail := GetBook(t, data.ID)
		assert.Nil(t, detail.Price)
		assert.Equal(t, 5, detail.Stock)
	})

	t.Run("顾客不能上架", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/books", map[string]any{
			"isbn":   GenerateTestISBN(),
			"title":  "《测试图书》",
			"author": "测试作者",
		}, customer)
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.NotEqual(t, 0, resp.Code)

		t.Logf("✓ 顾客正确被拒绝: %s", resp.Message)
	})

	t.Run("未登录不能上架", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/books", map[string]any{
			"isbn":   GenerateTestISBN(),
			"title":  "《测试图书》",
			"author": "测试作者",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
		assert.NotEqual(t, 0, resp.Code)
	})

	t.Run("ISBN重复应失败", func(t *testing.T) {
		isbn := GenerateTestISBN()
		book := map[string]any{"isbn": isbn, "title": "《图书A》", "author": "作者A"}

		resp := PostJSON(t, BaseURL+"/books", book, admin)
		require.Equal(t, 0, resp.Code, "第一次上架应该成功: %s", resp.Message)

		book["title"] = "《图书B》"
		resp = PostJSON(t, BaseURL+"/books", book, admin)
		assert.NotEqual(t, 0, resp.Code, "重复ISBN应该失败")
		assert.Contains(t, resp.Message, "ISBN")
	})

	t.Run("ISBN格式错误应失败", func(t *testing.T) {
		for _, isbn := range []string{"123", "abc123def456", "978711154742", "97871115474299"} {
			resp := PostJSON(t, BaseURL+"/books", map[string]any{
				"isbn":   isbn,
				"title":  "《测试图书》",
				"author": "测试作者",
			}, admin)
			assert.NotEqual(t, 0, resp.Code, "无效ISBN应该失败: %s", isbn)
			assert.Contains(t, resp.Message, "ISBN")
		}
	})

	t.Run("价格和库存范围验证", func(t *testing.T) {
		testCases := []struct {
			field      string
			value      int64
			shouldFail bool
		}{
			{"price", -100, true},
			{"price", 0, false},
			{"price", 999999, false},
			{"price", 1000000, true},
			{"stock", -1, true},
			{"stock", 0, false},
		}

		for _, tc := range testCases {
			resp := PostJSON(t, BaseURL+"/books", map[string]any{
				"isbn":   GenerateTestISBN(),
				"title":  "《范围测试》",
				"author": "测试作者",
				tc.field: tc.value,
			}, admin)

			if tc.shouldFail {
				assert.NotEqual(t, 0, resp.Code, "%s=%d应该失败", tc.field, tc.value)
			} else {
				assert.Equal(t, 0, resp.Code, "%s=%d应该成功: %s", tc.field, tc.value, resp.Message)
			}
		}
	})
}

// TestBookList 测试图书列表查询功能
// 每次运行使用唯一标记作为关键词,只断言本次上架的图书
func TestBookList(t *testing.T) {
	admin := AdminToken(t)
	tag := fmt.Sprintf("tag%d", time.Now().UnixNano())

	cheap := PublishTestBook(t, admin, tag+" 代码整洁之道", tag+" Craft", 5900, 8)
	mid := PublishTestBook(t, admin, tag+" 重构", tag+" Craft, Refactoring", 6900, 8)
	pricey := PublishTestBook(t, admin, tag+" Go并发编程", "Programming", 9900, 8)

	t.Run("关键词搜索", func(t *testing.T) {
		data := listBooks(t, url.Values{"keyword": {tag}, "sort_by": {"price_asc"}})
		assert.Equal(t, int64(3), data.Total)
		assert.Equal(t, []uint{cheap, mid, pricey}, bookIDs(data.List))
	})

	t.Run("类型过滤(子串匹配)", func(t *testing.T) {
		data := listBooks(t, url.Values{"genre": {tag + " craft"}, "sort_by": {"price_asc"}})
		assert.Equal(t, []uint{cheap, mid}, bookIDs(data.List))
	})

	t.Run("价格区间", func(t *testing.T) {
		data := listBooks(t, url.Values{"keyword": {tag}, "min_price": {"6000"}, "max_price": {"9900"}, "sort_by": {"price_asc"}})
		assert.Equal(t, []uint{mid, pricey}, bookIDs(data.List))
	})

	t.Run("价格降序", func(t *testing.T) {
		data := listBooks(t, url.Values{"keyword": {tag}, "sort_by": {"price_desc"}})
		assert.Equal(t, []uint{pricey, mid, cheap}, bookIDs(data.List))
	})

	t.Run("分页", func(t *testing.T) {
		data := listBooks(t, url.Values{"keyword": {tag}, "sort_by": {"price_asc"}, "page": {"2"}, "page_size": {"2"}})
		assert.Equal(t, int64(3), data.Total)
		assert.Equal(t, 2, data.Page)
		assert.Equal(t, 2, data.PageSize)
		assert.Equal(t, []uint{pricey}, bookIDs(data.List))
	})

	t.Run("参数边界测试", func(t *testing.T) {
		testCases := []struct {
			params     string
			shouldFail bool
		}{
			{"page=0", true},
			{"page_size=0", true},
			{"page_size=101", true},
			{"sort_by=random", true},
			{"min_price=-1", true},
			{"page_size=100", false},
			{"page=1&page_size=1", false},
		}

		for _, tc := range testCases {
			resp := GetJSON(t, BaseURL+"/books?"+tc.params, "")
			if tc.shouldFail {
				assert.NotEqual(t, 0, resp.Code, "%s应该失败", tc.params)
			} else {
				assert.Equal(t, 0, resp.Code, "%s应该成功: %s", tc.params, resp.Message)
			}
		}
	})
}

// TestBookDelete 测试图书下架
func TestBookDelete(t *testing.T) {
	admin := AdminToken(t)
	_, customer := RegisterTestUser(t, "book_deleter")
	id := PublishTestBook(t, admin, "《下架测试》", "Fantasy", 3000, 5)
	path := fmt.Sprintf("%s/books/%d", BaseURL, id)

	resp := Delete(t, path, customer)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = Delete(t, path, admin)
	require.Equal(t, 0, resp.Code, "下架应该成功: %s", resp.Message)

	resp = GetJSON(t, path, "")
	assert.Equal(t, 40402, resp.Code, "下架后查询应该返回图书不存在")

	resp = Delete(t, path, admin)
	assert.Equal(t, 40402, resp.Code)
}

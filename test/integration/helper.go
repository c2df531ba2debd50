//go:build integration

// Package integration 针对运行中服务的端到端测试
//
// 运行方式:
//
//	BOOKSHELF_ADMIN_EMAIL=admin@example.com BOOKSHELF_ADMIN_PASSWORD=... go test -tags integration ./test/integration/...
//
// 服务需以相同的admin配置启动,否则上架图书的用例会被跳过。
package integration

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// Timeout HTTP请求超时时间
const Timeout = 10 * time.Second

// BaseURL API基础URL,可用BOOKSHELF_BASE_URL覆盖
var BaseURL = envOr("BOOKSHELF_BASE_URL", "http://localhost:8080") + "/api/v1"

var client = &http.Client{Timeout: Timeout}

// seq 同一进程内生成唯一邮箱、ISBN
var seq atomic.Int64

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Response 统一响应结构
type Response struct {
	Status  int             `json:"-"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode 解析data字段
func (r *Response) Decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst), "解析data失败: %s", string(r.Data))
}

// LoginData 登录响应数据
type LoginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// BookData 图书响应数据
type BookData struct {
	ID    uint   `json:"id"`
	ISBN  string `json:"isbn"`
	Title string `json:"title"`
	Genre string `json:"genre"`
	Price *int64 `json:"price"`
	Stock int    `json:"stock"`
}

// CartData 购物车响应数据
type CartData struct {
	Lines []struct {
		BookID   uint `json:"book_id"`
		Quantity int  `json:"quantity"`
	} `json:"lines"`
	Count int   `json:"count"`
	Total int64 `json:"total"`
}

// CheckoutData 结算响应数据
type CheckoutData struct {
	Status     string `json:"status"`
	MovedCount int    `json:"moved_count"`
	Shortages  []struct {
		BookID    uint `json:"book_id"`
		Needed    int  `json:"needed"`
		Available int  `json:"available"`
	} `json:"shortages"`
}

// HistoryData 购买记录响应数据
type HistoryData struct {
	Items []struct {
		BookID   uint `json:"book_id"`
		Quantity int  `json:"quantity"`
	} `json:"items"`
	Count int `json:"count"`
}

// RecommendData 推荐响应数据
type RecommendData struct {
	Limit int `json:"limit"`
	List  []struct {
		BookID uint   `json:"book_id"`
		Genre  string `json:"genre"`
	} `json:"list"`
}

// Do 发送请求并解析统一响应,body为nil时不带请求体
func Do(t *testing.T, method, url string, body any, token string) *Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "JSON序列化失败")
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err, "创建HTTP请求失败")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败,服务是否已启动?")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	result := Response{Status: resp.StatusCode}
	require.NoError(t, json.Unmarshal(raw, &result), "解析JSON响应失败: %s", string(raw))
	return &result
}

// PostJSON 发送POST请求
func PostJSON(t *testing.T, url string, body any, token string) *Response {
	t.Helper()
	return Do(t, http.MethodPost, url, body, token)
}

// GetJSON 发送GET请求
func GetJSON(t *testing.T, url, token string) *Response {
	t.Helper()
	return Do(t, http.MethodGet, url, nil, token)
}

// Delete 发送DELETE请求
func Delete(t *testing.T, url, token string) *Response {
	t.Helper()
	return Do(t, http.MethodDelete, url, nil, token)
}

// GenerateTestEmail 生成唯一的测试邮箱
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%d@test.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// GenerateTestISBN 生成唯一的13位ISBN(不做校验位计算,服务只校验长度和字符)
func GenerateTestISBN() string {
	n := (time.Now().UnixNano() + seq.Add(1)) % 10000000000
	return fmt.Sprintf("978%010d", n)
}

// Login 登录并返回Access Token
func Login(t *testing.T, email, password string) string {
	t.Helper()
	resp := PostJSON(t, BaseURL+"/users/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, 0, resp.Code, "登录失败: %s", resp.Message)

	var data LoginData
	resp.Decode(t, &data)
	return data.AccessToken
}

// RegisterTestUser 注册测试用户并登录,返回邮箱和Token
func RegisterTestUser(t *testing.T, nickname string) (email, token string) {
	t.Helper()
	email = GenerateTestEmail(nickname)
	resp := PostJSON(t, BaseURL+"/users/register", map[string]string{
		"email":    email,
		"password": "Test1234",
		"nickname": nickname,
	}, "")
	require.Equal(t, 0, resp.Code, "注册失败: %s", resp.Message)

	return email, Login(t, email, "Test1234")
}

// AdminToken 用环境变量中的管理员账号登录,未配置时跳过测试
func AdminToken(t *testing.T) string {
	t.Helper()
	email, password := os.Getenv("BOOKSHELF_ADMIN_EMAIL"), os.Getenv("BOOKSHELF_ADMIN_PASSWORD")
	if email == "" || password == "" {
		t.Skip("未配置BOOKSHELF_ADMIN_EMAIL/BOOKSHELF_ADMIN_PASSWORD")
	}
	return Login(t, email, password)
}

// PublishTestBook 上架测试图书并返回图书ID
func PublishTestBook(t *testing.T, adminToken, title, genre string, price int64, stock int) uint {
	t.Helper()
	resp := PostJSON(t, BaseURL+"/books", map[string]any{
		"isbn":      GenerateTestISBN(),
		"title":     title,
		"author":    "测试作者",
		"publisher": "测试出版社",
		"genre":     genre,
		"price":     price,
		"stock":     stock,
	}, adminToken)
	require.Equal(t, 0, resp.Code, "图书上架失败: %s", resp.Message)

	var data BookData
	resp.Decode(t, &data)
	return data.ID
}

// AddToCart 加入一本书
func AddToCart(t *testing.T, token string, bookID uint) {
	t.Helper()
	resp := PostJSON(t, BaseURL+"/cart/items", map[string]uint{"book_id": bookID}, token)
	require.Equal(t, 0, resp.Code, "加入购物车失败: %s", resp.Message)
}

// GetBook 查询图书详情
func GetBook(t *testing.T, id uint) BookData {
	t.Helper()
	resp := GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, id), "")
	require.Equal(t, 0, resp.Code, "查询图书失败: %s", resp.Message)

	var data BookData
	resp.Decode(t, &data)
	return data
}

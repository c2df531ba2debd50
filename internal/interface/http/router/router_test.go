package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	appcart "github.com/xiebiao/bookshelf/internal/application/cart"
	appcheckout "github.com/xiebiao/bookshelf/internal/application/checkout"
	apppurchase "github.com/xiebiao/bookshelf/internal/application/purchase"
	apprecommend "github.com/xiebiao/bookshelf/internal/application/recommend"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/lock"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validator.Register(); err != nil {
		panic(err)
	}
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine   *gin.Engine
	register *appuser.RegisterUseCase
}

// newTestServer 用内存存储组装完整的路由
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	locker := lock.NewKeyedMutex()
	userRepo := memory.NewUserRepository(store)
	bookRepo := memory.NewBookRepository(store)
	cartRepo := memory.NewCartRepository(store)
	purchaseRepo := memory.NewPurchaseRepository(store)
	sessions := memory.NewSessionStore()
	jwtManager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	publisher := messaging.NoopPublisher{}

	userService := user.NewServiceWithCost(userRepo, bcrypt.MinCost)
	bookService := book.NewService(bookRepo)
	register := appuser.NewRegisterUseCase(txManager, userService, userRepo, cartRepo, purchaseRepo)

	h := Handlers{
		User: handler.NewUserHandler(
			register,
			appuser.NewLoginUseCase(userService, jwtManager, sessions),
			appuser.NewLogoutUseCase(sessions),
			appuser.NewRefreshUseCase(userRepo, jwtManager, sessions),
			appuser.NewDeleteAccountUseCase(locker, userRepo, cartRepo, purchaseRepo, sessions, publisher),
		),
		Book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(bookService),
			appbook.NewGetBookUseCase(bookService),
			appbook.NewListBooksUseCase(bookService),
			appbook.NewDeleteBookUseCase(bookService),
		),
		Cart: handler.NewCartHandler(
			appcart.NewViewCartUseCase(cartRepo),
			appcart.NewAddToCartUseCase(txManager, locker, cartRepo, bookRepo),
			appcart.NewRemoveFromCartUseCase(txManager, locker, cartRepo),
		),
		Checkout: handler.NewCheckoutHandler(
			appcheckout.NewCheckoutUseCase(txManager, locker, cartRepo, bookRepo, purchaseRepo, publisher),
		),
		History: handler.NewHistoryHandler(
			apppurchase.NewListHistoryUseCase(purchaseRepo),
			apppurchase.NewRemoveFromHistoryUseCase(txManager, locker, purchaseRepo),
		),
		Recommend: handler.NewRecommendHandler(apprecommend.NewRecommendUseCase(bookRepo, purchaseRepo, nil, 0), 10, 50),
	}
	auth := middleware.NewAuthMiddleware(jwtManager, sessions)
	engine := New(h, auth, middleware.NewRateLimiter(100, 100), Options{MetricsPath: "/metrics"})
	return &testServer{engine: engine, register: register}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, 0, resp.Code, resp.Message)
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.AccessToken
}

func (s *testServer) publish(t *testing.T, token string, body gin.H) uint {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/books", token, body)
	require.Equal(t, 0, resp.Code, resp.Message)
	var data struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.ID
}

func TestShoppingFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	// 管理员上架两本Fantasy
	_, err := s.register.EnsureAdmin(ctx, appuser.RegisterRequest{Email: "admin@example.com", Password: "admin1234", Nickname: "admin"})
	require.NoError(t, err)
	admin := s.login(t, "admin@example.com", "admin1234")
	hobbit := s.publish(t, admin, gin.H{"isbn": "9787115428028", "title": "The Hobbit", "author": "Tolkien", "genre": "Fantasy", "price": 3000, "stock": 1})
	earthsea := s.publish(t, admin, gin.H{"isbn": "9787111213826", "title": "Earthsea", "author": "Le Guin", "genre": "Fantasy, Adventure", "price": 5000})

	// 顾客注册登录
	resp := s.do(t, http.MethodPost, "/api/v1/users/register", "", gin.H{"email": "alice@example.com", "password": "secret123", "nickname": "alice"})
	require.Equal(t, 0, resp.Code, resp.Message)
	alice := s.login(t, "alice@example.com", "secret123")

	// 顾客不能上架
	resp = s.do(t, http.MethodPost, "/api/v1/books", alice, gin.H{"isbn": "9787020002207", "title": "x", "author": "y"})
	assert.Equal(t, apperrors.ErrCodeForbidden, resp.Code)

	// 空购物车结算
	resp = s.do(t, http.MethodPost, "/api/v1/checkout", alice, nil)
	require.Equal(t, 0, resp.Code)
	assert.JSONEq(t, `{"status":"empty","moved_count":0}`, string(resp.Data))

	// 同一本书加两次,库存只有1本
	for range 2 {
		resp = s.do(t, http.MethodPost, "/api/v1/cart/items", alice, gin.H{"book_id": hobbit})
		require.Equal(t, 0, resp.Code, resp.Message)
	}
	resp = s.do(t, http.MethodPost, "/api/v1/checkout", alice, nil)
	assert.Equal(t, apperrors.ErrCodeInsufficientStock, resp.Code)
	var result appcheckout.Result
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, appcheckout.StatusInsufficientStock, result.Status)
	require.Len(t, result.Shortages, 1)
	assert.Equal(t, 2, result.Shortages[0].Needed)
	assert.Equal(t, 1, result.Shortages[0].Available)

	// 移除一本后结算成功
	resp = s.do(t, http.MethodDelete, "/api/v1/cart/items/"+itoa(hobbit), alice, nil)
	require.Equal(t, 0, resp.Code, resp.Message)
	resp = s.do(t, http.MethodPost, "/api/v1/checkout", alice, nil)
	require.Equal(t, 0, resp.Code, resp.Message)
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, appcheckout.StatusOK, result.Status)
	assert.Equal(t, 1, result.MovedCount)

	// 购买记录
	resp = s.do(t, http.MethodGet, "/api/v1/history", alice, nil)
	var history apppurchase.HistoryView
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, hobbit, history.Items[0].BookID)

	// 库存已扣减
	resp = s.do(t, http.MethodGet, "/api/v1/books/"+itoa(hobbit), "", nil)
	var detail struct {
		Stock int `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, 0, detail.Stock)

	// 推荐同类型且未购买的书
	resp = s.do(t, http.MethodGet, "/api/v1/recommendations?limit=5", alice, nil)
	require.Equal(t, 0, resp.Code, resp.Message)
	var recs struct {
		List []apprecommend.Recommendation `json:"list"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &recs))
	require.Len(t, recs.List, 1)
	assert.Equal(t, earthsea, recs.List[0].BookID)

	// 登出后Token失效
	resp = s.do(t, http.MethodPost, "/api/v1/users/logout", alice, nil)
	require.Equal(t, 0, resp.Code)
	resp = s.do(t, http.MethodGet, "/api/v1/cart", alice, nil)
	assert.Equal(t, apperrors.ErrCodeTokenExpired, resp.Code)
}

func TestBindErrors(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/v1/users/register", "", gin.H{"email": "bad", "password": "secret123", "nickname": "al"})
	assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)

	resp = s.do(t, http.MethodGet, "/api/v1/books?sort_by=random", "", nil)
	assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)

	resp = s.do(t, http.MethodGet, "/api/v1/books/abc", "", nil)
	assert.Equal(t, apperrors.ErrCodeBindError, resp.Code)

	resp = s.do(t, http.MethodGet, "/api/v1/books/99", "", nil)
	assert.Equal(t, apperrors.ErrCodeBookNotFound, resp.Code)

	resp = s.do(t, http.MethodPost, "/api/v1/users/register", "", gin.H{"email": "carol@example.com", "password": "secret123", "nickname": "carol"})
	require.Equal(t, 0, resp.Code, resp.Message)
	carol := s.login(t, "carol@example.com", "secret123")
	for _, q := range []string{"limit=0", "limit=-1", "limit=abc"} {
		resp = s.do(t, http.MethodGet, "/api/v1/recommendations?"+q, carol, nil)
		assert.NotEqual(t, 0, resp.Code, q)
	}
	resp = s.do(t, http.MethodGet, "/api/v1/recommendations?limit=0", carol, nil)
	assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
}

func TestDeleteBook_CheckoutFails(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.register.EnsureAdmin(ctx, appuser.RegisterRequest{Email: "admin@example.com", Password: "admin1234", Nickname: "admin"})
	require.NoError(t, err)
	admin := s.login(t, "admin@example.com", "admin1234")
	kept := s.publish(t, admin, gin.H{"isbn": "9787115428028", "title": "Kept", "author": "a", "genre": "Fantasy", "price": 3000, "stock": 3})
	gone := s.publish(t, admin, gin.H{"isbn": "9787111213826", "title": "Gone", "author": "b", "genre": "Fantasy", "price": 5000, "stock": 3})

	resp := s.do(t, http.MethodPost, "/api/v1/users/register", "", gin.H{"email": "alice@example.com", "password": "secret123", "nickname": "alice"})
	require.Equal(t, 0, resp.Code, resp.Message)
	alice := s.login(t, "alice@example.com", "secret123")
	for _, id := range []uint{kept, gone} {
		resp = s.do(t, http.MethodPost, "/api/v1/cart/items", alice, gin.H{"book_id": id})
		require.Equal(t, 0, resp.Code, resp.Message)
	}

	// 顾客不能下架
	resp = s.do(t, http.MethodDelete, "/api/v1/books/"+itoa(gone), alice, nil)
	assert.Equal(t, apperrors.ErrCodeForbidden, resp.Code)

	resp = s.do(t, http.MethodDelete, "/api/v1/books/"+itoa(gone), admin, nil)
	require.Equal(t, 0, resp.Code, resp.Message)
	resp = s.do(t, http.MethodGet, "/api/v1/books/"+itoa(gone), "", nil)
	assert.Equal(t, apperrors.ErrCodeBookNotFound, resp.Code)
	resp = s.do(t, http.MethodDelete, "/api/v1/books/"+itoa(gone), admin, nil)
	assert.Equal(t, apperrors.ErrCodeBookNotFound, resp.Code)

	// 购物车中含已下架图书,结算失败
	resp = s.do(t, http.MethodPost, "/api/v1/checkout", alice, nil)
	assert.Equal(t, apperrors.ErrCodeBookNotFound, resp.Code)

	// 什么都没有改:购物车保留两行,购买记录为空,库存不变
	resp = s.do(t, http.MethodGet, "/api/v1/cart", alice, nil)
	require.Equal(t, 0, resp.Code, resp.Message)
	var view appcart.View
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view.Lines, 2)
	assert.Equal(t, kept, view.Lines[0].BookID)
	assert.False(t, view.Lines[0].Removed)
	assert.Equal(t, gone, view.Lines[1].BookID)
	assert.True(t, view.Lines[1].Removed)

	resp = s.do(t, http.MethodGet, "/api/v1/history", alice, nil)
	var history apppurchase.HistoryView
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	assert.Empty(t, history.Items)

	resp = s.do(t, http.MethodGet, "/api/v1/books/"+itoa(kept), "", nil)
	var detail struct {
		Stock int `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, 3, detail.Stock)

	// 移除已下架图书后可以结算
	resp = s.do(t, http.MethodDelete, "/api/v1/cart/items/"+itoa(gone), alice, nil)
	require.Equal(t, 0, resp.Code, resp.Message)
	resp = s.do(t, http.MethodPost, "/api/v1/checkout", alice, nil)
	require.Equal(t, 0, resp.Code, resp.Message)
}

func TestDeleteMe(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/v1/users/register", "", gin.H{"email": "bob@example.com", "password": "secret123", "nickname": "bob"})
	require.Equal(t, 0, resp.Code, resp.Message)
	token := s.login(t, "bob@example.com", "secret123")

	resp = s.do(t, http.MethodDelete, "/api/v1/users/me", token, nil)
	require.Equal(t, 0, resp.Code, resp.Message)

	resp = s.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "bob@example.com", "password": "secret123"})
	assert.Equal(t, apperrors.ErrCodeInvalidPassword, resp.Code)
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/lock"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/jwt"
)

type recordingPublisher struct{ events []any }

func (p *recordingPublisher) Publish(_ context.Context, _ string, e any) error {
	p.events = append(p.events, e)
	return nil
}

// failingUserRepo 删除用户时失败,用于验证Saga补偿
type failingUserRepo struct {
	user.Repository
}

func (failingUserRepo) Delete(context.Context, uint) error {
	return errors.New("db down")
}

type fixture struct {
	store     *memory.Store
	users     *memory.UserRepository
	carts     *memory.CartRepository
	histories *memory.PurchaseRepository
	books     *memory.BookRepository
	sessions  *memory.SessionStore
	jwt       *jwt.Manager
	publisher *recordingPublisher

	register *RegisterUseCase
	login    *LoginUseCase
	logout   *LogoutUseCase
	refresh  *RefreshUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:     store,
		users:     memory.NewUserRepository(store),
		carts:     memory.NewCartRepository(store),
		histories: memory.NewPurchaseRepository(store),
		books:     memory.NewBookRepository(store),
		sessions:  memory.NewSessionStore(),
		jwt:       jwt.NewManager("test-secret", time.Hour, 24*time.Hour),
		publisher: &recordingPublisher{},
	}
	svc := user.NewServiceWithCost(f.users, bcrypt.MinCost)
	f.register = NewRegisterUseCase(memory.NewTxManager(store), svc, f.users, f.carts, f.histories)
	f.login = NewLoginUseCase(svc, f.jwt, f.sessions)
	f.logout = NewLogoutUseCase(f.sessions)
	f.refresh = NewRefreshUseCase(f.users, f.jwt, f.sessions)
	return f
}

func (f *fixture) deleteUseCase(users user.Repository) *DeleteAccountUseCase {
	return NewDeleteAccountUseCase(lock.NewKeyedMutex(), users, f.carts, f.histories, f.sessions, f.publisher)
}

var alice = RegisterRequest{Email: "alice@example.com", Password: "secret123", Nickname: "alice"}

func TestRegister_CreatesCartAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.register.Execute(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER", info.Role)

	c, err := f.carts.FindByUserID(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = f.register.Execute(ctx, alice)
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)

	_, err = f.register.Execute(ctx, RegisterRequest{Email: "bad", Password: "secret123", Nickname: "bob"})
	assert.Equal(t, apperrors.ErrCodeInvalidParams, apperrors.CodeOf(err))

	_, err = f.register.Execute(ctx, RegisterRequest{Email: "bob@example.com", Password: "short", Nickname: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.register.EnsureAdmin(ctx, RegisterRequest{Email: "root@example.com", Password: "admin1234", Nickname: "root"})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", info.Role)

	// 已有顾客账号被提升为管理员
	_, err = f.register.Execute(ctx, alice)
	require.NoError(t, err)
	info, err = f.register.EnsureAdmin(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", info.Role)
	u, err := f.users.FindByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestLoginLogoutRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.register.Execute(ctx, alice)
	require.NoError(t, err)

	_, err = f.login.Execute(ctx, LoginRequest{Email: alice.Email, Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
	_, err = f.login.Execute(ctx, LoginRequest{Email: "nobody@example.com", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword, "不区分用户不存在和密码错误")

	resp, err := f.login.Execute(ctx, LoginRequest{Email: alice.Email, Password: alice.Password, ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	claims, err := f.jwt.ParseAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER", claims.Role)

	session, err := f.sessions.GetSession(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", session["ip"])

	refreshed, err := f.refresh.Execute(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, int64(3600), refreshed.ExpiresIn)

	require.NoError(t, f.logout.Execute(ctx, resp.User.ID, resp.AccessToken, jwt.RemainingTTL(claims)))
	blacklisted, err := f.sessions.IsInBlacklist(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	_, err = f.refresh.Execute(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "登出后不能再刷新")
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info, err := f.register.Execute(ctx, alice)
	require.NoError(t, err)

	err = f.deleteUseCase(f.users).Execute(ctx, info.ID, "token", time.Minute)
	require.NoError(t, err)

	_, err = f.users.FindByID(ctx, info.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	_, err = f.carts.FindByUserID(ctx, info.ID)
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
	blacklisted, _ := f.sessions.IsInBlacklist(ctx, "token")
	assert.True(t, blacklisted)
	assert.Len(t, f.publisher.events, 1)

	// 再次注销得到用户不存在
	err = f.deleteUseCase(f.users).Execute(ctx, info.ID, "token", time.Minute)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestDeleteAccount_CompensatesOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info, err := f.register.Execute(ctx, alice)
	require.NoError(t, err)

	b := book.NewBook("9787115428028", "Go", "A", "P", "Programming", nil, nil)
	require.NoError(t, f.books.Create(ctx, b))
	c, _ := f.carts.FindByUserID(ctx, info.ID)
	c.Add(b)
	c.Add(b)
	require.NoError(t, f.carts.Save(ctx, c))
	h, _ := f.histories.GetOrCreate(ctx, info.ID)
	h.Add(b)
	require.NoError(t, f.histories.Save(ctx, h))

	err = f.deleteUseCase(failingUserRepo{f.users}).Execute(ctx, info.ID, "token", time.Minute)
	require.Error(t, err)

	// 购物车和购买记录已恢复
	c, err = f.carts.FindByUserID(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count(b.ID))
	h, err = f.histories.GetOrCreate(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, h.Owns(b.ID))
	_, err = f.users.FindByID(ctx, info.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.publisher.events)
}

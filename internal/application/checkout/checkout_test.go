package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/application/event"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/internal/infrastructure/lock"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// failingPurchaseRepo 保存购买记录时失败,用于验证事务回滚
type failingPurchaseRepo struct {
	purchase.Repository
}

func (failingPurchaseRepo) Save(context.Context, *purchase.History) error {
	return apperrors.WrapCode(errors.New("disk full"), apperrors.ErrCodeDatabaseError, "数据库错误")
}

// slowTxManager 不加全局锁的事务,fn成功后停留hold再返回
// 停留期间图书锁仍由结算持有,用来观察图书锁的并发度
type slowTxManager struct {
	hold time.Duration

	mu        sync.Mutex
	active    int
	maxActive int
}

func (m *slowTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.active++
	m.maxActive = max(m.maxActive, m.active)
	m.mu.Unlock()

	time.Sleep(m.hold)

	m.mu.Lock()
	m.active--
	m.mu.Unlock()
	return nil
}

func (m *slowTxManager) peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

type fixture struct {
	store     *memory.Store
	books     *memory.BookRepository
	carts     *memory.CartRepository
	histories *memory.PurchaseRepository
	publisher *recordingPublisher
	uc        *CheckoutUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:     store,
		books:     memory.NewBookRepository(store),
		carts:     memory.NewCartRepository(store),
		histories: memory.NewPurchaseRepository(store),
		publisher: &recordingPublisher{},
	}
	f.uc = NewCheckoutUseCase(memory.NewTxManager(store), lock.NewKeyedMutex(), f.carts, f.books, f.histories, f.publisher)
	return f
}

func (f *fixture) addBook(t *testing.T, title string, stock int) uint {
	t.Helper()
	b := &book.Book{ISBN: title, Title: title, Genre: "Fiction", Stock: stock}
	require.NoError(t, f.books.Create(context.Background(), b))
	return b.ID
}

// fillCart 为用户创建购物车,ids中重复的ID表示多本
func (f *fixture) fillCart(t *testing.T, userID uint, ids ...uint) {
	t.Helper()
	ctx := context.Background()
	c := cart.NewCart(userID)
	for _, id := range ids {
		c.Add(&book.Book{ID: id})
	}
	require.NoError(t, f.carts.Create(ctx, cart.NewCart(userID)))
	require.NoError(t, f.carts.Save(ctx, c))
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	b, err := f.books.FindByID(context.Background(), id)
	require.NoError(t, err)
	return b.Stock
}

func (f *fixture) cartLen(t *testing.T, userID uint) int {
	t.Helper()
	c, err := f.carts.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	return c.Len()
}

func (f *fixture) historyIDs(t *testing.T, userID uint) []uint {
	t.Helper()
	h, err := f.histories.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	ids := make([]uint, 0, len(h.Items))
	for _, b := range h.Items {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 5)
	b := f.addBook(t, "B", 1)
	f.fillCart(t, 1, b, a, a)

	res, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 3, res.MovedCount)
	assert.NotEmpty(t, res.CheckoutID)
	assert.Equal(t, 3, f.stock(t, a))
	assert.Equal(t, 0, f.stock(t, b))
	assert.Equal(t, 0, f.cartLen(t, 1))
	assert.Equal(t, []uint{b, a, a}, f.historyIDs(t, 1), "购买记录保持购物车顺序")

	require.Len(t, f.publisher.events, 1)
	evt := f.publisher.events[0].(event.CheckoutCompleted)
	assert.Equal(t, res.CheckoutID, evt.CheckoutID)
	assert.Equal(t, []event.ItemQuantity{{BookID: b, Quantity: 1}, {BookID: a, Quantity: 2}}, evt.Items)
}

func TestCheckout_AppendsToExistingHistory(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 5)
	f.fillCart(t, 1, a)
	_, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	f.fillCart(t, 1, a)
	_, err = f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []uint{a, a}, f.historyIDs(t, 1))
	assert.Equal(t, 3, f.stock(t, a))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, 1)

	res, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Zero(t, res.MovedCount)
	assert.Empty(t, f.historyIDs(t, 1))
	assert.Empty(t, f.publisher.events)
}

func TestCheckout_InsufficientStockIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 5)
	b := f.addBook(t, "B", 1)
	c := f.addBook(t, "C", 0)
	f.fillCart(t, 1, a, b, b, c)

	res, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, StatusInsufficientStock, res.Status)
	assert.Equal(t, []Shortage{
		{BookID: b, Title: "B", Needed: 2, Available: 1},
		{BookID: c, Title: "C", Needed: 1, Available: 0},
	}, res.Shortages)

	// 没有任何修改
	assert.Equal(t, 5, f.stock(t, a))
	assert.Equal(t, 1, f.stock(t, b))
	assert.Equal(t, 4, f.cartLen(t, 1))
	assert.Empty(t, f.historyIDs(t, 1))
	assert.Empty(t, f.publisher.events)
}

func TestCheckout_DeletedBook(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 5)
	gone := f.addBook(t, "Gone", 5)
	f.fillCart(t, 1, a, gone)
	require.NoError(t, f.books.Delete(context.Background(), gone))

	_, err := f.uc.Execute(context.Background(), 1)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
	assert.Equal(t, apperrors.ErrCodeBookNotFound, apperrors.CodeOf(err))

	assert.Equal(t, 5, f.stock(t, a))
	assert.Equal(t, 2, f.cartLen(t, 1))
}

func TestCheckout_PersistenceFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 5)
	f.fillCart(t, 1, a, a)

	uc := NewCheckoutUseCase(memory.NewTxManager(f.store), lock.NewKeyedMutex(),
		f.carts, f.books, failingPurchaseRepo{f.histories}, f.publisher)

	_, err := uc.Execute(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.CodeOf(err))

	assert.Equal(t, 5, f.stock(t, a), "库存扣减已回滚")
	assert.Equal(t, 2, f.cartLen(t, 1))
	assert.Empty(t, f.historyIDs(t, 1))
}

func TestCheckout_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	a := f.addBook(t, "A", 1)
	f.fillCart(t, 1, a)

	res, err := f.uc.Execute(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
}

func TestCheckout_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Execute(context.Background(), 42)
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

// 多个用户并发抢购同一本书,最终售出数量不超过库存
func TestCheckout_ConcurrentNoOversell(t *testing.T) {
	f := newFixture(t)
	const users = 20
	hot := f.addBook(t, "Hot", 7)
	for u := uint(1); u <= users; u++ {
		f.fillCart(t, u, hot)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, out int
	)
	for u := uint(1); u <= users; u++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			res, err := f.uc.Execute(context.Background(), userID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch res.Status {
			case StatusOK:
				ok++
			case StatusInsufficientStock:
				out++
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 7, ok)
	assert.Equal(t, users-7, out)
	assert.Equal(t, 0, f.stock(t, hot))
}

// 同一用户并发结算:只有一次真正移动了图书
func TestCheckout_SameUserSerialized(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 10)
	f.fillCart(t, 1, a, a)

	var wg sync.WaitGroup
	results := make([]*Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.uc.Execute(context.Background(), 1)
			if assert.NoError(t, err) {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	moved := 0
	for _, r := range results {
		if r != nil {
			moved += r.MovedCount
		}
	}
	assert.Equal(t, 2, moved)
	assert.Equal(t, 8, f.stock(t, a))
	assert.Len(t, f.historyIDs(t, 1), 2)
}

// checkoutConcurrently 用户1..n同时结算,返回事务并发峰值
func checkoutConcurrently(t *testing.T, f *fixture, txm *slowTxManager, users int) int {
	t.Helper()
	uc := NewCheckoutUseCase(txm, lock.NewKeyedMutex(), f.carts, f.books, f.histories, f.publisher)

	var wg sync.WaitGroup
	for i := 1; i <= users; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			res, err := uc.Execute(context.Background(), userID)
			if assert.NoError(t, err) {
				assert.Equal(t, StatusOK, res.Status)
			}
		}(uint(i))
	}
	wg.Wait()
	return txm.peak()
}

func TestCheckout_DisjointBooksRunInParallel(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 1)
	b := f.addBook(t, "B", 1)
	f.fillCart(t, 1, a)
	f.fillCart(t, 2, b)

	txm := &slowTxManager{hold: 200 * time.Millisecond}
	peak := checkoutConcurrently(t, f, txm, 2)

	assert.Equal(t, 2, peak)
	assert.Equal(t, 0, f.stock(t, a))
	assert.Equal(t, 0, f.stock(t, b))
}

func TestCheckout_SameBookSerialized(t *testing.T) {
	f := newFixture(t)
	a := f.addBook(t, "A", 2)
	f.fillCart(t, 1, a)
	f.fillCart(t, 2, a)

	txm := &slowTxManager{hold: 100 * time.Millisecond}
	start := time.Now()
	peak := checkoutConcurrently(t, f, txm, 2)

	assert.Equal(t, 1, peak)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, 0, f.stock(t, a))
	assert.Equal(t, []uint{a}, f.historyIDs(t, 1))
	assert.Equal(t, []uint{a}, f.historyIDs(t, 2))
}

func TestClassify(t *testing.T) {
	lockErr := apperrors.WrapCode(context.DeadlineExceeded, apperrors.ErrCodeLockTimeout, "系统繁忙")
	assert.Same(t, lockErr, classify(lockErr))

	assert.ErrorIs(t, classify(book.ErrBookNotFound), book.ErrBookNotFound)
	assert.NotErrorIs(t, classify(book.ErrBookNotFound), ErrPersistence)

	raw := errors.New("io error")
	wrapped := classify(raw)
	assert.ErrorIs(t, wrapped, ErrPersistence)
	assert.ErrorIs(t, wrapped, raw)
}

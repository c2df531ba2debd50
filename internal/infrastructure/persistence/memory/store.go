// Package memory 进程内存储实现
//
// 设计说明:
// 1. 一个Store承载全部聚合(用户、图书、购物车、购买记录),用于开发环境和测试
// 2. 事务通过写锁串行化,并在进入事务时做快照,fn返回错误时整体恢复快照
// 3. 事务内的context带有标记,仓储方法检测到标记后不再重复加锁
// 4. 读写都返回/保存副本,调用方修改实体不会影响存储
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/user"
)

// Store 内存存储
type Store struct {
	mu sync.RWMutex
	state
}

// state 可快照的数据
type state struct {
	nextUserID uint
	nextBookID uint
	users      map[uint]user.User
	books      map[uint]book.Book
	carts      map[uint][]uint // userID -> 按加入顺序的图书ID
	histories  map[uint][]uint // userID -> 按购买顺序的图书ID
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{state: state{
		nextUserID: 1,
		nextBookID: 1,
		users:      make(map[uint]user.User),
		books:      make(map[uint]book.Book),
		carts:      make(map[uint][]uint),
		histories:  make(map[uint][]uint),
	}}
}

func (s state) clone() state {
	cp := s
	cp.users = maps.Clone(s.users)
	cp.books = maps.Clone(s.books)
	cp.carts = cloneIDLists(s.carts)
	cp.histories = cloneIDLists(s.histories)
	return cp
}

func cloneIDLists(m map[uint][]uint) map[uint][]uint {
	out := make(map[uint][]uint, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// ---- 事务感知的加锁 ----

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, ok := ctx.Value(txKey{}).(bool)
	return ok && v
}

func (s *Store) rlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RLock()
	}
}

func (s *Store) runlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Unlock()
	}
}

// TxManager 内存事务管理器
type TxManager struct {
	store *Store
}

// NewTxManager 创建事务管理器
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Transaction 执行事务
// 已经在事务中时直接执行fn(加入外层事务),否则持有写锁并在失败时恢复快照
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snapshot := m.store.state.clone()
	defer func() {
		if r := recover(); r != nil {
			m.store.state = snapshot
			panic(r)
		}
		if err != nil {
			m.store.state = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

// resolveBooks 将图书ID序列还原为图书实体
// 已下架的图书只保留ID,结算时会得到NotFound
func (s *Store) resolveBooks(ids []uint) []*book.Book {
	if len(ids) == 0 {
		return nil
	}
	items := make([]*book.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			cp := b
			items = append(items, &cp)
			continue
		}
		items = append(items, book.Placeholder(id))
	}
	return items
}

func bookIDs(items []*book.Book) []uint {
	ids := make([]uint, 0, len(items))
	for _, b := range items {
		ids = append(ids, b.ID)
	}
	return ids
}

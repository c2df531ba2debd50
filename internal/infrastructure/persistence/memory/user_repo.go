package memory

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// UserRepository 用户仓储的内存实现
type UserRepository struct {
	store *Store
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository 创建用户仓储
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create 创建用户,邮箱重复返回ErrEmailDuplicate
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	for _, existing := range r.store.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.ErrEmailDuplicate
		}
	}

	u.ID = r.store.nextUserID
	r.store.nextUserID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = u.CreatedAt
	r.store.users[u.ID] = *u
	return nil
}

// FindByID 根据ID查询用户
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	u, ok := r.store.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

// FindByEmail 根据邮箱查询用户
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// Update 更新用户
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, ok := r.store.users[u.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	r.store.users[u.ID] = *u
	return nil
}

// Delete 删除用户
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, ok := r.store.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// userRepository 用户仓储(MySQL)
// 邮箱唯一由uniqueIndex保证,Duplicate entry转换为ErrEmailDuplicate
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Create 创建用户,注册时与购物车、购买记录在同一事务中
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := fromUser(u)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrEmailDuplicate
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建用户失败")
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	return r.first(getDB(ctx, r.db).Where("id = ?", id))
}

// FindByEmail 根据邮箱查找用户,列使用默认的_ci排序规则,比较本身不区分大小写
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(getDB(ctx, r.db).Where("email = ?", strings.TrimSpace(email)))
}

func (r *userRepository) first(q *gorm.DB) (*user.User, error) {
	var model UserModel
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询用户失败")
	}
	return toUser(&model), nil
}

// Update 保存昵称、密码、角色
func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	result := getDB(ctx, r.db).Model(&UserModel{ID: u.ID}).Updates(map[string]any{
		"email":    u.Email,
		"password": u.Password,
		"nickname": u.Nickname,
		"role":     string(u.Role),
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return apperrors.ErrEmailDuplicate
		}
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新用户失败")
	}
	if result.RowsAffected == 0 {
		// 字段未变化时MySQL同样返回0行,确认一下记录是否存在
		if _, err := r.FindByID(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete 物理删除用户
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&UserModel{}, id)
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "删除用户失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func fromUser(u *user.User) *UserModel {
	return &UserModel{
		ID:       u.ID,
		Email:    u.Email,
		Password: u.Password,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	}
}

func toUser(model *UserModel) *user.User {
	return &user.User{
		ID:        model.ID,
		Email:     model.Email,
		Password:  model.Password,
		Nickname:  model.Nickname,
		Role:      user.Role(model.Role),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/cart"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// cartRepository 购物车仓储实现(MySQL)
// 表结构:
// - carts: 每个用户一行,结算时对这一行加锁
// - cart_items: 每本书一行,按id升序即加入顺序
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepository{db: db}
}

// Create 创建空购物车
func (r *cartRepository) Create(ctx context.Context, c *cart.Cart) error {
	model := &CartModel{UserID: c.UserID}
	err := getDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error
	if err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建购物车失败")
	}
	return nil
}

// FindByUserID 查询购物车
func (r *cartRepository) FindByUserID(ctx context.Context, userID uint) (*cart.Cart, error) {
	return r.find(ctx, getDB(ctx, r.db), userID)
}

// LockByUserID 加锁查询购物车,必须在事务中调用
func (r *cartRepository) LockByUserID(ctx context.Context, userID uint) (*cart.Cart, error) {
	return r.find(ctx, getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *cartRepository) find(ctx context.Context, db *gorm.DB, userID uint) (*cart.Cart, error) {
	var model CartModel
	if err := db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrCartNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购物车失败")
	}

	var ids []uint
	err := getDB(ctx, r.db).Model(&CartItemModel{}).
		Where("cart_id = ?", model.ID).
		Order("id ASC").
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购物车明细失败")
	}

	items, err := resolveBooks(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	return &cart.Cart{UserID: userID, Items: items, UpdatedAt: model.UpdatedAt}, nil
}

// Save 整体替换购物车明细
func (r *cartRepository) Save(ctx context.Context, c *cart.Cart) error {
	db := getDB(ctx, r.db)

	var model CartModel
	if err := db.Where("user_id = ?", c.UserID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.ErrCartNotFound
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购物车失败")
	}

	if err := db.Where("cart_id = ?", model.ID).Delete(&CartItemModel{}).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "清空购物车明细失败")
	}

	if len(c.Items) > 0 {
		now := time.Now()
		rows := make([]CartItemModel, len(c.Items))
		for i, b := range c.Items {
			rows[i] = CartItemModel{CartID: model.ID, BookID: b.ID, CreatedAt: now}
		}
		if err := db.Create(&rows).Error; err != nil {
			return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "保存购物车明细失败")
		}
	}

	if err := db.Model(&model).Update("updated_at", time.Now()).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "更新购物车失败")
	}
	return nil
}

// DeleteByUserID 删除购物车及明细
func (r *cartRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	db := getDB(ctx, r.db)

	var model CartModel
	if err := db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购物车失败")
	}

	if err := db.Where("cart_id = ?", model.ID).Delete(&CartItemModel{}).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "删除购物车明细失败")
	}
	if err := db.Delete(&model).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "删除购物车失败")
	}
	return nil
}

// resolveBooks 按ID序列还原图书,保持原顺序
// 已下架的图书只保留ID,结算时得到NotFound
func resolveBooks(ctx context.Context, db *gorm.DB, ids []uint) ([]*book.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var models []BookModel
	if err := getDB(ctx, db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
	}
	byID := make(map[uint]*BookModel, len(models))
	for i := range models {
		byID[models[i].ID] = &models[i]
	}

	items := make([]*book.Book, len(ids))
	for i, id := range ids {
		if m, ok := byID[id]; ok {
			items[i] = toBookEntity(m)
			continue
		}
		items[i] = book.Placeholder(id)
	}
	return items, nil
}

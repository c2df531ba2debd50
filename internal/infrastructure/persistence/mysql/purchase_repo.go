package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// purchaseRepository 购买记录仓储实现(MySQL)
type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建购买记录仓储
func NewPurchaseRepository(db *gorm.DB) purchase.Repository {
	return &purchaseRepository{db: db}
}

// GetOrCreate 查询购买记录,不存在时创建
// 并发创建由user_id唯一索引+ON CONFLICT DO NOTHING兜底
func (r *purchaseRepository) GetOrCreate(ctx context.Context, userID uint) (*purchase.History, error) {
	model, err := r.getOrCreateModel(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids []uint
	err = getDB(ctx, r.db).Model(&PurchasedBookModel{}).
		Where("history_id = ?", model.ID).
		Order("id ASC").
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购买记录明细失败")
	}

	items, err := resolveBooks(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	return &purchase.History{UserID: userID, Items: items, UpdatedAt: model.UpdatedAt}, nil
}

func (r *purchaseRepository) getOrCreateModel(ctx context.Context, userID uint) (*PurchaseHistoryModel, error) {
	db := getDB(ctx, r.db)

	var model PurchaseHistoryModel
	err := db.Where("user_id = ?", userID).First(&model).Error
	if err == nil {
		return &model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购买记录失败")
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&PurchaseHistoryModel{UserID: userID}).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建购买记录失败")
	}
	if err := db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购买记录失败")
	}
	return &model, nil
}

// Save 整体替换购买记录明细
func (r *purchaseRepository) Save(ctx context.Context, h *purchase.History) error {
	model, err := r.getOrCreateModel(ctx, h.UserID)
	if err != nil {
		return err
	}
	db := getDB(ctx, r.db)

	if err := db.Where("history_id = ?", model.ID).Delete(&PurchasedBookModel{}).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "清空购买记录明细失败")
	}

	if len(h.Items) > 0 {
		now := time.Now()
		rows := make([]PurchasedBookModel, len(h.Items))
		for i, b := range h.Items {
			rows[i] = PurchasedBookModel{HistoryID: model.ID, BookID: b.ID, CreatedAt: now}
		}
		if err := db.CreateInBatches(&rows, 200).Error; err != nil {
			return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "保存购买记录明细失败")
		}
	}

	if err := db.Model(model).Update("updated_at", time.Now()).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "更新购买记录失败")
	}
	return nil
}

// DeleteByUserID 删除购买记录及明细
func (r *purchaseRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	db := getDB(ctx, r.db)

	var model PurchaseHistoryModel
	if err := db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询购买记录失败")
	}

	if err := db.Where("history_id = ?", model.ID).Delete(&PurchasedBookModel{}).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "删除购买记录明细失败")
	}
	if err := db.Delete(&model).Error; err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "删除购买记录失败")
	}
	return nil
}

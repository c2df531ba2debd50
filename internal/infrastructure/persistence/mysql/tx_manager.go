package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/tx"
)

// txKey context中保存事务DB的key
type txKey struct{}

// TxManager 事务管理器
// 设计说明:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. 已经在事务中时直接加入外层事务,不开启嵌套事务
type TxManager struct {
	db *gorm.DB
}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// fn内的所有Repository操作都会在同一事务中执行,fn返回error时ROLLBACK,返回nil时COMMIT
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    c, err := cartRepo.LockByUserID(ctx, userID)
//	    if err != nil {
//	        return err
//	    }
//	    if err := bookRepo.UpdateStock(ctx, bookID, -1); err != nil {
//	        return err // 回滚
//	    }
//	    c.Clear()
//	    return cartRepo.Save(ctx, c)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Repository的getDB会从context提取事务DB
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如ISBN重复),转换为业务错误
// 4. 所有方法通过getDB(ctx)参与调用方的事务
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建图书失败")
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByIDs 批量查询,按ID升序,不存在的ID直接缺席
func (r *bookRepository) FindByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []BookModel
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "批量查询图书失败")
	}
	return toBookEntities(models), nil
}

// FindByISBN 根据ISBN查找图书
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// Delete 删除图书(软删除)
// 购物车和购买记录中仍保留图书ID,结算时得到NotFound
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&BookModel{}, id)
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "删除图书失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// List 分页查询图书列表
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var models []BookModel
	var total int64

	query := getDB(ctx, r.db).Model(&BookModel{})

	// 关键词搜索(标题、作者、出版社、类型,大小写不敏感)
	if kw := strings.TrimSpace(params.Keyword); kw != "" {
		pattern := containsPattern(kw)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(publisher) LIKE ? OR LOWER(genre) LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if g := book.NormalizeGenre(params.Genre); g != "" {
		query = query.Where("LOWER(genre) LIKE ?", containsPattern(g))
	}
	if params.MinPrice != nil {
		query = query.Where("price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书总数失败")
	}

	switch params.SortBy {
	case book.SortPriceAsc:
		query = query.Order(orderByPriceAsc)
	case book.SortPriceDesc:
		query = query.Order(orderByPriceDesc)
	default:
		query = query.Order("id DESC") // 默认按上架时间降序
	}

	offset := (params.Page - 1) * params.PageSize
	if err := query.Limit(params.PageSize).Offset(offset).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书列表失败")
	}

	return toBookEntities(models), total, nil
}

// LockByIDs 悲观锁批量查询
// SELECT ... WHERE id IN (...) ORDER BY id FOR UPDATE
// 按ID升序加行锁,与应用层加锁顺序一致,避免死锁
func (r *bookRepository) LockByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []BookModel
	err := getDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "锁定图书失败")
	}
	return toBookEntities(models), nil
}

// UpdateStock 更新库存(原子操作)
// UPDATE books SET stock = stock + delta WHERE id = ? AND stock + delta >= 0
func (r *bookRepository) UpdateStock(ctx context.Context, id uint, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("stock + ? >= 0", delta). // 防止库存为负
		Update("stock", gorm.Expr("stock + ?", delta))

	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新库存失败")
	}

	if result.RowsAffected == 0 {
		// 图书不存在或库存不足,再查一次确定原因
		var model BookModel
		if err := db.Select("id").First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return book.ErrBookNotFound
			}
			return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书失败")
		}
		return book.ErrInsufficientStock
	}
	return nil
}

// FindByGenreSubstring 类型字段包含token的图书,按价格降序
func (r *bookRepository) FindByGenreSubstring(ctx context.Context, token string) ([]*book.Book, error) {
	token = book.NormalizeGenre(token)
	if token == "" {
		return nil, nil
	}
	var models []BookModel
	err := getDB(ctx, r.db).
		Where("LOWER(genre) LIKE ?", containsPattern(token)).
		Order(orderByPriceDesc).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "按类型查询图书失败")
	}
	return toBookEntities(models), nil
}

// FindTopByPriceDesc 按价格降序取前limit本
func (r *bookRepository) FindTopByPriceDesc(ctx context.Context, limit int) ([]*book.Book, error) {
	if limit <= 0 {
		return nil, nil
	}
	var models []BookModel
	if err := getDB(ctx, r.db).Order(orderByPriceDesc).Limit(limit).Find(&models).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询热门图书失败")
	}
	return toBookEntities(models), nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ISBN:        b.ISBN,
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Genre:       b.Genre,
		Category:    b.Category,
		Price:       b.Price,
		Stock:       b.Stock,
		CoverURL:    b.CoverURL,
		Description: b.Description,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:          model.ID,
		ISBN:        model.ISBN,
		Title:       model.Title,
		Author:      model.Author,
		Publisher:   model.Publisher,
		Genre:       model.Genre,
		Category:    model.Category,
		Price:       model.Price,
		Stock:       model.Stock,
		CoverURL:    model.CoverURL,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toBookEntities(models []BookModel) []*book.Book {
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books
}

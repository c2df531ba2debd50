package mysql

import (
	"fmt"
	stdlog "log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// NewDB 创建数据库连接
// 设计说明:
// 1. 使用GORM v2作为ORM框架,TranslateError把唯一索引冲突翻译为gorm.ErrDuplicatedKey
// 2. 配置连接池参数(MaxOpenConns、MaxIdleConns、ConnMaxLifetime)
// 3. SQL日志写入zerolog,开发环境打印全部SQL,生产环境只打印慢查询
// 4. 按配置自动迁移表结构
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info
	}
	sqlLog := logger.With().Str("component", "gorm").Logger()

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.New(stdlog.New(sqlLog, "", 0), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	// 最大打开连接数(建议:CPU核数 * 2 + 磁盘数量)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	// 最大空闲连接数(建议:MaxOpenConns的1/4到1/2)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	// 连接最大存活时间(防止数据库主动断开连接)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	logger.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("数据库连接成功")

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return db, nil
}

// AutoMigrate 自动迁移表结构
// 注意:AutoMigrate只会创建表、添加字段,不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&CartModel{},
		&CartItemModel{},
		&PurchaseHistoryModel{},
		&PurchasedBookModel{},
	)
}

// UserModel GORM用户模型
// 设计说明:
// 1. 这是infrastructure层的数据模型,包含GORM tag
// 2. domain/user/entity.go是领域实体,不依赖GORM
// 3. Repository负责两者之间的转换
// 4. 用户删除是硬删除,购物车和购买记录由应用层显式删除
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string    `gorm:"size:255;not null;comment:密码(bcrypt加密)"`
	Nickname  string    `gorm:"size:50;not null;comment:昵称"`
	Role      string    `gorm:"size:16;not null;default:CUSTOMER;comment:角色(CUSTOMER/ADMIN)"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// 设计说明:
// 1. 价格使用int64存储"分"为单位,可以为NULL(未定价)
// 2. ISBN有唯一索引,防止重复
// 3. genre存逗号分隔的类型文本,推荐时做LOWER(genre) LIKE子串匹配
type BookModel struct {
	ID          uint           `gorm:"primaryKey"`
	ISBN        string         `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title       string         `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author      string         `gorm:"index:idx_search;size:100;not null;default:'';comment:作者"`
	Publisher   string         `gorm:"size:100;not null;default:'';comment:出版社"`
	Genre       string         `gorm:"size:255;not null;default:'';comment:类型(逗号分隔)"`
	Category    string         `gorm:"size:100;not null;default:'';comment:分类"`
	Price       *int64         `gorm:"index:idx_price;comment:价格(分),NULL表示未定价"`
	Stock       int            `gorm:"not null;default:5;comment:库存数量"`
	CoverURL    string         `gorm:"size:500;comment:封面图片URL"`
	Description string         `gorm:"type:text;comment:图书描述"`
	CreatedAt   time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// CartModel 购物车(每个用户一行,作为加锁对象)
type CartModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex;not null;comment:用户ID"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (CartModel) TableName() string {
	return "carts"
}

// CartItemModel 购物车明细
// 每行代表一本(一个单位),按id升序即加入顺序
type CartItemModel struct {
	ID        uint      `gorm:"primaryKey"`
	CartID    uint      `gorm:"index;not null;comment:购物车ID"`
	BookID    uint      `gorm:"index;not null;comment:图书ID"`
	CreatedAt time.Time `gorm:"comment:加入时间"`
}

// TableName 指定表名
func (CartItemModel) TableName() string {
	return "cart_items"
}

// PurchaseHistoryModel 购买记录(每个用户一行)
type PurchaseHistoryModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex;not null;comment:用户ID"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (PurchaseHistoryModel) TableName() string {
	return "purchase_histories"
}

// PurchasedBookModel 购买记录明细,每行一本,按id升序即购买顺序
type PurchasedBookModel struct {
	ID        uint      `gorm:"primaryKey"`
	HistoryID uint      `gorm:"index;not null;comment:购买记录ID"`
	BookID    uint      `gorm:"index;not null;comment:图书ID"`
	CreatedAt time.Time `gorm:"comment:购买时间"`
}

// TableName 指定表名
func (PurchasedBookModel) TableName() string {
	return "purchased_books"
}

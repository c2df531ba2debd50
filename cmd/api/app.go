package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	appcart "github.com/xiebiao/bookshelf/internal/application/cart"
	appcheckout "github.com/xiebiao/bookshelf/internal/application/checkout"
	"github.com/xiebiao/bookshelf/internal/application/event"
	apppurchase "github.com/xiebiao/bookshelf/internal/application/purchase"
	apprecommend "github.com/xiebiao/bookshelf/internal/application/recommend"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/cart"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/lock"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/internal/interface/http/router"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/logger"
)

// recommendCachePrefix 推荐缓存key前缀
const recommendCachePrefix = "recommend:"

// sessionStore 会话存储同时提供黑名单查询
type sessionStore interface {
	appuser.SessionStore
	middleware.TokenBlacklist
}

// infrastructure 按配置选择的基础设施
type infrastructure struct {
	txManager    tx.Manager
	locker       tx.Locker
	userRepo     user.Repository
	bookRepo     book.Repository
	cartRepo     cart.Repository
	purchaseRepo purchase.Repository
	sessions     sessionStore
	cache        apprecommend.Cache
	publisher    event.Publisher
}

// newInfrastructure 创建基础设施,返回的cleanup按创建的逆序释放资源
func newInfrastructure(cfg *config.Config) (*infrastructure, func(), error) {
	var (
		infra    infrastructure
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		// 单实例开发模式:数据、会话都在进程内,不缓存推荐结果
		store := memory.NewStore()
		infra.txManager = memory.NewTxManager(store)
		infra.locker = lock.NewKeyedMutex()
		infra.userRepo = memory.NewUserRepository(store)
		infra.bookRepo = memory.NewBookRepository(store)
		infra.cartRepo = memory.NewCartRepository(store)
		infra.purchaseRepo = memory.NewPurchaseRepository(store)
		infra.sessions = memory.NewSessionStore()
		logger.Warn().Msg("使用内存存储,重启后数据丢失")

	default:
		db, err := mysql.NewDB(cfg)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})

		redisClient, err := redis.NewClient(cfg)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = redisClient.Close() })

		infra.txManager = mysql.NewTxManager(db)
		infra.userRepo = mysql.NewUserRepository(db)
		infra.bookRepo = mysql.NewBookRepository(db)
		infra.cartRepo = mysql.NewCartRepository(db)
		infra.purchaseRepo = mysql.NewPurchaseRepository(db)
		infra.sessions = redis.NewSessionStore(redisClient)

		if cfg.Lock.Driver == config.LockRedis {
			infra.locker = redis.NewLocker(redisClient, cfg.Lock.TTL, cfg.Lock.RetryDelay, cfg.Lock.WaitTime)
		} else {
			infra.locker = lock.NewKeyedMutex()
		}
		if cfg.Recommend.CacheEnabled {
			infra.cache = redis.NewJSONCache(redisClient, recommendCachePrefix)
		}
	}

	if cfg.MQ.Enabled {
		p, err := messaging.NewAMQPPublisher(cfg.MQ)
		if err != nil {
			return nil, cleanup, fmt.Errorf("连接消息队列失败: %w", err)
		}
		cleanups = append(cleanups, func() { _ = p.Close() })
		infra.publisher = p
	} else {
		infra.publisher = messaging.NoopPublisher{}
	}

	return &infra, cleanup, nil
}

// app 组装完成的应用
type app struct {
	engine   *gin.Engine
	register *appuser.RegisterUseCase
}

// newApp 手动依赖注入,依赖链:Repository ← Service ← UseCase ← Handler
func newApp(cfg *config.Config, infra *infrastructure) *app {
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)

	// 领域层
	userService := user.NewService(infra.userRepo)
	bookService := book.NewService(infra.bookRepo)

	// 应用层
	register := appuser.NewRegisterUseCase(infra.txManager, userService, infra.userRepo, infra.cartRepo, infra.purchaseRepo)

	// 接口层
	handlers := router.Handlers{
		User: handler.NewUserHandler(
			register,
			appuser.NewLoginUseCase(userService, jwtManager, infra.sessions),
			appuser.NewLogoutUseCase(infra.sessions),
			appuser.NewRefreshUseCase(infra.userRepo, jwtManager, infra.sessions),
			appuser.NewDeleteAccountUseCase(infra.locker, infra.userRepo, infra.cartRepo, infra.purchaseRepo, infra.sessions, infra.publisher),
		),
		Book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(bookService),
			appbook.NewGetBookUseCase(bookService),
			appbook.NewListBooksUseCase(bookService),
			appbook.NewDeleteBookUseCase(bookService),
		),
		Cart: handler.NewCartHandler(
			appcart.NewViewCartUseCase(infra.cartRepo),
			appcart.NewAddToCartUseCase(infra.txManager, infra.locker, infra.cartRepo, infra.bookRepo),
			appcart.NewRemoveFromCartUseCase(infra.txManager, infra.locker, infra.cartRepo),
		),
		Checkout: handler.NewCheckoutHandler(
			appcheckout.NewCheckoutUseCase(infra.txManager, infra.locker, infra.cartRepo, infra.bookRepo, infra.purchaseRepo, infra.publisher),
		),
		History: handler.NewHistoryHandler(
			apppurchase.NewListHistoryUseCase(infra.purchaseRepo),
			apppurchase.NewRemoveFromHistoryUseCase(infra.txManager, infra.locker, infra.purchaseRepo),
		),
		Recommend: handler.NewRecommendHandler(
			apprecommend.NewRecommendUseCase(infra.bookRepo, infra.purchaseRepo, infra.cache, cfg.Recommend.CacheTTL),
			cfg.Recommend.DefaultLimit,
			cfg.Recommend.MaxLimit,
		),
	}

	var metricsPath string
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	engine := router.New(
		handlers,
		middleware.NewAuthMiddleware(jwtManager, infra.sessions),
		middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		router.Options{MetricsPath: metricsPath, Swagger: cfg.Server.Mode != "release"},
	)
	return &app{engine: engine, register: register}
}

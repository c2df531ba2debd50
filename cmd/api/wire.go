//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 生成:`wire gen ./cmd/api`,得到wire_gen.go中的InitializeApp。
// 这里描述的是生产部署的依赖图(MySQL + Redis);memory存储、local锁等按配置切换的组合由app.go手动组装。
//
//	Repository ← Service ← UseCase ← Handler ← Router

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	appcart "github.com/xiebiao/bookshelf/internal/application/cart"
	appcheckout "github.com/xiebiao/bookshelf/internal/application/checkout"
	"github.com/xiebiao/bookshelf/internal/application/event"
	apppurchase "github.com/xiebiao/bookshelf/internal/application/purchase"
	apprecommend "github.com/xiebiao/bookshelf/internal/application/recommend"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/purchase"
	"github.com/xiebiao/bookshelf/internal/domain/tx"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/lock"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/internal/interface/http/router"
	"github.com/xiebiao/bookshelf/pkg/jwt"
)

// infrastructureSet 数据库、Redis连接及其接口绑定
var infrastructureSet = wire.NewSet(
	mysql.NewDB,
	redis.NewClient,
	wire.Bind(new(goredis.Cmdable), new(*goredis.Client)),
	provideLocker,
	provideRecommendCache,
	providePublisher,
)

// repositorySet 仓储与事务
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewCartRepository,
	mysql.NewPurchaseRepository,
	mysql.NewTxManager,
	wire.Bind(new(tx.Manager), new(*mysql.TxManager)),
	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	book.NewService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshUseCase,
	appuser.NewDeleteAccountUseCase,
	appbook.NewPublishBookUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewDeleteBookUseCase,
	appcart.NewViewCartUseCase,
	appcart.NewAddToCartUseCase,
	appcart.NewRemoveFromCartUseCase,
	appcheckout.NewCheckoutUseCase,
	apppurchase.NewListHistoryUseCase,
	apppurchase.NewRemoveFromHistoryUseCase,
	provideRecommendUseCase,
)

// interfaceSet 处理器、中间件、路由
var interfaceSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	provideRateLimiter,
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewCartHandler,
	handler.NewCheckoutHandler,
	handler.NewHistoryHandler,
	provideRecommendHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
	provideApp,
)

// 以下Provider从Config中提取参数,Wire无法自动推断

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideLocker(cfg *config.Config, client *goredis.Client) tx.Locker {
	if cfg.Lock.Driver == config.LockRedis {
		return redis.NewLocker(client, cfg.Lock.TTL, cfg.Lock.RetryDelay, cfg.Lock.WaitTime)
	}
	return lock.NewKeyedMutex()
}

func provideRecommendCache(cfg *config.Config, client *goredis.Client) apprecommend.Cache {
	if !cfg.Recommend.CacheEnabled {
		return nil
	}
	return redis.NewJSONCache(client, recommendCachePrefix)
}

func providePublisher(cfg *config.Config) (event.Publisher, func(), error) {
	if !cfg.MQ.Enabled {
		return messaging.NoopPublisher{}, func() {}, nil
	}
	p, err := messaging.NewAMQPPublisher(cfg.MQ)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

func provideRecommendUseCase(cfg *config.Config, bookRepo book.Repository, purchaseRepo purchase.Repository, cache apprecommend.Cache) *apprecommend.RecommendUseCase {
	return apprecommend.NewRecommendUseCase(bookRepo, purchaseRepo, cache, cfg.Recommend.CacheTTL)
}

func provideRecommendHandler(cfg *config.Config, uc *apprecommend.RecommendUseCase) *handler.RecommendHandler {
	return handler.NewRecommendHandler(uc, cfg.Recommend.DefaultLimit, cfg.Recommend.MaxLimit)
}

func provideRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func provideEngine(cfg *config.Config, h router.Handlers, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter) *gin.Engine {
	var metricsPath string
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return router.New(h, auth, limiter, router.Options{MetricsPath: metricsPath, Swagger: cfg.Server.Mode != gin.ReleaseMode})
}

func provideApp(engine *gin.Engine, register *appuser.RegisterUseCase) *app {
	return &app{engine: engine, register: register}
}

// InitializeApp 按生产依赖图初始化应用
func InitializeApp(cfg *config.Config) (*app, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}

// Package router 注册HTTP路由和全局中间件
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User      *handler.UserHandler
	Book      *handler.BookHandler
	Cart      *handler.CartHandler
	Checkout  *handler.CheckoutHandler
	History   *handler.HistoryHandler
	Recommend *handler.RecommendHandler
}

// Options 路由选项
type Options struct {
	MetricsPath string // 为空时不暴露/metrics
	Swagger     bool
}

// New 创建Gin引擎并注册全部路由
//
//	/ping                          健康检查
//	/metrics                       Prometheus指标
//	/swagger/*any                  API文档
//	/api/v1/users/...              注册、登录、刷新(公开);登出、注销(登录)
//	/api/v1/books                  列表、详情(公开);上架(管理员)
//	/api/v1/cart, /checkout, /history, /recommendations  (登录)
func New(h Handlers, auth *middleware.AuthMiddleware, checkoutLimiter *middleware.RateLimiter, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	if opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")

	// 用户模块
	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/refresh", h.User.Refresh)
		users.POST("/logout", auth.RequireAuth(), h.User.Logout)
		users.DELETE("/me", auth.RequireAuth(), h.User.DeleteMe)
	}

	// 图书模块:查询公开,上架、下架只允许管理员
	books := v1.Group("/books")
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/:id", h.Book.GetBook)
		books.POST("", auth.RequireAuth(), middleware.RequireRole(user.RoleAdmin), h.Book.PublishBook)
		books.DELETE("/:id", auth.RequireAuth(), middleware.RequireRole(user.RoleAdmin), h.Book.DeleteBook)
	}

	// 以下都需要登录
	authorized := v1.Group("")
	authorized.Use(auth.RequireAuth())
	{
		authorized.GET("/cart", h.Cart.View)
		authorized.POST("/cart/items", h.Cart.Add)
		authorized.DELETE("/cart/items/:book_id", h.Cart.Remove)

		authorized.POST("/checkout", checkoutLimiter.Handler(), h.Checkout.Checkout)

		authorized.GET("/history", h.History.List)
		authorized.DELETE("/history/items/:book_id", h.History.Remove)

		authorized.GET("/recommendations", h.Recommend.Recommend)
	}

	return r
}

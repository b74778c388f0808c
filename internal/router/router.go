package router

import (
	"net/http"

	"github.com/reeltask/reeltask/internal/cache"
	"github.com/reeltask/reeltask/internal/config"
	"github.com/reeltask/reeltask/internal/http/handlers/public"
	"github.com/reeltask/reeltask/internal/logger"
	"github.com/reeltask/reeltask/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 构建 HTTP 路由
func SetupRouter(cfg *config.Config, container *provider.Container) *gin.Engine {
	gin.SetMode(resolveGinMode(cfg.Server.Mode))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))

	h := public.New(container)

	api := r.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// 支付回调与模拟支付不走用户鉴权
		api.POST("/recharge/callback/alipay", h.AlipayCallback)
		api.POST("/recharge/callback/wechat", h.WechatCallback)
		// 模拟支付确认页既可被浏览器直接打开，也可被脚本 POST
		api.GET("/recharge/mock/pay", h.MockPay)
		api.POST("/recharge/mock/pay", h.MockPay)

		authed := api.Group("")
		authed.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, container.UserRepo))
		{
			authed.GET("/recharge/config", h.GetRechargeConfig)
			authed.POST("/recharge/create",
				RateLimitMiddleware(cache.Client(), RateLimitRule{
					Prefix:        "ratelimit:recharge_create",
					WindowSeconds: cfg.Security.RechargeRateLimit.WindowSeconds,
					MaxRequests:   cfg.Security.RechargeRateLimit.MaxRequests,
				}, KeyByUserID),
				h.CreateRecharge,
			)
			authed.GET("/recharge/orders", h.GetMyRechargeOrders)
			authed.GET("/recharge/orders/:out_trade_no", h.GetMyRechargeOrder)

			authed.GET("/wallet", h.GetMyWallet)
			authed.GET("/wallet/transactions", h.GetMyWalletTransactions)

			authed.POST("/tasks", h.CreateTask)
			authed.GET("/tasks", h.GetMyTasks)
			authed.POST("/tasks/:id/publish", h.PublishTask)
		}
	}

	return r
}

func resolveGinMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

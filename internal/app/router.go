package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"payhub/internal/handler"
	"payhub/internal/middleware"
	internalRedis "payhub/internal/redis"
	"payhub/internal/repository"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	PaymentIntentHandler *handler.PaymentIntentHandler
	RefundHandler        *handler.RefundHandler
	MerchantRepo         repository.MerchantRepository
	MerchantCache        internalRedis.MerchantCacheInterface
	RedisClient          *redis.Client
	JWTSecret            string
	NewRelicApp          *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
// Merchant routes authenticate by API key, admin routes by JWT; the
// resolved actor travels explicitly from middleware into handlers.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	merchantAuth := middleware.MerchantAuth(deps.MerchantCache, deps.MerchantRepo)
	adminAuth := middleware.AdminAuth(deps.JWTSecret)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Merchant-facing payment intent routes.
		intents := v1.Group("/payment-intents", merchantAuth)
		{
			intents.POST("", deps.PaymentIntentHandler.CreatePaymentIntent)
			intents.GET("/:id", deps.PaymentIntentHandler.GetPaymentIntent)
			intents.POST("/:id/confirm", deps.PaymentIntentHandler.ConfirmPayment)
			intents.GET("/:id/transactions", deps.PaymentIntentHandler.ListTransactions)
		}

		// Merchant-facing refund routes.
		refunds := v1.Group("/refunds", merchantAuth)
		{
			refunds.POST("", deps.RefundHandler.RequestRefund)
			refunds.GET("/:id", deps.RefundHandler.GetRefund)
		}

		// Admin refund resolution routes.
		adminRefunds := v1.Group("/admin/refunds", adminAuth)
		{
			adminRefunds.GET("/:id", deps.RefundHandler.GetRefund)
			adminRefunds.POST("/:id/approve", deps.RefundHandler.ApproveRefund)
			adminRefunds.POST("/:id/reject", deps.RefundHandler.RejectRefund)
		}
	}

	return router
}

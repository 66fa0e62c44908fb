package handlers

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterConfig carries what SetupRouter needs besides the handlers.
type RouterConfig struct {
	GinMode        string
	ServiceName    string
	JWTSecret      string
	AllowedOrigins []string
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(payments *PaymentHandler, orders *OrderHandler, cfg RouterConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))
	router.Use(RequestIDMiddleware())

	// Health check (public)
	router.GET("/health", Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/shipping-rates", payments.ShippingRates)

		// Payment confirmations (public, validates x-signature)
		v1.POST("/webhooks/payments", payments.HandleWebhook)

		buyer := v1.Group("")
		buyer.Use(AuthGuard(cfg.JWTSecret))
		{
			buyer.POST("/checkout", payments.CreateCheckout)
			buyer.GET("/orders", orders.ListMyOrders)
			buyer.GET("/orders/:id", orders.GetMyOrder)
		}

		admin := v1.Group("/admin")
		admin.Use(AdminAuth(cfg.JWTSecret))
		{
			admin.GET("/orders", orders.AdminListOrders)
			admin.GET("/orders/:id", orders.AdminGetOrder)
			admin.PATCH("/orders/:id/status", orders.AdminUpdateStatus)
			admin.DELETE("/orders/:id", orders.AdminDeleteOrder)
			admin.POST("/inventory/reconcile", orders.AdminReconcile)
		}
	}

	return router
}

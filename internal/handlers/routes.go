package handlers

import (
	"net/http"

	"github.com/developia-II/mercaplaza-backend/internal/middleware"
	"github.com/developia-II/mercaplaza-backend/internal/models"
	"github.com/developia-II/mercaplaza-backend/internal/services/payout"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupRoutes(router *gin.Engine, db *mongo.Database, payoutSvc payout.Service, scheduler *payout.Scheduler) {
	logrus.Info("Setting up routes...")

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Server is running!",
			"status":  "ok",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "mercaplaza-backend",
		})
	})

	if db == nil {
		logrus.Warn("Database not connected - running with limited functionality")
		router.Any("/api/*path", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Database connection not available",
				"message": "The server is running but could not connect to the database. Please check server logs.",
			})
		})
		return
	}

	authHandler := NewAuthHandler(db)
	productHandler := NewProductHandler(db)
	cartHandler := NewCartHandler(db)
	orderHandler := NewOrderHandler(db)
	paymentHandler := NewPaymentHandler(db)
	bankAccountHandler := NewBankAccountHandler(db)
	payoutHandler := NewPayoutHandler(payoutSvc, scheduler)

	// Public Routes
	authGroup := router.Group("/api/v1/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public Product Routes
	publicProductGroup := router.Group("/api/v1/public/products")
	{
		publicProductGroup.GET("", productHandler.FetchProductsPublic)
		publicProductGroup.GET("/:id", productHandler.GetProductById)
	}

	// Public Webhook
	router.POST("/api/v1/payments/webhook", paymentHandler.HandleWebhook)

	// Protected Routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware())
	{
		// Product Routes
		products := protected.Group("/products")
		{
			products.POST("", middleware.RoleMiddleware(models.RoleSeller), productHandler.CreateProduct)
			products.GET("", middleware.RoleMiddleware(models.RoleSeller), productHandler.GetVendorProducts)
			products.GET("/:id", productHandler.GetProductById)
			products.PUT("/:id", middleware.RoleMiddleware(models.RoleSeller), productHandler.UpdateProduct)
			products.DELETE("/:id", middleware.RoleMiddleware(models.RoleSeller), productHandler.DeleteProduct)
		}

		// Cart Routes
		carts := protected.Group("/cart")
		{
			carts.POST("", cartHandler.AddToCart)
			carts.GET("", cartHandler.GetCart)
			carts.PUT("/:id", cartHandler.UpdateQuantity)
			carts.DELETE("/:id", cartHandler.RemoveFromCart)
			carts.DELETE("", cartHandler.ClearCart)
		}

		// Order Routes
		orders := protected.Group("/orders")
		{
			orders.POST("", orderHandler.PlaceOrder)
			orders.GET("", orderHandler.GetUserOrders)
			orders.GET("/:id", orderHandler.GetOrderById)
			orders.POST("/:id/confirm-receipt", orderHandler.ConfirmReceipt)
		}

		// Vendor Order Routes
		vendorOrders := protected.Group("/vendor/orders")
		vendorOrders.Use(middleware.RoleMiddleware(models.RoleSeller))
		{
			vendorOrders.GET("", orderHandler.GetVendorOrders)
			vendorOrders.GET("/:id", orderHandler.GetOrderById)
			vendorOrders.PUT("/:id/status", orderHandler.UpdateVendorOrderStatus)
		}

		// Payment Routes
		payments := protected.Group("/payments")
		{
			payments.POST("/create-intent", paymentHandler.CreatePaymentIntent)
		}

		// Bank Account Routes
		bankAccounts := protected.Group("/bank-accounts")
		{
			bankAccounts.POST("", middleware.RoleMiddleware(models.RoleSeller), bankAccountHandler.CreateBankAccount)
			bankAccounts.GET("", middleware.RoleMiddleware(models.RoleSeller), bankAccountHandler.GetMyBankAccounts)
			bankAccounts.PUT("/:id/activate", middleware.RoleMiddleware(models.RoleSeller), bankAccountHandler.SetActiveBankAccount)
			bankAccounts.DELETE("/:id", middleware.RoleMiddleware(models.RoleSeller), bankAccountHandler.DeleteBankAccount)
		}

		// Admin Bank Account Routes
		adminBankAccounts := protected.Group("/admin/bank-accounts")
		adminBankAccounts.Use(middleware.RoleMiddleware(models.RoleAdmin))
		{
			adminBankAccounts.GET("", bankAccountHandler.ListBankAccounts)
			adminBankAccounts.PUT("/:id/verify", bankAccountHandler.VerifyBankAccount)
		}

		// Seller Payout Routes
		sellerPayouts := protected.Group("/vendor-payouts")
		{
			sellerPayouts.GET("/my-balance", middleware.RoleMiddleware(models.RoleSeller), payoutHandler.GetMyBalance)
			sellerPayouts.GET("/my-payouts", middleware.RoleMiddleware(models.RoleSeller), payoutHandler.GetMyPayouts)
		}

		// Admin Payout Routes
		adminPayouts := protected.Group("/vendor-payouts")
		adminPayouts.Use(middleware.RoleMiddleware(models.RoleAdmin))
		{
			adminPayouts.GET("/config", payoutHandler.GetDispersionConfig)
			adminPayouts.PATCH("/config", payoutHandler.UpdateDispersionConfig)
			adminPayouts.GET("/balances", payoutHandler.GetAllBalances)
			adminPayouts.GET("/balance/:vendorId", payoutHandler.GetVendorBalance)
			adminPayouts.POST("", payoutHandler.CreatePayout)
			adminPayouts.POST("/bulk", payoutHandler.CreateMultiplePayouts)
			adminPayouts.POST("/run-cycle", payoutHandler.RunDispersalCycle)
			adminPayouts.POST("/execute/:id", payoutHandler.ExecutePayout)
			adminPayouts.GET("", payoutHandler.ListPayouts)
			adminPayouts.DELETE("/:id", payoutHandler.CancelPayout)
		}
	}
}

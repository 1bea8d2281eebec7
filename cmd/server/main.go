package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"balcao-system/config"
	"balcao-system/internal/database"
	"balcao-system/internal/gateway/handlers"
	"balcao-system/internal/gateway/middleware"
	"balcao-system/internal/logger"
	payableshandler "balcao-system/internal/services/payables/handler"
	registryhandler "balcao-system/internal/services/registry/handler"
	reportshandler "balcao-system/internal/services/reports/handler"
	saleshandler "balcao-system/internal/services/sales/handler"
	userhandler "balcao-system/internal/services/user/handler"
)

func main() {
	cfg := config.LoadConfig()
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}

	db, err := database.NewConnection(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	users := userhandler.NewUserHandler(db, redisClient, userhandler.AuthConfig{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		TokenTTL:  cfg.Auth.TokenTTL,
	})
	registry := registryhandler.NewRegistryHandler(db, redisClient)
	sales := saleshandler.NewSalesHandler(db, redisClient)
	payables := payableshandler.NewPayablesHandler(db, redisClient)
	reports := reportshandler.NewReportsHandler(db, redisClient)

	authHTTP := handlers.NewAuthHTTPHandler(users)
	registryHTTP := handlers.NewRegistryHTTPHandler(registry)
	salesHTTP := handlers.NewSalesHTTPHandler(sales)
	payablesHTTP := handlers.NewPayablesHTTPHandler(payables)
	reportsHTTP := handlers.NewReportsHTTPHandler(reports)

	go runOverdueSweeper(payables, cfg.Sweep.Interval)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit("100-M"))

	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", authHTTP.Login)
			auth.POST("/register", authHTTP.Register)
		}
	}

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret)))
	{
		customers := protected.Group("/customers")
		{
			customers.POST("", registryHTTP.CreateCustomer)
			customers.GET("", registryHTTP.ListCustomers)
			customers.GET("/:id", registryHTTP.GetCustomer)
			customers.DELETE("/:id", registryHTTP.DeleteCustomer)
			customers.POST("/:id/payments", salesHTTP.RecordCustomerPayment)
		}

		products := protected.Group("/products")
		{
			products.POST("", registryHTTP.CreateProduct)
			products.GET("", registryHTTP.ListProducts)
			products.GET("/low-stock", registryHTTP.ListLowStock)
			products.GET("/barcode/:barcode", registryHTTP.GetProductByBarcode)
			products.PUT("/:id", registryHTTP.UpdateProduct)
			products.DELETE("/:id", registryHTTP.DeleteProduct)
		}

		suppliers := protected.Group("/suppliers")
		{
			suppliers.POST("", registryHTTP.CreateSupplier)
			suppliers.GET("", registryHTTP.ListSuppliers)
			suppliers.DELETE("/:id", registryHTTP.DeleteSupplier)
		}

		salesGroup := protected.Group("/sales")
		{
			salesGroup.POST("", salesHTTP.CreateSale)
			salesGroup.GET("", salesHTTP.ListSales)
			salesGroup.GET("/:id", salesHTTP.GetSale)
			salesGroup.DELETE("/:id", salesHTTP.DeleteSale)
			salesGroup.POST("/:id/payments", salesHTTP.RecordSalePayment)
		}

		bills := protected.Group("/bills")
		{
			bills.POST("", payablesHTTP.CreateBill)
			bills.GET("", payablesHTTP.ListBills)
			bills.GET("/:id", payablesHTTP.GetBill)
			bills.DELETE("/:id", payablesHTTP.DeleteBill)
		}

		installments := protected.Group("/installments")
		{
			installments.GET("", payablesHTTP.ListInstallments)
			installments.POST("/:id/pay", payablesHTTP.PayInstallment)
			installments.POST("/sweep", payablesHTTP.SweepOverdue)
		}

		reportsGroup := protected.Group("/reports")
		{
			reportsGroup.GET("/payables-summary", payablesHTTP.Summary)
			reportsGroup.GET("/cash-flow", reportsHTTP.CashFlow)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("starting server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// runOverdueSweeper periodically reclassifies installments whose due date has
// passed. The sweep is idempotent, so overlapping runs after a restart are
// harmless.
func runOverdueSweeper(payables *payableshandler.PayablesHandler, interval time.Duration) {
	sweepLog := logger.WithComponent("sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		flipped, err := payables.SweepOverdue(context.Background(), time.Now())
		if err != nil {
			sweepLog.Error().Err(err).Msg("overdue sweep failed")
		} else if flipped > 0 {
			sweepLog.Info().Int("flipped", flipped).Msg("installments marked overdue")
		}
		<-ticker.C
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	addressapp "github.com/wyfcoding/onlineordering/internal/address/application"
	addressdomain "github.com/wyfcoding/onlineordering/internal/address/domain"
	addressmysql "github.com/wyfcoding/onlineordering/internal/address/infrastructure/persistence/mysql"
	addresshttp "github.com/wyfcoding/onlineordering/internal/address/interfaces/http"
	"github.com/wyfcoding/onlineordering/internal/order/application"
	"github.com/wyfcoding/onlineordering/internal/order/domain"
	"github.com/wyfcoding/onlineordering/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/onlineordering/internal/order/interfaces/http"
	"github.com/wyfcoding/onlineordering/pkg/config"
	"github.com/wyfcoding/onlineordering/pkg/db"
	"github.com/wyfcoding/onlineordering/pkg/logger"
	"github.com/wyfcoding/onlineordering/pkg/metrics"
	"github.com/wyfcoding/onlineordering/pkg/middleware"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/order/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()

	database, err := db.Init(db.Config{
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "connect db failed", "error", err)
	}
	defer database.Close()
	if err := database.AutoMigrate(&domain.Order{}, &domain.OrderLine{}, &addressdomain.Address{}); err != nil {
		logger.Fatal(ctx, "migrate failed", "error", err)
	}

	orderRepo := mysql.NewOrderRepository(database.DB)
	orderQuery := application.NewOrderQueryService(orderRepo)

	addressRepo := addressmysql.NewAddressRepository(database.DB)
	addressSvc := addressapp.NewAddressService(addressRepo)

	m := metrics.New("order")
	if cfg.Metrics.Enabled {
		go func() {
			if err := m.Serve(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				logger.Error(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinMetricsMiddleware(m),
		middleware.GinCORSMiddleware(),
	)
	orderhttp.NewOrderHandler(orderQuery).RegisterRoutes(&router.RouterGroup)
	addresshttp.NewAddressHandler(addressSvc).RegisterRoutes(&router.RouterGroup)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown failed", "error", err)
	}
}

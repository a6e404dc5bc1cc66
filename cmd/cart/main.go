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
	addressmysql "github.com/wyfcoding/onlineordering/internal/address/infrastructure/persistence/mysql"
	cartapp "github.com/wyfcoding/onlineordering/internal/cart/application"
	cartdomain "github.com/wyfcoding/onlineordering/internal/cart/domain"
	"github.com/wyfcoding/onlineordering/internal/cart/infrastructure/messaging"
	cartmysql "github.com/wyfcoding/onlineordering/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/onlineordering/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/onlineordering/internal/catalog/application"
	catalogmysql "github.com/wyfcoding/onlineordering/internal/catalog/infrastructure/persistence/mysql"
	orderdomain "github.com/wyfcoding/onlineordering/internal/order/domain"
	ordermysql "github.com/wyfcoding/onlineordering/internal/order/infrastructure/persistence/mysql"
	"github.com/wyfcoding/onlineordering/pkg/cache"
	"github.com/wyfcoding/onlineordering/pkg/config"
	"github.com/wyfcoding/onlineordering/pkg/db"
	"github.com/wyfcoding/onlineordering/pkg/logger"
	"github.com/wyfcoding/onlineordering/pkg/metrics"
	"github.com/wyfcoding/onlineordering/pkg/middleware"
	"github.com/wyfcoding/onlineordering/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/cart/config.toml", "path to config file")
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
	if err := database.AutoMigrate(&cartdomain.Cart{}, &cartdomain.CartLine{}, &orderdomain.Order{}, &orderdomain.OrderLine{}); err != nil {
		logger.Fatal(ctx, "migrate failed", "error", err)
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Warn(ctx, "redis unavailable, product cache disabled", "error", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	var publisher cartdomain.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			GroupID:      cfg.Kafka.GroupID,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Warn(ctx, "kafka unavailable, events disabled", "error", err)
		} else {
			defer producer.Close()
			publisher = messaging.NewKafkaPublisher(producer)
		}
	}

	cartRepo := cartmysql.NewCartRepository(database)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	productRepo := catalogmysql.NewProductRepository(database.DB)
	addressRepo := addressmysql.NewAddressRepository(database.DB)

	catalogQuery := catalogapp.NewCatalogQueryService(productRepo, redisCache)
	addressSvc := addressapp.NewAddressService(addressRepo)
	cartSvc := cartapp.NewCartService(cartRepo, orderRepo, catalogQuery, addressSvc, publisher)

	m := metrics.New("cart")
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
	carthttp.NewCartHandler(cartSvc, m).RegisterRoutes(&router.RouterGroup)

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

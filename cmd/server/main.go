package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "shift-exchange-backend/docs"
	"shift-exchange-backend/internal/common/cache"
	"shift-exchange-backend/internal/common/clock"
	"shift-exchange-backend/internal/common/config"
	"shift-exchange-backend/internal/common/logger"
	"shift-exchange-backend/internal/common/middleware"
	"shift-exchange-backend/internal/features/auth/identity"
	"shift-exchange-backend/internal/features/calendar"
	exchangehttp "shift-exchange-backend/internal/features/exchange/delivery/http"
	offerrepo "shift-exchange-backend/internal/features/exchange/repository"
	offermemory "shift-exchange-backend/internal/features/exchange/repository/memory"
	offerpostgres "shift-exchange-backend/internal/features/exchange/repository/postgres"
	exchangeservice "shift-exchange-backend/internal/features/exchange/service"
	userhttp "shift-exchange-backend/internal/features/user/delivery/http"
	userrepo "shift-exchange-backend/internal/features/user/repository"
	usermemory "shift-exchange-backend/internal/features/user/repository/memory"
	userpostgres "shift-exchange-backend/internal/features/user/repository/postgres"
	userservice "shift-exchange-backend/internal/features/user/service"
	"shift-exchange-backend/internal/platform/postgres"
	"shift-exchange-backend/internal/platform/redis"
	"shift-exchange-backend/internal/platform/telegram"
)

// @title           Shift Exchange API
// @version         1.0
// @description     Pairwise shift swaps for Telegram Mini App users. Offer endpoints require signed init data.

// @BasePath  /api

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Signed Telegram Mini App init data

// @tag.name auth
// @tag.description Init-data authentication
// @tag.name profile
// @tag.description Name and department of the caller
// @tag.name offers
// @tag.description Shift exchange offers and matching
// @tag.name calendar
// @tag.description Departments and their shift templates

type stores struct {
	users  userrepo.UserRepository
	offers offerrepo.OfferRepository
	pg     *postgres.Client
}

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.Debug)
	logger.Info().
		Bool("debug", cfg.Debug).
		Str("store", cfg.Store.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Msg("Starting shift exchange backend")

	ctx := context.Background()

	cal, err := calendar.LoadFile(cfg.Exchange.DepartmentsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load departments")
	}
	logger.Info().Strs("departments", cal.Departments()).Msg("Calendar loaded")

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open store")
	}
	if st.pg != nil {
		defer st.pg.Close()
	}

	if *migrateOnly {
		if st.pg == nil {
			logger.Fatal().Msg("--migrate-only requires the postgres store driver")
		}
		if err := st.pg.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Migration failed")
		}
		logger.Info().Msg("Migrations applied")
		return
	}

	var (
		redisClient *redis.Client
		cacheSvc    *cache.CacheService
		// Interface values stay nil when Redis is off; a nil *CacheService would not.
		responseStore middleware.ResponseStore
		invalidator   exchangeservice.CacheInvalidator
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr()).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		cacheSvc = cache.NewCacheService(redisClient)
		responseStore = cacheSvc
		invalidator = cacheSvc
	}

	verifier := identity.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.AuthScheme, cfg.Telegram.InitDataTTL)
	if cfg.Telegram.BotToken == "" {
		logger.Warn().Msg("BOT_TOKEN is empty: every authenticated request will fail with a configuration error")
	}

	messenger := newMessenger(cfg)

	clk := clock.Real()
	userSvc := userservice.NewUserService(st.users, cal)
	notifier := exchangeservice.NewNotificationService(messenger, st.users)
	matcher := exchangeservice.NewMatchingService(st.offers, notifier)
	offerSvc := exchangeservice.NewOfferService(st.offers, st.users, cal, matcher, clk, invalidator)

	sweeper := exchangeservice.NewExpirationService(st.offers, clk, cfg.Exchange.SweepInterval)
	if redisClient != nil {
		sweeper.WithLock(redisClient, cfg.Exchange.SweepLockTTL).WithCacheInvalidation(cacheSvc)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger("/health", "/ready"))
	router.Use(cors.New(corsConfig(cfg)))

	verify := middleware.TelegramInitData(verifier)
	api := router.Group("/api")
	userhttp.NewUserHandler(userSvc).RegisterRoutes(api, verify)
	exchangehttp.NewExchangeHandler(offerSvc, cal, userSvc).
		WithResponseCache(responseStore, cfg.Exchange.CacheTTL).
		RegisterRoutes(api, verify)

	setupProbes(router, cfg, st, redisClient)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sweeper.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	sweeper.Stop()

	logger.Info().Msg("Server exited")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		users := usermemory.NewMemoryRepository()
		logger.Warn().Msg("Using in-memory store: data is lost on restart")
		return &stores{users: users, offers: offermemory.NewMemoryRepository(users)}, nil
	}

	pg, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &stores{
		users:  userpostgres.NewPostgresRepository(pg.GetDB()),
		offers: offerpostgres.NewPostgresRepository(pg.GetDB()),
		pg:     pg,
	}, nil
}

func newMessenger(cfg *config.Config) telegram.Messenger {
	if !cfg.Telegram.NotificationsEnabled || cfg.Telegram.BotToken == "" {
		logger.Info().Msg("Telegram notifications disabled, matches are only logged")
		return telegram.LogMessenger{}
	}
	token := cfg.Telegram.BotToken
	client, err := telegram.NewClient(token)
	if err != nil {
		logger.Warn().Err(err).Msg("Telegram Bot API unreachable at startup, authorization is retried on each notification until it succeeds")
		return telegram.NewLazy(func() (*telegram.Client, error) { return telegram.NewClient(token) })
	}
	return client
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if origins := cfg.Origins(); origins != nil {
		c.AllowOrigins = origins
	} else {
		c.AllowAllOrigins = true
	}
	c.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Content-Type", "Accept", middleware.InitDataHeader, middleware.RequestIDHeader}
	c.ExposeHeaders = []string{middleware.RequestIDHeader, "X-Cache"}
	return c
}

func setupProbes(router *gin.Engine, cfg *config.Config, st *stores, redisClient *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   cfg.ServiceName,
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if st.pg != nil {
			if err := st.pg.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "postgres unavailable",
					"details": err.Error(),
				})
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "redis unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   cfg.ServiceName,
		})
	})
}

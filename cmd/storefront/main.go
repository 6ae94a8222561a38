package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "storefront/docs"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/order"
	"storefront/internal/product"
	"storefront/internal/user"
	"storefront/internal/wishlist"
)

// @title Storefront API
// @version 1.0
// @description Online storefront: catalog, cart, wishlist, checkout and order history.
// @BasePath /
func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal("postgres ping", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("invalid redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("redis ping", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("upload dir", zap.Error(err))
	}

	users := user.NewPGRepo(pool)
	products := product.NewPGRepo(pool)
	carts := cart.NewPGStore(pool)
	wishes := wishlist.NewPGStore(pool)
	engine := order.NewPGEngine(pool)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)
	sessions := auth.NewRedisSessions(redisClient, cfg.SessionTTL)

	seedAdmin(ctx, log, users, cfg.AdminEmail)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))

	registerRoutes(r, users, products, carts, wishes, engine, tokens, sessions, cfg.UploadDir)

	r.Static("/uploads", cfg.UploadDir)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		log.Info("storefront listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

// seedAdmin promotes the configured account. This is the only path to the
// admin role: registration always creates plain users.
func seedAdmin(ctx context.Context, log *zap.Logger, users user.Repository, email string) {
	if email == "" {
		return
	}
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		log.Warn("admin account not found, register it and restart", zap.String("email", email))
		return
	}
	if u.Role == user.RoleAdmin {
		return
	}
	if err := users.SetRole(ctx, u.ID, user.RoleAdmin); err != nil {
		log.Error("admin promotion failed", zap.Error(err))
		return
	}
	log.Info("admin account provisioned", zap.String("email", email))
}

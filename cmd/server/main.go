// Command server runs the chat-code HTTP API.
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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-chatcode-backend/docs"
	"github.com/tbourn/go-chatcode-backend/internal/auth"
	"github.com/tbourn/go-chatcode-backend/internal/config"
	httpapi "github.com/tbourn/go-chatcode-backend/internal/http"
	"github.com/tbourn/go-chatcode-backend/internal/observability"
	"github.com/tbourn/go-chatcode-backend/internal/realtime"
	"github.com/tbourn/go-chatcode-backend/internal/repo"
	"github.com/tbourn/go-chatcode-backend/internal/reservation"
	"github.com/tbourn/go-chatcode-backend/internal/services"
	"github.com/tbourn/go-chatcode-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// idempotencySweepInterval is how often expired Idempotency-Key records are purged.
const idempotencySweepInterval = 15 * time.Minute

// @title           Chat Code API
// @version         1.0
// @description     Pair users through short-lived 8-digit chat codes and accept or decline chat requests.
//
// @license.name    MIT
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"
func main() {
	dotenvFiles := config.LoadDotEnv()
	cfg := config.MustLoad()

	sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	log.Info().Str("version", ver).Strs("dotenv", dotenvFiles).Str("db_driver", cfg.DB.Driver).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := openDB(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	rdb, err := repo.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open redis")
	}
	if rdb == nil {
		log.Info().Msg("redis disabled; reservations, shared rate limits and cross-instance events are off")
	}

	hub := realtime.NewHub(rdb)
	go hub.Run()

	registry := services.NewCodeRegistry(db)
	registry.MaxAttempts = cfg.Codes.MaxAttempts
	registry.MaxValidityHours = cfg.Codes.MaxValidityHours
	registry.ReservationTTL = cfg.Codes.ReservationTTL
	registry.Notifier = hub
	if rdb != nil {
		registry.Reserver = reservation.New(rdb)
	}

	ledger := services.NewRequestLedger(db, registry)
	ledger.RetireOneTimeOnAccept = cfg.Codes.RetireOneTimeOnAccept
	ledger.Notifier = hub

	var tokens *auth.TokenManager
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	} else {
		log.Warn().Msg("JWT_SECRET unset; trusting X-User-ID and disabling sign-in tokens")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Redis:    rdb,
		Codes:    registry,
		Requests: ledger,
		Accounts: &services.AccountService{DB: db},
		Tokens:   tokens,
		Events:   realtime.NewServer(hub, cfg.CORS.AllowedOrigins),
	}, cfg)

	go sweepIdempotency(ctx, db)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	hub.Stop()
	closeRedis(rdb)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownTracing(shCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("stopped")
}

func openDB(cfg config.DBConfig) (*gorm.DB, error) {
	if cfg.Driver == repo.DriverPostgres {
		return repo.Open(cfg.Driver, cfg.URL)
	}
	return repo.Open(cfg.Driver, cfg.Path)
}

// sweepIdempotency purges expired Idempotency-Key records until ctx ends.
func sweepIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(idempotencySweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("idempotency sweep")
			}
		}
	}
}

func closeRedis(rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
}

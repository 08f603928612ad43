package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/cart"
	"github.com/Skotchmaster/flower_shop/internal/checkout"
	"github.com/Skotchmaster/flower_shop/internal/config"
	"github.com/Skotchmaster/flower_shop/internal/db"
	"github.com/Skotchmaster/flower_shop/internal/httpserver"
	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/flower_shop/internal/middleware/logging"
	"github.com/Skotchmaster/flower_shop/internal/mykafka"
	"github.com/Skotchmaster/flower_shop/internal/postal"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/search"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/session"
	"github.com/Skotchmaster/flower_shop/internal/storage"
	"github.com/Skotchmaster/flower_shop/internal/tokens"
)

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	shopLoc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBDriver)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		tctx, tcancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mykafka.EnsureTopics(tctx, cfg.KafkaBrokers[0], mykafka.Topics...); err != nil {
			logger.Warn("kafka_topics_error", "error", err)
		}
		tcancel()
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		events = producer
	} else {
		logger.Info("kafka_disabled")
	}

	var (
		indexer  service.Indexer
		searcher service.Searcher
	)
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := es.Ping(pctx); err != nil {
			logger.Warn("elasticsearch_unreachable", "error", err)
		}
		pcancel()
		indexer, searcher = es, es
	} else {
		logger.Info("search_index_disabled", "fallback", "sql")
	}

	e := echo.New()
	e.HideBanner = true

	var uploads storage.Uploader
	if cfg.S3Bucket != "" {
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3, err := storage.NewS3Store(sctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.S3PublicURL)
		scancel()
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		uploads = s3
	} else {
		uploads = &storage.DiskStore{Dir: cfg.UploadDir, URLPrefix: "/uploads"}
		e.Static("/uploads", cfg.UploadDir)
		logger.Info("uploads_on_disk", "dir", cfg.UploadDir)
	}

	r := &repo.GormRepo{DB: gdb}
	sessions := &session.Manager{Repo: r, Secret: cfg.SessionSecret, TTL: cfg.SessionTTL}
	orders := &service.OrderService{Repo: r, Events: events}

	deps := &httpserver.Deps{
		Store: &httpserver.StoreHTTP{
			Catalog: &service.CatalogService{Repo: r, Search: searcher, ChatBaseURL: cfg.ChatBaseURL},
		},
		Cart: &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Store: &cart.Store{Values: sessions}, Events: events}},
		Checkout: &httpserver.CheckoutHTTP{Svc: &checkout.Service{
			Repo:             r,
			Values:           sessions,
			Postal:           postal.NewClient(cfg.PostalAPIURL),
			Events:           events,
			MessageMaxLength: cfg.MessageMaxLength,
			ChatBaseURL:      cfg.ChatBaseURL,
			Location:         shopLoc,
		}},
		Auth: &httpserver.AuthHTTP{
			Svc:          &service.AuthService{Repo: r, JWTSecret: cfg.JWTSecret, AccessTTL: cfg.AccessTTL},
			CookieSecure: cfg.CookieSecure,
		},
		Products:  &httpserver.ProductHTTP{Svc: &service.ProductService{Repo: r, Events: events, Index: indexer, Storage: uploads}},
		Category:  &httpserver.CategoryHTTP{Svc: &service.CategoryService{Repo: r, Storage: uploads}},
		Special:   &httpserver.SpecialItemHTTP{Svc: &service.SpecialItemService{Repo: r, Storage: uploads}},
		TimeSlots: &httpserver.TimeSlotHTTP{Svc: &service.TimeSlotService{Repo: r}},
		Orders:    &httpserver.OrderHTTP{Svc: orders},
		Users:     &httpserver.UserHTTP{Svc: &service.UserService{Repo: r}},
		Settings:  &httpserver.SettingsHTTP{Svc: &service.SettingsService{Repo: r, Storage: uploads}},
		Dashboard: &httpserver.DashboardHTTP{Svc: &service.DashboardService{Repo: r}},

		Sessions:      sessions,
		Authenticator: &auth.Authenticator{Secret: cfg.JWTSecret, Users: r},
		CookieSecure:  cfg.CookieSecure,
		Ready:         func(ctx context.Context) error { return ping(ctx, gdb) },
	}

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if !cfg.CORSCredentials() {
		logger.Info("cors_without_credentials", "origins", cfg.CORSOrigins, "hint", "set CORS_ORIGINS to enable cookies cross-origin")
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: cfg.CORSCredentials(),
		AllowHeaders: []string{
			echo.HeaderContentType, echo.HeaderAuthorization,
			tokens.SessionHeader, "X-CSRF-Token",
		},
		ExposeHeaders: []string{tokens.SessionHeader, "X-CSRF-Token", echo.HeaderXRequestID},
	}))

	httpserver.Register(e, deps)

	bg, stopBackground := context.WithCancel(context.Background())
	go sessions.RunSweeper(bg, time.Hour, func(err error) {
		logger.Error("session_sweep_error", "error", err)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	stopBackground()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown complete")
}

func ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

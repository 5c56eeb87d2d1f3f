package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/accommodations"
	"github.com/wanderstay/wanderstay/internal/app"
	"github.com/wanderstay/wanderstay/internal/audit"
	audithttp "github.com/wanderstay/wanderstay/internal/audit/http"
	"github.com/wanderstay/wanderstay/internal/auth"
	"github.com/wanderstay/wanderstay/internal/bookmarks"
	"github.com/wanderstay/wanderstay/internal/destinations"
	"github.com/wanderstay/wanderstay/internal/notifications"
	"github.com/wanderstay/wanderstay/internal/observability"
	"github.com/wanderstay/wanderstay/internal/platform/db"
	"github.com/wanderstay/wanderstay/internal/rbac"
	"github.com/wanderstay/wanderstay/internal/reviews"
	"github.com/wanderstay/wanderstay/internal/shared"
	"github.com/wanderstay/wanderstay/internal/tags"
	"github.com/wanderstay/wanderstay/internal/users"
	"github.com/wanderstay/wanderstay/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "wanderstay_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	recorder := access.NewPGRecorder(pool, logger)

	usersRepo := users.NewRepository(pool)
	usersGuard := access.NewGuard("user", access.EntityPermissions{
		ViewAny:   shared.PermUsersView,
		Create:    shared.PermUsersCreate,
		UpdateOwn: shared.PermUsersUpdateOwn,
		UpdateAny: shared.PermUsersUpdateAny,
		DeleteAny: shared.PermUsersDeleteAny,
	}, recorder, logger)
	usersService := users.NewService(usersRepo, usersGuard)

	rbacService := rbac.NewService(pool)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	sessionRepo := auth.NewSessionRepository(pool)
	authService := auth.NewService(usersRepo, sessionRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	destinationsRepo := destinations.NewRepository(pool)
	destinationsGuard := access.NewGuard("destination", access.EntityPermissions{
		ViewAny:   shared.PermDestinationView,
		Create:    shared.PermDestinationCreate,
		UpdateAny: shared.PermDestinationUpdateAny,
		DeleteAny: shared.PermDestinationDeleteAny,
	}, recorder, logger)
	destinationsService := destinations.NewService(destinationsRepo, destinationsGuard)

	accommodationsRepo := accommodations.NewRepository(pool)
	accommodationsGuard := access.NewGuard("accommodation", access.EntityPermissions{
		ViewAny:   shared.PermAccommodationView,
		Create:    shared.PermAccommodationCreate,
		UpdateOwn: shared.PermAccommodationUpdateOwn,
		UpdateAny: shared.PermAccommodationUpdateAny,
		DeleteOwn: shared.PermAccommodationDeleteOwn,
		DeleteAny: shared.PermAccommodationDeleteAny,
	}, recorder, logger)
	accommodationsService := accommodations.NewService(accommodationsRepo, destinationsService, accommodationsGuard)

	tagsRepo := tags.NewRepository(pool)
	tagsGuard := access.NewGuard("tag", access.EntityPermissions{
		ViewAny:   shared.PermTagView,
		Create:    shared.PermTagCreate,
		UpdateAny: shared.PermTagUpdateAny,
		DeleteAny: shared.PermTagDeleteAny,
	}, recorder, logger)
	tagsService := tags.NewService(tagsRepo, tagsGuard)

	reviewsRepo := reviews.NewRepository(pool)
	reviewsGuard := access.NewGuard("review", access.EntityPermissions{
		ViewAny:   shared.PermReviewView,
		Create:    shared.PermReviewCreate,
		UpdateOwn: shared.PermReviewUpdateOwn,
		DeleteOwn: shared.PermReviewDeleteOwn,
		DeleteAny: shared.PermReviewDeleteAny,
	}, recorder, logger)
	reviewsService := reviews.NewService(reviewsRepo, accommodationsService, idempotencyStore, reviewsGuard)

	bookmarksRepo := bookmarks.NewRepository(pool)
	bookmarksGuard := access.NewGuard("bookmark", access.EntityPermissions{
		ViewAny:   shared.PermBookmarkView,
		Create:    shared.PermBookmarkCreate,
		DeleteOwn: shared.PermBookmarkDelete,
	}, recorder, logger)
	bookmarksService := bookmarks.NewService(bookmarksRepo, accommodationsService, bookmarksGuard)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	notificationsRepo := notifications.NewRepository(pool)
	notificationsService := notifications.NewService(notificationsRepo, jobsClient, redisClient, logger)

	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audithttp.NewHandler(logger, auditService, audit.CSVExporter{})

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Middleware: app.MiddlewareConfig{
			Logger:         logger,
			Config:         cfg,
			SessionManager: sessionManager,
			CSRFManager:    csrfManager,
			Directory:      usersRepo,
			Permissions:    rbacService,
			Metrics:        metrics,
		},
		AuthHandler:    authHandler,
		UsersHandler:   users.NewHandler(logger, usersService),
		Destinations:   destinations.NewHandler(logger, destinationsService),
		Accommodations: accommodations.NewHandler(logger, accommodationsService),
		Tags:           tags.NewHandler(logger, tagsService),
		Reviews:        reviews.NewHandler(logger, reviewsService),
		Bookmarks:      bookmarks.NewHandler(logger, bookmarksService),
		Notifications:  notifications.NewHandler(logger, notificationsService),
		RBACHandler:    rbac.NewHandler(logger, rbacService, rbacMiddleware),
		AuditHandler:   auditHandler,
		JobsHandler:    jobs.NewHandler(inspector, logger),
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"karpet_crm_backend/internal/adapters"
	"karpet_crm_backend/internal/auth"
	"karpet_crm_backend/internal/branches"
	"karpet_crm_backend/internal/email"
	"karpet_crm_backend/internal/events"
	"karpet_crm_backend/internal/followups"
	fupservice "karpet_crm_backend/internal/followups/service"
	apphttp "karpet_crm_backend/internal/http"
	"karpet_crm_backend/internal/http/router"
	"karpet_crm_backend/internal/leads"
	"karpet_crm_backend/internal/notification"
	"karpet_crm_backend/internal/reports"
	"karpet_crm_backend/internal/scheduler"
	"karpet_crm_backend/internal/stages"
	"karpet_crm_backend/internal/stages/cache"
	"karpet_crm_backend/internal/storage"
	"karpet_crm_backend/migrations"
	"karpet_crm_backend/platform/config"
	"karpet_crm_backend/platform/db"
	"karpet_crm_backend/platform/logger"
	"karpet_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	projections := initStageCache(cfg, log)

	store := initObjectStore(ctx, cfg, log)

	reminders, closeReminders := initReminderScheduler(cfg, log)
	if closeReminders != nil {
		defer closeReminders()
	}

	sender := email.NewSender(cfg)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, val)
	branchesModule := branches.NewModule(pool, val)
	stagesModule := stages.NewModule(pool, projections, val)
	leadsModule := leads.NewModule(pool, eventBus, store, cfg.GetMinIOBucketLeadAttachments(), val)
	followupsModule := followups.NewModule(pool, stagesModule.Service(), leadsModule.Service(), eventBus, reminders, cfg, val)
	notificationModule := notification.NewModule(pool, eventBus, log)
	reportsModule := reports.NewModule(pool, cfg)

	// New leads get their first follow-up scheduled automatically.
	adapters.NewFirstFollowUpSubscriber(eventBus, followupsModule.Service(), log)

	// Reminder and cold-lead events go out by email to the owning sales user.
	adapters.NewEmailNotifier(eventBus, authModule.Repository(), leadsModule.Service(), sender, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			branchesModule,
			stagesModule,
			leadsModule,
			followupsModule,
			notificationModule,
			reportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStageCache picks the redis-backed stage projection cache when
// STAGE_CACHE_REDIS_URL is set, otherwise the in-process one.
func initStageCache(cfg config.StageCacheConfig, log *logger.Logger) cache.Cache {
	redisURL := cfg.GetStageCacheRedisURL()
	if redisURL == "" {
		return cache.NewMemory()
	}

	redisCache, err := cache.NewRedis(redisURL)
	if err != nil {
		log.Warn("stage cache redis unavailable, falling back to in-memory", "error", err)
		return cache.NewMemory()
	}

	log.Info("stage cache backed by redis")
	return redisCache
}

// initObjectStore builds the MinIO store for lead attachments. Returns nil
// when MINIO_ENDPOINT is not configured; attachment routes are disabled in
// that case.
func initObjectStore(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.ObjectStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; lead attachments disabled")
		return nil
	}

	store, err := storage.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinIOBucketLeadAttachments()
	if err := withRetry(ctx, log, "ensure lead-attachments bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}

	log.Info("storage service initialized", "leadAttachmentsBucket", bucket)
	return store
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (fupservice.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

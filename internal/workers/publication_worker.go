package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/services"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	JobCloseExpired        = "close_expired_offers"
	JobCleanupNotification = "cleanup_notifications"

	workerName = "publication_worker"
)

// Config - расписания в формате robfig/cron ("@every 1h", "0 3 * * *")
type Config struct {
	ExpirySchedule  string
	CleanupSchedule string
	RetentionDays   int
}

// PublicationWorker закрывает просроченные офферы и чистит прочитанные уведомления.
type PublicationWorker struct {
	db            *gorm.DB
	moderation    services.ModerationService
	notifications services.NotificationService
	metrics       *metrics.Metrics
	cfg           Config

	cron *cron.Cron
	now  func() time.Time
	mu   sync.Mutex
}

func NewPublicationWorker(
	db *gorm.DB,
	moderation services.ModerationService,
	notifications services.NotificationService,
	m *metrics.Metrics,
	cfg Config,
) *PublicationWorker {
	if cfg.ExpirySchedule == "" {
		cfg.ExpirySchedule = "@every 1h"
	}
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = "@daily"
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}

	return &PublicationWorker{
		db:            db,
		moderation:    moderation,
		notifications: notifications,
		metrics:       m,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Start регистрирует задачи и запускает планировщик.
// Контекст используется для всех запусков задач до Stop.
func (w *PublicationWorker) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(w.cfg.ExpirySchedule, func() { _, _ = w.closeExpired(ctx) }); err != nil {
		return fmt.Errorf("invalid expiry schedule %q: %w", w.cfg.ExpirySchedule, err)
	}
	if _, err := c.AddFunc(w.cfg.CleanupSchedule, func() { _, _ = w.cleanupNotifications(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", w.cfg.CleanupSchedule, err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()

	c.Start()
	logger.Info("Publication worker started",
		"expiry_schedule", w.cfg.ExpirySchedule,
		"cleanup_schedule", w.cfg.CleanupSchedule,
	)
	return nil
}

// Stop останавливает планировщик и ждет завершения текущих задач.
func (w *PublicationWorker) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	logger.Info("Publication worker stopped")
}

// RunOnce выполняет обе задачи один раз (CLI, тесты).
func (w *PublicationWorker) RunOnce(ctx context.Context) (closed int, cleaned int64, err error) {
	closed, err = w.closeExpired(ctx)
	if err != nil {
		return closed, 0, err
	}
	cleaned, err = w.cleanupNotifications(ctx)
	return closed, cleaned, err
}

// CloseExpired - только закрытие просроченных офферов
func (w *PublicationWorker) CloseExpired(ctx context.Context) (int, error) {
	return w.closeExpired(ctx)
}

func (w *PublicationWorker) closeExpired(ctx context.Context) (int, error) {
	start := time.Now()

	closed, err := w.moderation.CloseExpiredOffers(ctx, w.db.WithContext(ctx), w.now())

	logger.WorkerLog(workerName, JobCloseExpired, time.Since(start), err)
	w.metrics.WorkerRun(JobCloseExpired, err)
	if err == nil && closed > 0 {
		logger.Info("Auto-closed expired offers", "count", closed)
	}
	return closed, err
}

func (w *PublicationWorker) cleanupNotifications(ctx context.Context) (int64, error) {
	start := time.Now()
	retention := time.Duration(w.cfg.RetentionDays) * 24 * time.Hour

	deleted, err := w.notifications.CleanupRead(ctx, w.db.WithContext(ctx), retention)

	logger.WorkerLog(workerName, JobCleanupNotification, time.Since(start), err)
	w.metrics.WorkerRun(JobCleanupNotification, err)
	return deleted, err
}

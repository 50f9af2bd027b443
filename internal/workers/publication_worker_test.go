package workers_test

import (
	"testing"
	"time"

	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/testutil"
	"bolsafeucn/internal/workers"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	logger.Init("test")
}

func newWorker(t *testing.T, db *gorm.DB, m *metrics.Metrics, cfg workers.Config) *workers.PublicationWorker {
	t.Helper()

	policy := services.DefaultModerationPolicy()
	userRepo := repositories.NewUserRepository()
	publicationRepo := repositories.NewPublicationRepository()
	reviewService := services.NewReviewService(repositories.NewReviewRepository(), userRepo, publicationRepo, policy, nil)
	notifications := services.NewNotificationService(repositories.NewNotificationRepository(), nil, nil, nil)
	t.Cleanup(notifications.Wait)

	moderation := services.NewModerationService(publicationRepo, userRepo, reviewService, &testutil.RecordingNotifier{}, policy, nil)
	return workers.NewPublicationWorker(db, moderation, notifications, m, cfg)
}

func TestPublicationWorker_RunOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()
	m := metrics.New()
	w := newWorker(t, db, m, workers.Config{RetentionDays: 30})

	// 1. Просроченный и актуальный офферы
	owner := testutil.CreateUser(t, db, models.UserRoleCompany, "owner@minera.cl")
	expired := testutil.CreateOffer(t, db, owner.ID, models.PublicationStatusPublished)
	active := testutil.CreateOffer(t, db, owner.ID, models.PublicationStatusPublished)

	past := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Offer{}).
		Where("publication_id = ?", expired.ID).
		Updates(map[string]interface{}{"end_date": past, "application_deadline": past.Add(-time.Hour)}).Error)

	// 2. Старое прочитанное, старое непрочитанное и свежее прочитанное уведомления
	old := time.Now().UTC().AddDate(0, 0, -60)
	notifications := []*models.Notification{
		{UserID: owner.ID, Type: "publication_status", Title: "old read", IsRead: true},
		{UserID: owner.ID, Type: "publication_status", Title: "old unread"},
		{UserID: owner.ID, Type: "publication_status", Title: "fresh read", IsRead: true},
	}
	for _, n := range notifications {
		require.NoError(t, db.Create(n).Error)
	}
	require.NoError(t, db.Model(&models.Notification{}).
		Where("id IN ?", []uint{notifications[0].ID, notifications[1].ID}).
		Update("created_at", old).Error)

	// 3. Один проход
	closed, cleaned, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, int64(1), cleaned)
	t.Logf("Закрыто офферов: %d, удалено уведомлений: %d", closed, cleaned)

	var reloaded models.Publication
	require.NoError(t, db.First(&reloaded, expired.ID).Error)
	assert.Equal(t, models.PublicationStatusClosed, reloaded.StatusValidation)
	require.NoError(t, db.First(&reloaded, active.ID).Error)
	assert.Equal(t, models.PublicationStatusPublished, reloaded.StatusValidation)

	var left int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&left).Error)
	assert.Equal(t, int64(2), left)

	// 4. Метрики по обеим задачам
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.WorkerRuns.WithLabelValues(workers.JobCloseExpired, "ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.WorkerRuns.WithLabelValues(workers.JobCleanupNotification, "ok")))

	// 5. Повторный проход ничего не меняет
	closed, cleaned, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)
	assert.Zero(t, cleaned)
}

func TestPublicationWorker_StartStop(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()

	w := newWorker(t, db, nil, workers.Config{})
	require.NoError(t, w.Start(ctx))
	w.Stop()
	// Повторная остановка безопасна
	w.Stop()

	bad := newWorker(t, db, nil, workers.Config{ExpirySchedule: "not a schedule"})
	err := bad.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid expiry schedule")
}

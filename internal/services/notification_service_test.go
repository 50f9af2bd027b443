package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bolsafeucn/internal/email"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/internal/testutil"
	"bolsafeucn/pkg/apperrors"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentTemplate struct {
	to       []string
	subject  string
	template string
	data     email.TemplateData
}

type fakeEmailProvider struct {
	mu   sync.Mutex
	sent []sentTemplate
	fail bool
}

func (p *fakeEmailProvider) Send(context.Context, *email.Email) error { return nil }
func (p *fakeEmailProvider) Validate() error                          { return nil }
func (p *fakeEmailProvider) Close() error                             { return nil }

func (p *fakeEmailProvider) SendTemplate(_ context.Context, to []string, subject, templateName string, data email.TemplateData) error {
	if p.fail {
		return errors.New("smtp unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentTemplate{to: to, subject: subject, template: templateName, data: data})
	return nil
}

type fakePusher struct {
	mu       sync.Mutex
	users    []uint
	payloads []any
}

func (p *fakePusher) SendToUser(userID uint, _ string, data any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
	p.payloads = append(p.payloads, data)
	return true
}

func TestNotifyPublicationStatus_AllChannels(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()
	owner := testutil.CreateUser(t, db, models.UserRoleCompany, "owner@minera.cl")

	mailer := &fakeEmailProvider{}
	pusher := &fakePusher{}
	svc := services.NewNotificationService(repositories.NewNotificationRepository(), mailer, pusher, nil)

	svc.NotifyPublicationStatus(ctx, db, services.PublicationStatusEvent{
		PublicationID:  10,
		OwnerID:        owner.ID,
		OwnerEmail:     owner.Email,
		Title:          "Práctica",
		NewStatusLabel: "Rechazada",
		Reason:         "Incompleta",
	})
	svc.Wait()

	// 1. In-app уведомление
	var stored []models.Notification
	require.NoError(t, db.Where("user_id = ?", owner.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationTypePublicationStatus, stored[0].Type)
	assert.Contains(t, stored[0].Message, "Rechazada")
	assert.False(t, stored[0].IsRead)

	// 2. Websocket
	assert.Equal(t, []uint{owner.ID}, pusher.users)

	// 3. Письмо
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{owner.Email}, mailer.sent[0].to)
	assert.Equal(t, email.TemplatePublicationStatus, mailer.sent[0].template)
	assert.Equal(t, "Incompleta", mailer.sent[0].data["Reason"])
}

func TestNotify_SurvivesFinishedRequest(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, models.UserRoleCompany, "owner@minera.cl")

	pusher := &fakePusher{}
	svc := services.NewNotificationService(repositories.NewNotificationRepository(), nil, pusher, nil)

	// 1. Запрос уже завершен: контекст отменен, db привязан к нему, как в DBMiddleware
	reqCtx, cancel := context.WithCancel(testutil.Context())
	cancel()

	svc.NotifyPublicationStatus(reqCtx, db.WithContext(reqCtx), services.PublicationStatusEvent{
		PublicationID:  11,
		OwnerID:        owner.ID,
		Title:          "Práctica",
		NewStatusLabel: "Publicada",
	})
	svc.Wait()

	// 2. Уведомление все равно сохранено
	var stored []models.Notification
	require.NoError(t, db.Where("user_id = ?", owner.ID).Find(&stored).Error)
	require.Len(t, stored, 1, "in-app уведомление не должно теряться после ответа")

	// 3. В websocket ушла сохраненная запись с ID
	require.Len(t, pusher.payloads, 1)
	pushed, ok := pusher.payloads[0].(*models.Notification)
	require.True(t, ok)
	assert.Equal(t, stored[0].ID, pushed.ID)
	assert.NotZero(t, pushed.ID)
}

func TestNotifyApplicationStatus_EmailFailureIsCounted(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()
	student := testutil.CreateUser(t, db, models.UserRoleStudent, "student@ucn.cl")

	m := metrics.New()
	svc := services.NewNotificationService(repositories.NewNotificationRepository(), &fakeEmailProvider{fail: true}, nil, m)

	svc.NotifyApplicationStatus(ctx, db, services.ApplicationStatusEvent{
		ApplicationID: 1,
		StudentID:     student.ID,
		StudentEmail:  student.Email,
		OfferName:     "Práctica",
		CompanyName:   "Minera Norte",
		NewStatus:     models.ApplicationStatusAccepted,
	})
	svc.Wait()

	// Уведомление сохранено, хотя письмо не ушло
	count, err := svc.GetUnreadCount(ctx, db, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.NotificationFailures.WithLabelValues("email")))
}

func TestNotifyNewApplication_NoEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()
	owner := testutil.CreateUser(t, db, models.UserRoleCompany, "owner@minera.cl")

	mailer := &fakeEmailProvider{}
	svc := services.NewNotificationService(repositories.NewNotificationRepository(), mailer, nil, nil)

	svc.NotifyNewApplication(ctx, db, services.NewApplicationEvent{
		ApplicationID: 3,
		PublicationID: 7,
		OwnerID:       owner.ID,
		Title:         "Práctica",
		StudentName:   "Ana Rojas",
	})
	svc.Wait()

	assert.Empty(t, mailer.sent)
	count, err := svc.GetUnreadCount(ctx, db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)
}

func TestNotificationInbox(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()
	user := testutil.CreateUser(t, db, models.UserRoleStudent, "student@ucn.cl")
	other := testutil.CreateUser(t, db, models.UserRoleStudent, "otro@ucn.cl")
	svc := services.NewNotificationService(repositories.NewNotificationRepository(), nil, nil, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Notification{UserID: user.ID, Type: models.NotificationTypeNewApplication, Title: "Nueva postulación"}).Error)
	}
	foreign := &models.Notification{UserID: other.ID, Type: models.NotificationTypeNewApplication, Title: "Ajena"}
	require.NoError(t, db.Create(foreign).Error)

	// 1. Список и пагинация
	page, err := svc.ListNotifications(ctx, db, user.ID, dto.NotificationListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	// 2. Чужое уведомление не отмечается
	err = svc.MarkAsRead(ctx, db, user.ID, foreign.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	// 3. Отметить все
	updated, err := svc.MarkAllAsRead(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	unread, err := svc.GetUnreadCount(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Zero(t, unread.Count)

	unreadOnly, err := svc.ListNotifications(ctx, db, user.ID, dto.NotificationListQuery{UnreadOnly: true})
	require.NoError(t, err)
	assert.Zero(t, unreadOnly.Total)

	// 4. Очистка прочитанных: все свежие, удалять нечего
	deleted, err := svc.CleanupRead(ctx, db, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = svc.CleanupRead(ctx, db, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

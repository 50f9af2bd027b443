package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bolsafeucn/internal/email"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==========================
// События переходов
// ==========================

// PublicationStatusEvent - публикация сменила статус (опубликована, отклонена, закрыта)
type PublicationStatusEvent struct {
	PublicationID  uint   `json:"publication_id"`
	OwnerID        uint   `json:"owner_id"`
	OwnerEmail     string `json:"-"`
	Title          string `json:"title"`
	NewStatusLabel string `json:"status"`
	Reason         string `json:"reason,omitempty"`
}

// ApplicationStatusEvent - оферент принял или отклонил заявку
type ApplicationStatusEvent struct {
	ApplicationID uint                     `json:"application_id"`
	StudentID     uint                     `json:"student_id"`
	StudentEmail  string                   `json:"-"`
	OfferName     string                   `json:"offer_name"`
	CompanyName   string                   `json:"company_name"`
	NewStatus     models.ApplicationStatus `json:"status"`
}

// NewApplicationEvent - студент откликнулся на оффер
type NewApplicationEvent struct {
	ApplicationID uint   `json:"application_id"`
	PublicationID uint   `json:"publication_id"`
	OwnerID       uint   `json:"-"`
	Title         string `json:"title"`
	StudentName   string `json:"student_name"`
}

// Notifier - побочные эффекты переходов. Вызывается после коммита,
// ошибки доставки не возвращаются вызывающему.
type Notifier interface {
	NotifyPublicationStatus(ctx context.Context, db *gorm.DB, event PublicationStatusEvent)
	NotifyApplicationStatus(ctx context.Context, db *gorm.DB, event ApplicationStatusEvent)
	NotifyNewApplication(ctx context.Context, db *gorm.DB, event NewApplicationEvent)
}

// Pusher - живая доставка в открытые websocket соединения
type Pusher interface {
	SendToUser(userID uint, messageType string, data any) bool
}

type NotificationService interface {
	Notifier

	ListNotifications(ctx context.Context, db *gorm.DB, userID uint, query dto.NotificationListQuery) (*dto.PaginatedResponse, error)
	GetUnreadCount(ctx context.Context, db *gorm.DB, userID uint) (*dto.UnreadCountResponse, error)
	MarkAsRead(ctx context.Context, db *gorm.DB, userID, notificationID uint) error
	MarkAllAsRead(ctx context.Context, db *gorm.DB, userID uint) (int64, error)
	CleanupRead(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error)

	// Wait дожидается завершения всех фоновых доставок (shutdown, тесты)
	Wait()
}

type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	emailProvider    email.Provider
	pusher           Pusher
	metrics          *metrics.Metrics

	wg sync.WaitGroup
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	emailProvider email.Provider,
	pusher Pusher,
	m *metrics.Metrics,
) NotificationService {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		emailProvider:    emailProvider,
		pusher:           pusher,
		metrics:          m,
	}
}

// delivery - одно уведомление по всем каналам
type delivery struct {
	userID    uint
	kind      string
	title     string
	message   string
	data      any
	emailTo   string
	subject   string
	template  string
	emailData email.TemplateData
}

// ==========================
// Notifier
// ==========================

func (s *NotificationServiceImpl) NotifyPublicationStatus(ctx context.Context, db *gorm.DB, event PublicationStatusEvent) {
	s.dispatch(ctx, db, delivery{
		userID:   event.OwnerID,
		kind:     models.NotificationTypePublicationStatus,
		title:    fmt.Sprintf("Publicación %s", event.NewStatusLabel),
		message:  fmt.Sprintf("Tu publicación \"%s\" ahora está: %s", event.Title, event.NewStatusLabel),
		data:     event,
		emailTo:  event.OwnerEmail,
		subject:  fmt.Sprintf("Tu publicación fue %s", event.NewStatusLabel),
		template: email.TemplatePublicationStatus,
		emailData: email.TemplateData{
			"Title":  event.Title,
			"Status": event.NewStatusLabel,
			"Reason": event.Reason,
		},
	})
}

func (s *NotificationServiceImpl) NotifyApplicationStatus(ctx context.Context, db *gorm.DB, event ApplicationStatusEvent) {
	label := event.NewStatus.Label()
	s.dispatch(ctx, db, delivery{
		userID:   event.StudentID,
		kind:     models.NotificationTypeApplicationStatus,
		title:    fmt.Sprintf("Postulación %s", label),
		message:  fmt.Sprintf("Tu postulación a \"%s\" de %s fue %s", event.OfferName, event.CompanyName, label),
		data:     event,
		emailTo:  event.StudentEmail,
		subject:  "Actualización de tu postulación",
		template: email.TemplateApplicationStatus,
		emailData: email.TemplateData{
			"OfferName":   event.OfferName,
			"CompanyName": event.CompanyName,
			"Status":      label,
		},
	})
}

// NotifyNewApplication - только in-app и websocket, без письма
func (s *NotificationServiceImpl) NotifyNewApplication(ctx context.Context, db *gorm.DB, event NewApplicationEvent) {
	s.dispatch(ctx, db, delivery{
		userID:  event.OwnerID,
		kind:    models.NotificationTypeNewApplication,
		title:   "Nueva postulación",
		message: fmt.Sprintf("%s postuló a \"%s\"", event.StudentName, event.Title),
		data:    event,
	})
}

// dispatch запускает доставку в фоне. Контекст запроса отвязывается от отмены:
// ответ уже ушел, а логгер и request_id нужны. db привязан к контексту запроса
// (DBMiddleware), поэтому его тоже перепривязываем.
func (s *NotificationServiceImpl) dispatch(ctx context.Context, db *gorm.DB, d delivery) {
	ctx = context.WithoutCancel(ctx)
	db = db.WithContext(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.CtxError(ctx, "Notification delivery panicked", "panic", r, "user_id", d.userID)
				s.metrics.NotificationFailed("panic")
			}
		}()
		s.deliver(ctx, db, d)
	}()
}

func (s *NotificationServiceImpl) deliver(ctx context.Context, db *gorm.DB, d delivery) {
	log := logger.FromContext(ctx).With("notification_type", d.kind, "recipient_id", d.userID)

	payload, err := json.Marshal(d.data)
	if err != nil {
		log.Error("Failed to marshal notification data", "error", err)
		payload = nil
	}

	notification := &models.Notification{
		UserID:  d.userID,
		Type:    d.kind,
		Title:   d.title,
		Message: d.message,
		Data:    datatypes.JSON(payload),
	}
	if err := s.notificationRepo.Create(db, notification); err != nil {
		log.Error("Failed to persist notification", "error", err)
		s.metrics.NotificationFailed("inbox")
	}

	if s.pusher != nil {
		if s.pusher.SendToUser(d.userID, "notification", notification) {
			log.Debug("Notification pushed over websocket")
		}
	}

	if d.template == "" || d.emailTo == "" || s.emailProvider == nil {
		return
	}
	if err := s.emailProvider.SendTemplate(ctx, []string{d.emailTo}, d.subject, d.template, d.emailData); err != nil {
		log.Error("Failed to send notification email", "error", err)
		s.metrics.NotificationFailed("email")
		return
	}
	log.Info("📧 Notification email sent")
}

func (s *NotificationServiceImpl) Wait() {
	s.wg.Wait()
}

// ==========================
// Входящие
// ==========================

func (s *NotificationServiceImpl) ListNotifications(ctx context.Context, db *gorm.DB, userID uint, query dto.NotificationListQuery) (*dto.PaginatedResponse, error) {
	page, pageSize := normalizePage(query.Page, query.PageSize)

	notifications, total, err := s.notificationRepo.ListByUser(db, userID, query.UnreadOnly, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(notifications, total, page, pageSize), nil
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, db *gorm.DB, userID uint) (*dto.UnreadCountResponse, error) {
	count, err := s.notificationRepo.CountUnread(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, db *gorm.DB, userID, notificationID uint) error {
	if err := s.notificationRepo.MarkAsRead(db, userID, notificationID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(db, userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return updated, nil
}

// CleanupRead удаляет прочитанные уведомления старше olderThan
func (s *NotificationServiceImpl) CleanupRead(ctx context.Context, db *gorm.DB, olderThan time.Duration) (int64, error) {
	deleted, err := s.notificationRepo.DeleteReadOlderThan(db, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	if deleted > 0 {
		logger.CtxInfo(ctx, "Old notifications removed", "deleted", deleted)
	}
	return deleted, nil
}

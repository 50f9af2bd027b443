package services

import (
	"context"
	"strings"
	"time"

	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/pkg/apperrors"

	"gorm.io/gorm"
)

// PendingReviewCounter - источник счетчика незавершенных отзывов для троттлинга
type PendingReviewCounter interface {
	GetPendingReviewsCount(ctx context.Context, db *gorm.DB, userID uint) (int64, error)
}

type ModerationService interface {
	// Жизненный цикл публикации
	CreatePublication(ctx context.Context, db *gorm.DB, ownerID uint, req *dto.CreatePublicationRequest) (*dto.PublicationResponse, error)
	AdminApprove(ctx context.Context, db *gorm.DB, publicationID uint) (*dto.PublicationResponse, error)
	AdminReject(ctx context.Context, db *gorm.DB, publicationID uint, reason string) (*dto.PublicationResponse, error)
	OwnerAppeal(ctx context.Context, db *gorm.DB, publicationID, ownerID uint, justification string) (*dto.AppealResponse, error)
	OwnerClose(ctx context.Context, db *gorm.DB, publicationID, ownerID uint) (*dto.PublicationResponse, error)
	AdminClose(ctx context.Context, db *gorm.DB, publicationID uint) (*dto.PublicationResponse, error)

	// Чтение
	GetPublication(ctx context.Context, db *gorm.DB, publicationID uint, viewer Viewer) (*dto.PublicationResponse, error)
	ListPublished(ctx context.Context, db *gorm.DB, query dto.PublicationListQuery) (*dto.PaginatedResponse, error)
	ListByOwner(ctx context.Context, db *gorm.DB, ownerID uint, page, pageSize int) (*dto.PaginatedResponse, error)
	ListPendingModeration(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.PaginatedResponse, error)

	// Воркер
	CloseExpiredOffers(ctx context.Context, db *gorm.DB, now time.Time) (int, error)
}

type ModerationServiceImpl struct {
	publicationRepo repositories.PublicationRepository
	userRepo        repositories.UserRepository
	pendingCounter  PendingReviewCounter
	notifier        Notifier
	policy          ModerationPolicy
	metrics         *metrics.Metrics
}

func NewModerationService(
	publicationRepo repositories.PublicationRepository,
	userRepo repositories.UserRepository,
	pendingCounter PendingReviewCounter,
	notifier Notifier,
	policy ModerationPolicy,
	m *metrics.Metrics,
) ModerationService {
	return &ModerationServiceImpl{
		publicationRepo: publicationRepo,
		userRepo:        userRepo,
		pendingCounter:  pendingCounter,
		notifier:        notifier,
		policy:          policy,
		metrics:         m,
	}
}

// ==========================
// Создание
// ==========================

func (s *ModerationServiceImpl) CreatePublication(ctx context.Context, db *gorm.DB, ownerID uint, req *dto.CreatePublicationRequest) (*dto.PublicationResponse, error) {
	owner, err := s.userRepo.FindByIDWithProfile(db, ownerID)
	if err != nil {
		return nil, handleUserError(err)
	}
	if !owner.Role.CanPublish() {
		return nil, apperrors.ErrInvalidUserRole
	}

	now := time.Now().UTC()
	publication := &models.Publication{
		OwnerID:          owner.ID,
		Type:             req.Type,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		StatusValidation: models.PublicationStatusInProcess,
	}

	switch req.Type {
	case models.PublicationTypeOffer:
		offer, err := buildOffer(req.Offer, now)
		if err != nil {
			return nil, err
		}
		publication.Offer = offer
	case models.PublicationTypeBuySell:
		if req.BuySell == nil {
			return nil, apperrors.NewBadRequestError("buy_sell details are required")
		}
		publication.BuySell = &models.BuySell{
			Price:     req.BuySell.Price,
			Category:  req.BuySell.Category,
			Condition: req.BuySell.Condition,
			Location:  req.BuySell.Location,
		}
	default:
		return nil, apperrors.NewBadRequestError("unknown publication type")
	}

	if err := s.checkPendingReviews(ctx, db, owner.ID, "create_publication"); err != nil {
		return nil, err
	}

	// Публикации админа сразу видны
	if owner.IsAdmin() {
		publication.MarkPublished(now)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.publicationRepo.Create(tx, publication); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	publication.Owner = owner
	s.metrics.PublicationTransition(string(publication.StatusValidation))
	logger.CtxInfo(ctx, "Publication created",
		"publication_id", publication.ID,
		"type", publication.Type,
		"status", publication.StatusValidation,
	)

	return toPublicationResponse(publication, s.policy.MaxAppeals), nil
}

func buildOffer(details *dto.OfferDetails, now time.Time) (*models.Offer, error) {
	if details == nil {
		return nil, apperrors.ErrInvalidPublicationDates("offer details are required")
	}
	if !details.EndDate.After(now) {
		return nil, apperrors.ErrInvalidPublicationDates("end_date must be in the future")
	}
	if !details.ApplicationDeadline.Before(details.EndDate) {
		return nil, apperrors.ErrInvalidPublicationDates("application_deadline must be before end_date")
	}
	return &models.Offer{
		EndDate:             details.EndDate.UTC(),
		ApplicationDeadline: details.ApplicationDeadline.UTC(),
		Remuneration:        details.Remuneration,
		Kind:                details.Kind,
		Location:            details.Location,
		Requirements:        details.Requirements,
	}, nil
}

// checkPendingReviews - троттлинг по незавершенным отзывам (без блокировок, advisory)
func (s *ModerationServiceImpl) checkPendingReviews(ctx context.Context, db *gorm.DB, userID uint, operation string) error {
	pending, err := s.pendingCounter.GetPendingReviewsCount(ctx, db, userID)
	if err != nil {
		return err
	}
	if s.policy.IsThrottled(pending) {
		s.metrics.Throttled(operation)
		logger.CtxWarn(ctx, "Blocked by pending reviews", "user_id", userID, "pending", pending, "operation", operation)
		return apperrors.ErrPendingReviewsLimit(pending, s.policy.PendingReviewThreshold)
	}
	return nil
}

// ==========================
// Переходы статуса
// ==========================

// transition читает публикацию, проверяет предусловие и пишет изменения
// версионным UPDATE в одной транзакции. При ошибке строка не меняется.
func (s *ModerationServiceImpl) transition(
	ctx context.Context,
	db *gorm.DB,
	publicationID uint,
	check func(p *models.Publication) error,
	apply func(p *models.Publication),
) (*models.Publication, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	publication, err := s.publicationRepo.FindByIDWithOwner(tx, publicationID)
	if err != nil {
		return nil, handlePublicationError(err)
	}
	if err := check(publication); err != nil {
		return nil, err
	}

	from := publication.StatusValidation
	apply(publication)

	if err := s.publicationRepo.UpdateStatus(tx, publication); err != nil {
		return nil, handlePublicationError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.metrics.PublicationTransition(string(publication.StatusValidation))
	logger.CtxInfo(ctx, "Publication status changed",
		"publication_id", publication.ID,
		"from", from,
		"to", publication.StatusValidation,
		"version", publication.Version,
	)
	return publication, nil
}

func (s *ModerationServiceImpl) notifyStatus(ctx context.Context, db *gorm.DB, p *models.Publication) {
	if s.notifier == nil {
		return
	}
	event := PublicationStatusEvent{
		PublicationID:  p.ID,
		OwnerID:        p.OwnerID,
		Title:          p.Title,
		NewStatusLabel: p.StatusValidation.Label(),
	}
	if p.Owner != nil {
		event.OwnerEmail = p.Owner.Email
	}
	if p.StatusValidation == models.PublicationStatusRejected {
		event.Reason = p.AdminRejectionReason
	}
	s.notifier.NotifyPublicationStatus(ctx, db, event)
}

func (s *ModerationServiceImpl) AdminApprove(ctx context.Context, db *gorm.DB, publicationID uint) (*dto.PublicationResponse, error) {
	publication, err := s.transition(ctx, db, publicationID,
		func(p *models.Publication) error {
			if p.StatusValidation != models.PublicationStatusInProcess {
				return apperrors.ErrPublicationNotEditable
			}
			return nil
		},
		func(p *models.Publication) {
			p.MarkPublished(time.Now().UTC())
		},
	)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, db, publication)
	return toPublicationResponse(publication, s.policy.MaxAppeals), nil
}

func (s *ModerationServiceImpl) AdminReject(ctx context.Context, db *gorm.DB, publicationID uint, reason string) (*dto.PublicationResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ErrRejectionReasonRequired
	}

	publication, err := s.transition(ctx, db, publicationID,
		func(p *models.Publication) error {
			if p.StatusValidation != models.PublicationStatusInProcess {
				return apperrors.ErrPublicationNotEditable
			}
			return nil
		},
		func(p *models.Publication) {
			p.MarkRejected(reason)
		},
	)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, db, publication)
	return toPublicationResponse(publication, s.policy.MaxAppeals), nil
}

func (s *ModerationServiceImpl) OwnerAppeal(ctx context.Context, db *gorm.DB, publicationID, ownerID uint, justification string) (*dto.AppealResponse, error) {
	publication, err := s.transition(ctx, db, publicationID,
		func(p *models.Publication) error {
			if p.OwnerID != ownerID {
				return apperrors.ErrNotPublicationOwner
			}
			if p.StatusValidation != models.PublicationStatusRejected {
				return apperrors.ErrAppealNotAllowed
			}
			if p.AppealCount >= s.policy.MaxAppeals {
				return apperrors.ErrAppealLimitReached(s.policy.MaxAppeals)
			}
			return nil
		},
		func(p *models.Publication) {
			p.MarkAppealed(strings.TrimSpace(justification))
		},
	)
	if err != nil {
		return nil, err
	}

	remaining := publication.RemainingAppeals(s.policy.MaxAppeals)
	logger.CtxInfo(ctx, "Publication appealed", "publication_id", publication.ID, "remaining_appeals", remaining)

	return &dto.AppealResponse{
		Publication:      toPublicationResponse(publication, s.policy.MaxAppeals),
		RemainingAppeals: remaining,
	}, nil
}

// OwnerClose - для чужой публикации ответ такой же, как для несуществующей
func (s *ModerationServiceImpl) OwnerClose(ctx context.Context, db *gorm.DB, publicationID, ownerID uint) (*dto.PublicationResponse, error) {
	publication, err := s.transition(ctx, db, publicationID,
		func(p *models.Publication) error {
			if p.OwnerID != ownerID {
				return apperrors.ErrPublicationNotFound
			}
			if p.StatusValidation != models.PublicationStatusPublished || !p.IsValidated {
				return apperrors.ErrPublicationNotPublished
			}
			return nil
		},
		func(p *models.Publication) {
			p.MarkClosed()
		},
	)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, db, publication)
	return toPublicationResponse(publication, s.policy.MaxAppeals), nil
}

func (s *ModerationServiceImpl) AdminClose(ctx context.Context, db *gorm.DB, publicationID uint) (*dto.PublicationResponse, error) {
	publication, err := s.transition(ctx, db, publicationID,
		func(p *models.Publication) error {
			if p.StatusValidation == models.PublicationStatusClosed {
				return apperrors.ErrPublicationAlreadyClosed
			}
			return nil
		},
		func(p *models.Publication) {
			p.MarkClosed()
		},
	)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, db, publication)
	return toPublicationResponse(publication, s.policy.MaxAppeals), nil
}

// CloseExpiredOffers закрывает опубликованные офферы с истекшим EndDate.
// Ошибка на одной публикации не останавливает остальные.
func (s *ModerationServiceImpl) CloseExpiredOffers(ctx context.Context, db *gorm.DB, now time.Time) (int, error) {
	expired, err := s.publicationRepo.FindExpiredOffers(db, now)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	closed := 0
	for _, p := range expired {
		publication, err := s.transition(ctx, db, p.ID,
			func(p *models.Publication) error {
				if p.StatusValidation != models.PublicationStatusPublished {
					return apperrors.ErrPublicationNotPublished
				}
				return nil
			},
			func(p *models.Publication) {
				p.MarkClosed()
			},
		)
		if err != nil {
			logger.CtxWarn(ctx, "Failed to close expired offer", "publication_id", p.ID, "error", err)
			continue
		}
		s.notifyStatus(ctx, db, publication)
		closed++
	}
	return closed, nil
}

// ==========================
// Чтение
// ==========================

func (s *ModerationServiceImpl) GetPublication(ctx context.Context, db *gorm.DB, publicationID uint, viewer Viewer) (*dto.PublicationResponse, error) {
	publication, err := s.publicationRepo.FindByIDWithOwner(db, publicationID)
	if err != nil {
		return nil, handlePublicationError(err)
	}

	canSee := publication.IsPubliclyVisible() ||
		viewer.IsAdmin() ||
		(!viewer.IsAnonymous() && viewer.UserID == publication.OwnerID)
	if !canSee {
		return nil, apperrors.ErrPublicationNotFound
	}
	return toPublicationResponse(publication, s.policy.MaxAppeals), nil
}

func (s *ModerationServiceImpl) ListPublished(ctx context.Context, db *gorm.DB, query dto.PublicationListQuery) (*dto.PaginatedResponse, error) {
	return s.list(db, repositories.PublicationFilter{
		Type:        query.Type,
		OnlyVisible: true,
		Page:        query.Page,
		PageSize:    query.PageSize,
	})
}

func (s *ModerationServiceImpl) ListByOwner(ctx context.Context, db *gorm.DB, ownerID uint, page, pageSize int) (*dto.PaginatedResponse, error) {
	return s.list(db, repositories.PublicationFilter{OwnerID: ownerID, Page: page, PageSize: pageSize})
}

func (s *ModerationServiceImpl) ListPendingModeration(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.PaginatedResponse, error) {
	return s.list(db, repositories.PublicationFilter{
		Status:   models.PublicationStatusInProcess,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *ModerationServiceImpl) list(db *gorm.DB, filter repositories.PublicationFilter) (*dto.PaginatedResponse, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	publications, total, err := s.publicationRepo.List(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.PublicationResponse, 0, len(publications))
	for i := range publications {
		items = append(items, toPublicationResponse(&publications[i], s.policy.MaxAppeals))
	}
	return dto.NewPaginatedResponse(items, total, filter.Page, filter.PageSize), nil
}

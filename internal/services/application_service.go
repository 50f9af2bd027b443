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

type ApplicationService interface {
	Apply(ctx context.Context, db *gorm.DB, studentID, publicationID uint, req *dto.ApplyRequest) (*dto.ApplicationResponse, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, offerorID, applicationID uint, status models.ApplicationStatus) (*dto.ApplicationResponse, error)

	GetApplication(ctx context.Context, db *gorm.DB, viewerID, applicationID uint) (*dto.ApplicationResponse, error)
	ListForPublication(ctx context.Context, db *gorm.DB, ownerID, publicationID uint) ([]*dto.ApplicationResponse, error)
	ListMine(ctx context.Context, db *gorm.DB, studentID uint) ([]*dto.ApplicationResponse, error)
}

type ApplicationServiceImpl struct {
	applicationRepo repositories.ApplicationRepository
	publicationRepo repositories.PublicationRepository
	userRepo        repositories.UserRepository
	reviewRepo      repositories.ReviewRepository
	pendingCounter  PendingReviewCounter
	notifier        Notifier
	policy          ModerationPolicy
	metrics         *metrics.Metrics
}

func NewApplicationService(
	applicationRepo repositories.ApplicationRepository,
	publicationRepo repositories.PublicationRepository,
	userRepo repositories.UserRepository,
	reviewRepo repositories.ReviewRepository,
	pendingCounter PendingReviewCounter,
	notifier Notifier,
	policy ModerationPolicy,
	m *metrics.Metrics,
) ApplicationService {
	return &ApplicationServiceImpl{
		applicationRepo: applicationRepo,
		publicationRepo: publicationRepo,
		userRepo:        userRepo,
		reviewRepo:      reviewRepo,
		pendingCounter:  pendingCounter,
		notifier:        notifier,
		policy:          policy,
		metrics:         m,
	}
}

func (s *ApplicationServiceImpl) Apply(ctx context.Context, db *gorm.DB, studentID, publicationID uint, req *dto.ApplyRequest) (*dto.ApplicationResponse, error) {
	student, err := s.userRepo.FindByIDWithProfile(db, studentID)
	if err != nil {
		return nil, handleUserError(err)
	}
	if student.Role != models.UserRoleStudent {
		return nil, apperrors.ErrInvalidUserRole
	}

	publication, err := s.publicationRepo.FindByID(db, publicationID)
	if err != nil {
		return nil, handlePublicationError(err)
	}
	if !publication.IsOffer() {
		return nil, apperrors.ErrPublicationNotFound
	}
	if !publication.AcceptsApplications(time.Now().UTC()) {
		return nil, apperrors.ErrOfferClosedForApplications
	}
	if publication.OwnerID == student.ID {
		return nil, apperrors.ErrCannotApplyToOwnOffer
	}

	pending, err := s.pendingCounter.GetPendingReviewsCount(ctx, db, student.ID)
	if err != nil {
		return nil, err
	}
	if s.policy.IsThrottled(pending) {
		s.metrics.Throttled("apply")
		logger.CtxWarn(ctx, "Application blocked by pending reviews", "student_id", student.ID, "pending", pending)
		return nil, apperrors.ErrPendingReviewsLimit(pending, s.policy.PendingReviewThreshold)
	}

	application := &models.JobApplication{
		StudentID:     student.ID,
		PublicationID: publication.ID,
		Status:        models.ApplicationStatusPending,
		Motivation:    strings.TrimSpace(req.Motivation),
	}
	if err := s.applicationRepo.Create(db, application); err != nil {
		return nil, handleApplicationError(err)
	}

	application.Student = student
	application.Publication = publication

	logger.CtxInfo(ctx, "Application created", "application_id", application.ID, "publication_id", publication.ID)

	if s.notifier != nil {
		s.notifier.NotifyNewApplication(ctx, db, NewApplicationEvent{
			ApplicationID: application.ID,
			PublicationID: publication.ID,
			OwnerID:       publication.OwnerID,
			Title:         publication.Title,
			StudentName:   student.DisplayName(),
		})
	}
	return toApplicationResponse(application), nil
}

// UpdateStatus - решение оферента. Чужую заявку "не видно".
// При принятии в той же транзакции создается пустой отзыв по публикации (если его еще нет).
func (s *ApplicationServiceImpl) UpdateStatus(ctx context.Context, db *gorm.DB, offerorID, applicationID uint, status models.ApplicationStatus) (*dto.ApplicationResponse, error) {
	if status != models.ApplicationStatusAccepted && status != models.ApplicationStatusRejected {
		return nil, apperrors.NewBadRequestError("status must be accepted or rejected")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	application, err := s.applicationRepo.FindByID(tx, applicationID)
	if err != nil {
		return nil, handleApplicationError(err)
	}
	if application.Publication == nil || application.Publication.OwnerID != offerorID {
		return nil, apperrors.ErrApplicationNotFound
	}
	if !application.IsPending() {
		return nil, apperrors.ErrApplicationNotPending
	}

	application.Status = status
	if err := s.applicationRepo.UpdateStatus(tx, application, models.ApplicationStatusPending); err != nil {
		return nil, handleApplicationError(err)
	}

	if status == models.ApplicationStatusAccepted {
		if err := s.ensureReview(ctx, tx, application.PublicationID, application.StudentID, offerorID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Application status changed", "application_id", application.ID, "status", status)

	if s.notifier != nil {
		event := ApplicationStatusEvent{
			ApplicationID: application.ID,
			StudentID:     application.StudentID,
			OfferName:     application.Publication.Title,
			NewStatus:     status,
		}
		if application.Student != nil {
			event.StudentEmail = application.Student.Email
		}
		if application.Publication.Owner != nil {
			event.CompanyName = application.Publication.Owner.DisplayName()
		}
		s.notifier.NotifyApplicationStatus(ctx, db, event)
	}

	return toApplicationResponse(application), nil
}

// ensureReview - отзыв 1:1 с публикацией, повторное принятие его не создает
func (s *ApplicationServiceImpl) ensureReview(ctx context.Context, tx *gorm.DB, publicationID, studentID, offerorID uint) error {
	exists, err := s.reviewRepo.ExistsForPublication(tx, publicationID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if exists {
		logger.CtxDebug(ctx, "Review already exists for publication, skipping", "publication_id", publicationID)
		return nil
	}

	review := &models.Review{
		PublicationID: publicationID,
		StudentID:     studentID,
		OfferorID:     offerorID,
	}
	if err := s.reviewRepo.Create(tx, review); err != nil {
		return handleReviewError(err)
	}
	logger.CtxInfo(ctx, "Initial review created on acceptance", "review_id", review.ID, "publication_id", publicationID)
	return nil
}

func (s *ApplicationServiceImpl) GetApplication(ctx context.Context, db *gorm.DB, viewerID, applicationID uint) (*dto.ApplicationResponse, error) {
	application, err := s.applicationRepo.FindByID(db, applicationID)
	if err != nil {
		return nil, handleApplicationError(err)
	}

	isOwner := application.Publication != nil && application.Publication.OwnerID == viewerID
	if application.StudentID != viewerID && !isOwner {
		return nil, apperrors.ErrApplicationNotFound
	}
	return toApplicationResponse(application), nil
}

func (s *ApplicationServiceImpl) ListForPublication(ctx context.Context, db *gorm.DB, ownerID, publicationID uint) ([]*dto.ApplicationResponse, error) {
	publication, err := s.publicationRepo.FindByID(db, publicationID)
	if err != nil {
		return nil, handlePublicationError(err)
	}
	if publication.OwnerID != ownerID {
		return nil, apperrors.ErrPublicationNotFound
	}

	applications, err := s.applicationRepo.ListByPublication(db, publicationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]*dto.ApplicationResponse, 0, len(applications))
	for i := range applications {
		applications[i].Publication = publication
		out = append(out, toApplicationResponse(&applications[i]))
	}
	return out, nil
}

func (s *ApplicationServiceImpl) ListMine(ctx context.Context, db *gorm.DB, studentID uint) ([]*dto.ApplicationResponse, error) {
	applications, err := s.applicationRepo.ListByStudent(db, studentID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]*dto.ApplicationResponse, 0, len(applications))
	for i := range applications {
		out = append(out, toApplicationResponse(&applications[i]))
	}
	return out, nil
}

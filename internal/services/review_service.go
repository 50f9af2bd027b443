package services

import (
	"context"
	"errors"
	"strings"

	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/pkg/apperrors"

	"gorm.io/gorm"
)

type ReviewService interface {
	// Review operations
	CreateInitialReview(ctx context.Context, db *gorm.DB, req *dto.CreateInitialReviewRequest) (*dto.ReviewResponse, error)
	SubmitStudentHalf(ctx context.Context, db *gorm.DB, publicationID, offerorID uint, req *dto.StudentReviewRequest) (*dto.ReviewResponse, error)
	SubmitOfferorHalf(ctx context.Context, db *gorm.DB, publicationID, studentID uint, req *dto.OfferorReviewRequest) (*dto.ReviewResponse, error)

	// Throttle
	GetPendingReviewsCount(ctx context.Context, db *gorm.DB, userID uint) (int64, error)
	GetPendingStatus(ctx context.Context, db *gorm.DB, userID uint) (*dto.PendingReviewsCountResponse, error)

	// Read operations
	GetReview(ctx context.Context, db *gorm.DB, reviewID uint, viewer Viewer) (*dto.ReviewResponse, error)
	GetReviewByPublication(ctx context.Context, db *gorm.DB, publicationID uint, viewer Viewer) (*dto.ReviewResponse, error)
	ListMyReviews(ctx context.Context, db *gorm.DB, userID uint) ([]*dto.ReviewResponse, error)
	ListPendingReviews(ctx context.Context, db *gorm.DB, userID uint) ([]*dto.ReviewResponse, error)

	// Admin operations
	ListAllReviews(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.PaginatedResponse, error)
	AdminDeleteReviewPart(ctx context.Context, db *gorm.DB, reviewID uint, req *dto.DeleteReviewPartRequest) (*dto.ReviewResponse, error)
}

type ReviewServiceImpl struct {
	reviewRepo      repositories.ReviewRepository
	userRepo        repositories.UserRepository
	publicationRepo repositories.PublicationRepository
	policy          ModerationPolicy
	metrics         *metrics.Metrics
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	userRepo repositories.UserRepository,
	publicationRepo repositories.PublicationRepository,
	policy ModerationPolicy,
	m *metrics.Metrics,
) ReviewService {
	return &ReviewServiceImpl{
		reviewRepo:      reviewRepo,
		userRepo:        userRepo,
		publicationRepo: publicationRepo,
		policy:          policy,
		metrics:         m,
	}
}

// ---------------- Review Operations ----------------

func (s *ReviewServiceImpl) CreateInitialReview(ctx context.Context, db *gorm.DB, req *dto.CreateInitialReviewRequest) (*dto.ReviewResponse, error) {
	if req.StudentID == req.OfferorID {
		return nil, apperrors.ErrSelfReviewNotAllowed
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if _, err := s.publicationRepo.FindByID(tx, req.PublicationID); err != nil {
		return nil, handlePublicationError(err)
	}
	for _, id := range []uint{req.StudentID, req.OfferorID} {
		if _, err := s.userRepo.FindByID(tx, id); err != nil {
			return nil, handleUserError(err)
		}
	}

	review := &models.Review{
		PublicationID: req.PublicationID,
		StudentID:     req.StudentID,
		OfferorID:     req.OfferorID,
	}
	if err := s.reviewRepo.Create(tx, review); err != nil {
		return nil, handleReviewError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Initial review created",
		"review_id", review.ID,
		"publication_id", review.PublicationID,
		"student_id", review.StudentID,
		"offeror_id", review.OfferorID,
	)
	return dto.NewReviewResponse(review), nil
}

// SubmitStudentHalf - оферент оценивает студента
func (s *ReviewServiceImpl) SubmitStudentHalf(ctx context.Context, db *gorm.DB, publicationID, offerorID uint, req *dto.StudentReviewRequest) (*dto.ReviewResponse, error) {
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	checklist := models.ReviewChecklist{
		AtTime:                req.AtTime,
		GoodPresentation:      req.GoodPresentation,
		RespectfulWithOfferor: req.RespectfulWithOfferor,
	}

	review, err := s.submitHalf(ctx, db, publicationID, halfSubmission{
		side: "student",
		authorized: func(r *models.Review) bool {
			return r.OfferorID == offerorID
		},
		completed: func(r *models.Review) bool {
			return r.IsReviewForStudentCompleted
		},
		fill: func(r *models.Review) {
			r.FillStudentHalf(req.Rating, strings.TrimSpace(req.Comment), checklist)
		},
		guard:   repositories.StudentHalfNotCompleted,
		ratedID: func(r *models.Review) uint { return r.StudentID },
	})
	if err != nil {
		return nil, err
	}
	return dto.NewReviewResponse(review), nil
}

// SubmitOfferorHalf - студент оценивает оферента
func (s *ReviewServiceImpl) SubmitOfferorHalf(ctx context.Context, db *gorm.DB, publicationID, studentID uint, req *dto.OfferorReviewRequest) (*dto.ReviewResponse, error) {
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	review, err := s.submitHalf(ctx, db, publicationID, halfSubmission{
		side: "offeror",
		authorized: func(r *models.Review) bool {
			return r.StudentID == studentID
		},
		completed: func(r *models.Review) bool {
			return r.IsReviewForOfferorCompleted
		},
		fill: func(r *models.Review) {
			r.FillOfferorHalf(req.Rating, strings.TrimSpace(req.Comment))
		},
		guard:   repositories.OfferorHalfNotCompleted,
		ratedID: func(r *models.Review) uint { return r.OfferorID },
	})
	if err != nil {
		return nil, err
	}
	return dto.NewReviewResponse(review), nil
}

// halfSubmission описывает одну из двух симметричных половин отзыва
type halfSubmission struct {
	side       string
	authorized func(r *models.Review) bool
	completed  func(r *models.Review) bool
	fill       func(r *models.Review)
	guard      func(*gorm.DB) *gorm.DB
	ratedID    func(r *models.Review) uint
}

func (s *ReviewServiceImpl) submitHalf(ctx context.Context, db *gorm.DB, publicationID uint, h halfSubmission) (*models.Review, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	review, err := s.reviewRepo.FindByPublicationID(tx, publicationID)
	if err != nil {
		return nil, handleReviewError(err)
	}
	if !h.authorized(review) {
		return nil, apperrors.ErrNotReviewParty
	}
	if h.completed(review) {
		return nil, apperrors.ErrReviewAlreadySubmitted
	}

	h.fill(review)

	// guard повторяет проверку completed=false в WHERE: из двух гонщиков пройдет один
	if err := s.reviewRepo.UpdateWithVersion(tx, review, h.guard); err != nil {
		if errors.Is(err, repositories.ErrReviewVersionConflict) {
			return nil, s.resolveSubmitConflict(tx, publicationID, h)
		}
		return nil, handleReviewError(err)
	}

	if err := s.recomputeRating(tx, h.ratedID(review)); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.metrics.ReviewSubmitted(h.side)
	logger.CtxInfo(ctx, "Review half submitted",
		"review_id", review.ID,
		"side", h.side,
		"is_completed", review.IsCompleted,
	)
	return review, nil
}

// resolveSubmitConflict - версия не совпала: если половину уже отправили, это повторная отправка
func (s *ReviewServiceImpl) resolveSubmitConflict(tx *gorm.DB, publicationID uint, h halfSubmission) error {
	current, err := s.reviewRepo.FindByPublicationID(tx, publicationID)
	if err == nil && h.completed(current) {
		return apperrors.ErrReviewAlreadySubmitted
	}
	return apperrors.ErrConcurrentModification("review")
}

// recomputeRating пересчитывает средний рейтинг пользователя в той же транзакции
func (s *ReviewServiceImpl) recomputeRating(tx *gorm.DB, userID uint) error {
	avg, err := s.reviewRepo.AverageRatingReceived(tx, userID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.UpdateRating(tx, userID, avg); err != nil {
		return handleUserError(err)
	}
	return nil
}

func validateRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return apperrors.ErrInvalidRating
	}
	return nil
}

// ---------------- Throttle ----------------

func (s *ReviewServiceImpl) GetPendingReviewsCount(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	count, err := s.reviewRepo.CountPendingForUser(db, userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *ReviewServiceImpl) GetPendingStatus(ctx context.Context, db *gorm.DB, userID uint) (*dto.PendingReviewsCountResponse, error) {
	count, err := s.GetPendingReviewsCount(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	return &dto.PendingReviewsCountResponse{
		Count:     count,
		Threshold: s.policy.PendingReviewThreshold,
		Blocked:   s.policy.IsThrottled(count),
	}, nil
}

// ---------------- Read Operations ----------------

// GetReview - только участники и админ; остальным отзыв "не существует"
func (s *ReviewServiceImpl) GetReview(ctx context.Context, db *gorm.DB, reviewID uint, viewer Viewer) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(db, reviewID)
	if err != nil {
		return nil, handleReviewError(err)
	}
	if !viewer.IsAdmin() && !review.IsParty(viewer.UserID) {
		return nil, apperrors.ErrReviewNotFound
	}
	return dto.NewReviewResponse(review), nil
}

func (s *ReviewServiceImpl) GetReviewByPublication(ctx context.Context, db *gorm.DB, publicationID uint, viewer Viewer) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.FindByPublicationID(db, publicationID)
	if err != nil {
		return nil, handleReviewError(err)
	}
	if !viewer.IsAdmin() && !review.IsParty(viewer.UserID) {
		return nil, apperrors.ErrReviewNotFound
	}
	return dto.NewReviewResponse(review), nil
}

func (s *ReviewServiceImpl) ListMyReviews(ctx context.Context, db *gorm.DB, userID uint) ([]*dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toReviewResponses(reviews), nil
}

func (s *ReviewServiceImpl) ListPendingReviews(ctx context.Context, db *gorm.DB, userID uint) ([]*dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListPendingForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toReviewResponses(reviews), nil
}

func toReviewResponses(reviews []models.Review) []*dto.ReviewResponse {
	out := make([]*dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, dto.NewReviewResponse(&reviews[i]))
	}
	return out
}

// ---------------- Admin Operations ----------------

func (s *ReviewServiceImpl) ListAllReviews(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.PaginatedResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	reviews, total, err := s.reviewRepo.List(db, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(toReviewResponses(reviews), total, page, pageSize), nil
}

// AdminDeleteReviewPart стирает выбранные половины.
// DeleteStudentPart - написанное студентом, DeleteOfferorPart - написанное оферентом.
func (s *ReviewServiceImpl) AdminDeleteReviewPart(ctx context.Context, db *gorm.DB, reviewID uint, req *dto.DeleteReviewPartRequest) (*dto.ReviewResponse, error) {
	if !req.DeleteStudentPart && !req.DeleteOfferorPart {
		return nil, apperrors.ErrNoReviewPartSelected
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	review, err := s.reviewRepo.FindByID(tx, reviewID)
	if err != nil {
		return nil, handleReviewError(err)
	}

	if req.DeleteStudentPart {
		review.ClearStudentAuthoredPart()
	}
	if req.DeleteOfferorPart {
		review.ClearOfferorAuthoredPart()
	}

	if err := s.reviewRepo.UpdateWithVersion(tx, review); err != nil {
		return nil, handleReviewError(err)
	}

	// Студент писал об оференте, оферент - о студенте
	if req.DeleteStudentPart {
		if err := s.recomputeRating(tx, review.OfferorID); err != nil {
			return nil, err
		}
	}
	if req.DeleteOfferorPart {
		if err := s.recomputeRating(tx, review.StudentID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Review parts deleted by admin",
		"review_id", review.ID,
		"student_part", req.DeleteStudentPart,
		"offeror_part", req.DeleteOfferorPart,
	)
	return dto.NewReviewResponse(review), nil
}

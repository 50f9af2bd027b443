package repositories

import (
	"errors"

	"bolsafeucn/internal/models"

	"gorm.io/gorm"
)

var (
	ErrReviewNotFound        = errors.New("review not found")
	ErrReviewAlreadyExists   = errors.New("review already exists for this publication")
	ErrReviewVersionConflict = errors.New("review was modified concurrently")
)

type ReviewRepository interface {
	Create(db *gorm.DB, review *models.Review) error
	FindByID(db *gorm.DB, id uint) (*models.Review, error)
	FindByPublicationID(db *gorm.DB, publicationID uint) (*models.Review, error)
	ExistsForPublication(db *gorm.DB, publicationID uint) (bool, error)
	UpdateWithVersion(db *gorm.DB, review *models.Review, guards ...func(*gorm.DB) *gorm.DB) error

	CountPendingForUser(db *gorm.DB, userID uint) (int64, error)
	ListPendingForUser(db *gorm.DB, userID uint) ([]models.Review, error)
	ListByUser(db *gorm.DB, userID uint) ([]models.Review, error)
	List(db *gorm.DB, page, pageSize int) ([]models.Review, int64, error)

	AverageRatingReceived(db *gorm.DB, userID uint) (float64, error)
}

type ReviewRepositoryImpl struct{}

func NewReviewRepository() ReviewRepository {
	return &ReviewRepositoryImpl{}
}

// --- Guards для UpdateWithVersion ---

// StudentHalfNotCompleted - половина о студенте еще не отправлена
func StudentHalfNotCompleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_review_for_student_completed = ?", false)
}

// OfferorHalfNotCompleted - половина об оференте еще не отправлена
func OfferorHalfNotCompleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_review_for_offeror_completed = ?", false)
}

// pendingFor - отзывы, где своя половина пользователя не заполнена
func pendingFor(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"(student_id = ? AND is_review_for_offeror_completed = ?) OR (offeror_id = ? AND is_review_for_student_completed = ?)",
			userID, false, userID, false,
		)
	}
}

func (r *ReviewRepositoryImpl) Create(db *gorm.DB, review *models.Review) error {
	exists, err := r.ExistsForPublication(db, review.PublicationID)
	if err != nil {
		return err
	}
	if exists {
		return ErrReviewAlreadyExists
	}
	if review.Version == 0 {
		review.Version = 1
	}
	review.RecomputeCompletion()
	return db.Create(review).Error
}

func (r *ReviewRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.Review, error) {
	var review models.Review
	if err := db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) FindByPublicationID(db *gorm.DB, publicationID uint) (*models.Review, error) {
	var review models.Review
	if err := db.Where("publication_id = ?", publicationID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) ExistsForPublication(db *gorm.DB, publicationID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Review{}).Where("publication_id = ?", publicationID).Count(&count).Error
	return count > 0, err
}

// UpdateWithVersion перезаписывает обе половины отзыва при совпадении версии.
// guards добавляют условия в WHERE (например, StudentHalfNotCompleted),
// поэтому два одновременных запроса не могут оба пройти проверку.
func (r *ReviewRepositoryImpl) UpdateWithVersion(db *gorm.DB, review *models.Review, guards ...func(*gorm.DB) *gorm.DB) error {
	review.RecomputeCompletion()

	result := db.Model(&models.Review{}).
		Where("id = ? AND version = ?", review.ID, review.Version).
		Scopes(guards...).
		Updates(map[string]interface{}{
			"rating_for_student":              review.RatingForStudent,
			"comment_for_student":             review.CommentForStudent,
			"student_checklist":               review.StudentChecklist,
			"is_review_for_student_completed": review.IsReviewForStudentCompleted,
			"rating_for_offeror":              review.RatingForOfferor,
			"comment_for_offeror":             review.CommentForOfferor,
			"is_review_for_offeror_completed": review.IsReviewForOfferorCompleted,
			"is_completed":                    review.IsCompleted,
			"version":                         review.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewVersionConflict
	}
	review.Version++
	return nil
}

func (r *ReviewRepositoryImpl) CountPendingForUser(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Review{}).Scopes(pendingFor(userID)).Count(&count).Error
	return count, err
}

func (r *ReviewRepositoryImpl) ListPendingForUser(db *gorm.DB, userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := db.Scopes(pendingFor(userID)).Order("created_at ASC").Find(&reviews).Error
	return reviews, err
}

func (r *ReviewRepositoryImpl) ListByUser(db *gorm.DB, userID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := db.Where("student_id = ? OR offeror_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *ReviewRepositoryImpl) List(db *gorm.DB, page, pageSize int) ([]models.Review, int64, error) {
	var total int64
	if err := db.Model(&models.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)

	var reviews []models.Review
	err := db.Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&reviews).Error
	return reviews, total, err
}

type ratingAggregate struct {
	Total float64
	Cnt   int64
}

// AverageRatingReceived - среднее всех полученных пользователем оценок:
// как студентом (rating_for_student) и как оферентом (rating_for_offeror).
func (r *ReviewRepositoryImpl) AverageRatingReceived(db *gorm.DB, userID uint) (float64, error) {
	var asStudent, asOfferor ratingAggregate

	err := db.Model(&models.Review{}).
		Select("COALESCE(SUM(rating_for_student), 0) AS total, COUNT(rating_for_student) AS cnt").
		Where("student_id = ? AND is_review_for_student_completed = ?", userID, true).
		Scan(&asStudent).Error
	if err != nil {
		return 0, err
	}

	err = db.Model(&models.Review{}).
		Select("COALESCE(SUM(rating_for_offeror), 0) AS total, COUNT(rating_for_offeror) AS cnt").
		Where("offeror_id = ? AND is_review_for_offeror_completed = ?", userID, true).
		Scan(&asOfferor).Error
	if err != nil {
		return 0, err
	}

	count := asStudent.Cnt + asOfferor.Cnt
	if count == 0 {
		return 0, nil
	}
	return (asStudent.Total + asOfferor.Total) / float64(count), nil
}

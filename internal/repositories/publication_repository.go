package repositories

import (
	"errors"
	"time"

	"bolsafeucn/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPublicationNotFound        = errors.New("publication not found")
	ErrPublicationVersionConflict = errors.New("publication was modified concurrently")
)

// PublicationFilter - параметры выборки списка публикаций
type PublicationFilter struct {
	Type        models.PublicationType
	Status      models.PublicationStatus
	OwnerID     uint
	OnlyVisible bool
	Page        int
	PageSize    int
}

type PublicationRepository interface {
	Create(db *gorm.DB, publication *models.Publication) error
	FindByID(db *gorm.DB, id uint) (*models.Publication, error)
	FindByIDWithOwner(db *gorm.DB, id uint) (*models.Publication, error)
	UpdateStatus(db *gorm.DB, publication *models.Publication) error
	List(db *gorm.DB, filter PublicationFilter) ([]models.Publication, int64, error)
	FindExpiredOffers(db *gorm.DB, now time.Time) ([]models.Publication, error)
}

type PublicationRepositoryImpl struct{}

func NewPublicationRepository() PublicationRepository {
	return &PublicationRepositoryImpl{}
}

// Create сохраняет публикацию вместе с Offer/BuySell (GORM создает ассоциации сам)
func (r *PublicationRepositoryImpl) Create(db *gorm.DB, publication *models.Publication) error {
	if publication.Version == 0 {
		publication.Version = 1
	}
	return db.Create(publication).Error
}

func (r *PublicationRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.Publication, error) {
	var publication models.Publication
	err := db.Preload("Offer").Preload("BuySell").First(&publication, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublicationNotFound
		}
		return nil, err
	}
	return &publication, nil
}

func (r *PublicationRepositoryImpl) FindByIDWithOwner(db *gorm.DB, id uint) (*models.Publication, error) {
	var publication models.Publication
	err := db.Preload("Offer").Preload("BuySell").
		Preload("Owner").Scopes(WithProfiles("Owner.")).
		First(&publication, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublicationNotFound
		}
		return nil, err
	}
	return &publication, nil
}

// UpdateStatus записывает поля модерации только если версия в БД совпадает
// с версией, прочитанной вызывающим. Иначе ErrPublicationVersionConflict.
func (r *PublicationRepositoryImpl) UpdateStatus(db *gorm.DB, publication *models.Publication) error {
	result := db.Model(&models.Publication{}).
		Where("id = ? AND version = ?", publication.ID, publication.Version).
		Updates(map[string]interface{}{
			"status_validation":         publication.StatusValidation,
			"is_validated":              publication.IsValidated,
			"appeal_count":              publication.AppealCount,
			"admin_rejection_reason":    publication.AdminRejectionReason,
			"user_appeal_justification": publication.UserAppealJustification,
			"publication_date":          publication.PublicationDate,
			"version":                   publication.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPublicationVersionConflict
	}
	publication.Version++
	return nil
}

func (r *PublicationRepositoryImpl) List(db *gorm.DB, filter PublicationFilter) ([]models.Publication, int64, error) {
	query := db.Model(&models.Publication{})

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status_validation = ?", filter.Status)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.OnlyVisible {
		query = query.Where("is_validated = ? AND status_validation = ?", true, models.PublicationStatusPublished)
	}

	// Session, чтобы Count не испортил условия для Find
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	var publications []models.Publication
	err := query.Preload("Offer").Preload("BuySell").
		Preload("Owner").Scopes(WithProfiles("Owner.")).
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&publications).Error
	if err != nil {
		return nil, 0, err
	}
	return publications, total, nil
}

// FindExpiredOffers - опубликованные офферы с EndDate в прошлом
func (r *PublicationRepositoryImpl) FindExpiredOffers(db *gorm.DB, now time.Time) ([]models.Publication, error) {
	expired := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Offer{}).
		Select("publication_id").
		Where("end_date < ?", now)

	var publications []models.Publication
	err := db.Preload("Offer").
		Where("type = ? AND status_validation = ?", models.PublicationTypeOffer, models.PublicationStatusPublished).
		Where("id IN (?)", expired).
		Find(&publications).Error
	return publications, err
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

package repositories

import (
	"errors"

	"bolsafeucn/internal/models"

	"gorm.io/gorm"
)

var (
	ErrApplicationNotFound       = errors.New("application not found")
	ErrApplicationAlreadyExists  = errors.New("application already exists")
	ErrApplicationStatusConflict = errors.New("application status changed concurrently")
)

type ApplicationRepository interface {
	Create(db *gorm.DB, application *models.JobApplication) error
	FindByID(db *gorm.DB, id uint) (*models.JobApplication, error)
	Exists(db *gorm.DB, studentID, publicationID uint) (bool, error)
	ListByPublication(db *gorm.DB, publicationID uint) ([]models.JobApplication, error)
	ListByStudent(db *gorm.DB, studentID uint) ([]models.JobApplication, error)
	UpdateStatus(db *gorm.DB, application *models.JobApplication, from models.ApplicationStatus) error
}

type ApplicationRepositoryImpl struct{}

func NewApplicationRepository() ApplicationRepository {
	return &ApplicationRepositoryImpl{}
}

func (r *ApplicationRepositoryImpl) Create(db *gorm.DB, application *models.JobApplication) error {
	exists, err := r.Exists(db, application.StudentID, application.PublicationID)
	if err != nil {
		return err
	}
	if exists {
		return ErrApplicationAlreadyExists
	}
	if application.Status == "" {
		application.Status = models.ApplicationStatusPending
	}
	return db.Create(application).Error
}

// FindByID подгружает студента и публикацию с владельцем (для писем и проверок доступа)
func (r *ApplicationRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.JobApplication, error) {
	var application models.JobApplication
	err := db.Preload("Student").Scopes(WithProfiles("Student.")).
		Preload("Publication").Preload("Publication.Owner").Scopes(WithProfiles("Publication.Owner.")).
		First(&application, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &application, nil
}

func (r *ApplicationRepositoryImpl) Exists(db *gorm.DB, studentID, publicationID uint) (bool, error) {
	var count int64
	err := db.Model(&models.JobApplication{}).
		Where("student_id = ? AND publication_id = ?", studentID, publicationID).
		Count(&count).Error
	return count > 0, err
}

func (r *ApplicationRepositoryImpl) ListByPublication(db *gorm.DB, publicationID uint) ([]models.JobApplication, error) {
	var applications []models.JobApplication
	err := db.Preload("Student").Scopes(WithProfiles("Student.")).
		Where("publication_id = ?", publicationID).
		Order("created_at ASC").
		Find(&applications).Error
	return applications, err
}

func (r *ApplicationRepositoryImpl) ListByStudent(db *gorm.DB, studentID uint) ([]models.JobApplication, error) {
	var applications []models.JobApplication
	err := db.Preload("Publication").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&applications).Error
	return applications, err
}

// UpdateStatus меняет статус только если в БД все еще статус from.
func (r *ApplicationRepositoryImpl) UpdateStatus(db *gorm.DB, application *models.JobApplication, from models.ApplicationStatus) error {
	result := db.Model(&models.JobApplication{}).
		Where("id = ? AND status = ?", application.ID, from).
		Update("status", application.Status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationStatusConflict
	}
	return nil
}

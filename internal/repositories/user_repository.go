package repositories

import (
	"errors"
	"strings"

	"bolsafeucn/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	CreateProfile(db *gorm.DB, profile models.Profile) error
	FindByID(db *gorm.DB, id uint) (*models.User, error)
	FindByIDWithProfile(db *gorm.DB, id uint) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	UpdateRating(db *gorm.DB, id uint, rating float64) error
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

// WithProfiles подгружает все варианты профиля; у пользователя существует ровно один.
func WithProfiles(prefix string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Preload(prefix + "StudentProfile").
			Preload(prefix + "CompanyProfile").
			Preload(prefix + "IndividualProfile").
			Preload(prefix + "AdminProfile")
	}
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailAlreadyExists
	}
	return db.Create(user).Error
}

func (r *UserRepositoryImpl) CreateProfile(db *gorm.DB, profile models.Profile) error {
	return db.Create(profile).Error
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDWithProfile(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.Scopes(WithProfiles("")).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Scopes(WithProfiles("")).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) UpdateRating(db *gorm.DB, id uint, rating float64) error {
	result := db.Model(&models.User{}).Where("id = ?", id).Update("rating", rating)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

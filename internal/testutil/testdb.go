package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"bolsafeucn/database"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// NewTestDB открывает отдельную in-memory SQLite базу на тест и мигрирует схему.
// Одно соединение: все запросы (включая транзакции) идут через него.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "Не удалось открыть тестовую БД")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db), "Миграция тестовой БД не должна падать")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Context - контекст с логгером, который ничего не пишет
func Context() context.Context {
	return logger.WithLogger(context.Background(), logger.Discard())
}

// ==========================
// Пользователи
// ==========================

const DefaultPassword = "password123"

// CreateUser создает активного пользователя с профилем под его роль.
// Пароль всегда DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, role models.UserRole, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(user).Error, "Не удалось создать пользователя %s", email)

	switch role {
	case models.UserRoleStudent:
		user.StudentProfile = &models.StudentProfile{UserID: user.ID, FirstName: "Ana", LastName: "Rojas", Career: "Ingeniería Civil"}
		require.NoError(t, db.Create(user.StudentProfile).Error)
	case models.UserRoleCompany:
		user.CompanyProfile = &models.CompanyProfile{UserID: user.ID, CompanyName: "Minera Norte"}
		require.NoError(t, db.Create(user.CompanyProfile).Error)
	case models.UserRoleIndividual:
		user.IndividualProfile = &models.IndividualProfile{UserID: user.ID, FirstName: "Pedro", LastName: "Soto"}
		require.NoError(t, db.Create(user.IndividualProfile).Error)
	case models.UserRoleAdmin:
		user.AdminProfile = &models.AdminProfile{UserID: user.ID, FirstName: "Admin", SuperAdmin: true}
		require.NoError(t, db.Create(user.AdminProfile).Error)
	}
	return user
}

// ==========================
// Публикации и отзывы
// ==========================

// CreateOffer создает оффер напрямую в БД в заданном статусе
func CreateOffer(t *testing.T, db *gorm.DB, ownerID uint, status models.PublicationStatus) *models.Publication {
	t.Helper()

	now := time.Now().UTC()
	publication := &models.Publication{
		OwnerID:          ownerID,
		Type:             models.PublicationTypeOffer,
		Title:            "Práctica en terreno",
		Description:      "Apoyo en faena",
		StatusValidation: status,
		IsValidated:      status == models.PublicationStatusPublished,
		Version:          1,
		Offer: &models.Offer{
			EndDate:             now.Add(10 * 24 * time.Hour),
			ApplicationDeadline: now.Add(5 * 24 * time.Hour),
			Kind:                models.OfferKindInternship,
		},
	}
	if publication.IsValidated {
		publication.PublicationDate = &now
	}
	require.NoError(t, db.Create(publication).Error)
	return publication
}

// CreateReview создает пустой отзыв по публикации
func CreateReview(t *testing.T, db *gorm.DB, publicationID, studentID, offerorID uint) *models.Review {
	t.Helper()

	review := &models.Review{
		PublicationID: publicationID,
		StudentID:     studentID,
		OfferorID:     offerorID,
		Version:       1,
	}
	require.NoError(t, db.Create(review).Error)
	return review
}

// CreatePendingReviews создает n отзывов, в которых у студента не заполнена своя половина
func CreatePendingReviews(t *testing.T, db *gorm.DB, studentID uint, n int) []*models.Review {
	t.Helper()

	reviews := make([]*models.Review, 0, n)
	for i := 0; i < n; i++ {
		offeror := CreateUser(t, db, models.UserRoleCompany, fmt.Sprintf("offeror-%d-%d@test.cl", studentID, i))
		publication := CreateOffer(t, db, offeror.ID, models.PublicationStatusClosed)
		reviews = append(reviews, CreateReview(t, db, publication.ID, studentID, offeror.ID))
	}
	return reviews
}

package services_test

import (
	"context"
	"testing"
	"time"

	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	logger.Init("test")
	auth.Configure("test-secret", time.Hour)
}

type fixture struct {
	db       *gorm.DB
	ctx      context.Context
	notifier *testutil.RecordingNotifier

	moderation   services.ModerationService
	reviews      services.ReviewService
	applications services.ApplicationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	notifier := &testutil.RecordingNotifier{}
	policy := services.DefaultModerationPolicy()

	userRepo := repositories.NewUserRepository()
	publicationRepo := repositories.NewPublicationRepository()
	reviewRepo := repositories.NewReviewRepository()
	applicationRepo := repositories.NewApplicationRepository()

	reviewService := services.NewReviewService(reviewRepo, userRepo, publicationRepo, policy, nil)

	return &fixture{
		db:           db,
		ctx:          testutil.Context(),
		notifier:     notifier,
		reviews:      reviewService,
		moderation:   services.NewModerationService(publicationRepo, userRepo, reviewService, notifier, policy, nil),
		applications: services.NewApplicationService(applicationRepo, publicationRepo, userRepo, reviewRepo, reviewService, notifier, policy, nil),
	}
}

func offerRequest(end, deadline time.Time) *dto.CreatePublicationRequest {
	return &dto.CreatePublicationRequest{
		Type:        models.PublicationTypeOffer,
		Title:       "Práctica profesional",
		Description: "Práctica de verano en área de datos",
		Offer: &dto.OfferDetails{
			EndDate:             end,
			ApplicationDeadline: deadline,
			Remuneration:        400000,
			Kind:                models.OfferKindInternship,
		},
	}
}

func validOfferRequest() *dto.CreatePublicationRequest {
	now := time.Now().UTC()
	return offerRequest(now.Add(10*24*time.Hour), now.Add(5*24*time.Hour))
}

func (f *fixture) reload(t *testing.T, id uint) *models.Publication {
	t.Helper()
	var p models.Publication
	require.NoError(t, f.db.First(&p, id).Error)
	return &p
}

func (f *fixture) reloadReview(t *testing.T, id uint) *models.Review {
	t.Helper()
	var r models.Review
	require.NoError(t, f.db.First(&r, id).Error)
	return &r
}

func (f *fixture) ratingOf(t *testing.T, userID uint) float64 {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, userID).Error)
	return u.Rating
}

// assertCompletionInvariant - IsCompleted всегда равен AND двух флагов
func assertCompletionInvariant(t *testing.T, r *models.Review) {
	t.Helper()
	assert.Equal(t, r.IsReviewForStudentCompleted && r.IsReviewForOfferorCompleted, r.IsCompleted,
		"IsCompleted должен быть AND двух половин")
}

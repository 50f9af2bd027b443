package validator

import (
	"testing"
	"time"

	"bolsafeucn/internal/models"
	"bolsafeucn/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok, "ожидалась *ValidationError, получено %T", err)
	return vErr.Errors
}

func TestRegisterRequest(t *testing.T) {
	v := New()

	valid := &dto.RegisterRequest{
		Email:     "ana@alumnos.ucn.cl",
		Password:  "secreto123",
		Role:      models.UserRoleStudent,
		FirstName: "Ana",
	}
	assert.NoError(t, v.Validate(valid))

	// Админ не регистрируется сам
	admin := *valid
	admin.Role = models.UserRoleAdmin
	errs := validationErrors(t, v.Validate(&admin))
	assert.Contains(t, errs, "role")

	// Компании нужно название, имя не обязательно
	company := &dto.RegisterRequest{
		Email:    "rrhh@minera.cl",
		Password: "secreto123",
		Role:     models.UserRoleCompany,
	}
	errs = validationErrors(t, v.Validate(company))
	assert.Contains(t, errs, "company_name")
	assert.NotContains(t, errs, "first_name")

	company.CompanyName = "Minera Norte"
	assert.NoError(t, v.Validate(company))

	short := *valid
	short.Password = "corta"
	errs = validationErrors(t, v.Validate(&short))
	assert.Contains(t, errs["password"], "at least 8")
}

func TestCreatePublicationRequest(t *testing.T) {
	v := New()
	now := time.Now()

	req := &dto.CreatePublicationRequest{
		Type:        models.PublicationTypeOffer,
		Title:       "Práctica",
		Description: "Descripción",
	}
	errs := validationErrors(t, v.Validate(req))
	assert.Contains(t, errs, "offer")

	req.Offer = &dto.OfferDetails{
		EndDate:             now.Add(48 * time.Hour),
		ApplicationDeadline: now.Add(24 * time.Hour),
		Kind:                "freelance",
	}
	errs = validationErrors(t, v.Validate(req))
	assert.Contains(t, errs, "offer.kind")

	req.Offer.Kind = models.OfferKindJob
	assert.NoError(t, v.Validate(req))

	req.Type = "Servicio"
	errs = validationErrors(t, v.Validate(req))
	assert.Contains(t, errs, "type")
}

func TestReviewRequests(t *testing.T) {
	v := New()

	for _, rating := range []int{models.MinRating, 3, models.MaxRating} {
		assert.NoError(t, v.Validate(&dto.OfferorReviewRequest{Rating: rating}), "rating %d", rating)
	}
	for _, rating := range []int{0, 7} {
		errs := validationErrors(t, v.Validate(&dto.StudentReviewRequest{Rating: rating}))
		assert.Contains(t, errs, "rating", "rating %d", rating)
	}

	errs := validationErrors(t, v.Validate(&dto.CreateInitialReviewRequest{PublicationID: 1, StudentID: 7, OfferorID: 7}))
	assert.Contains(t, errs, "offeror_id")
}

func TestApplicationDecision(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusAccepted}))
	assert.NoError(t, v.Validate(&dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusRejected}))

	errs := validationErrors(t, v.Validate(&dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusPending}))
	assert.Contains(t, errs, "status")
}

func TestValidationError_MessageIsStable(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"title": "required", "description": "required"}}
	assert.Equal(t, "Validation failed: field 'description': required; field 'title': required", err.Error())
}

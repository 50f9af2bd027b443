package validator

import (
	"log"

	"bolsafeucn/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует правила, основанные на statuses.go
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка времени запуска, дальше работать нельзя
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	// Администраторы создаются только через seed
	mustRegister("is-self-register-role", validateSelfRegisterRole)
	mustRegister("is-publication-type", validatePublicationType)
	mustRegister("is-offer-kind", validateOfferKind)
	mustRegister("is-application-decision", validateApplicationDecision)
	mustRegister("rating-scale", validateRatingScale)
}

// --- Функции валидации ---
// Пустые строки пропускаем: для этого есть 'required'.

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.UserRole(value).IsValid()
}

func validateSelfRegisterRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.UserRole(value) {
	case models.UserRoleStudent, models.UserRoleCompany, models.UserRoleIndividual:
		return true
	default:
		return false
	}
}

func validatePublicationType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PublicationType(value).IsValid()
}

func validateOfferKind(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.OfferKind(value).IsValid()
}

func validateApplicationDecision(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.ApplicationStatus(value) {
	case models.ApplicationStatusAccepted, models.ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

func validateRatingScale(fl validator.FieldLevel) bool {
	rating := fl.Field().Int()
	return rating >= models.MinRating && rating <= models.MaxRating
}

package handlers

import (
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/validator"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	PublicationHandler  *PublicationHandler
	ApplicationHandler  *ApplicationHandler
	ReviewHandler       *ReviewHandler
	AdminHandler        *AdminHandler
	NotificationHandler *NotificationHandler
}

func NewAppHandlers(v *validator.Validator, sc *services.ServiceContainer) *AppHandlers {
	base := NewBaseHandler(v)
	return &AppHandlers{
		AuthHandler:         NewAuthHandler(base, sc.AuthService),
		PublicationHandler:  NewPublicationHandler(base, sc.ModerationService),
		ApplicationHandler:  NewApplicationHandler(base, sc.ApplicationService),
		ReviewHandler:       NewReviewHandler(base, sc.ReviewService),
		AdminHandler:        NewAdminHandler(base, sc.ModerationService, sc.ReviewService),
		NotificationHandler: NewNotificationHandler(base, sc.NotificationService),
	}
}

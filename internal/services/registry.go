package services

import (
	"bolsafeucn/internal/email"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/repositories"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	ModerationService   ModerationService
	ReviewService       ReviewService
	ApplicationService  ApplicationService
	NotificationService NotificationService
	Policy              ModerationPolicy
}

// NewServiceContainer собирает сервисы. pusher может быть nil (CLI, тесты).
func NewServiceContainer(
	policy ModerationPolicy,
	emailProvider email.Provider,
	pusher Pusher,
	m *metrics.Metrics,
) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	publicationRepo := repositories.NewPublicationRepository()
	reviewRepo := repositories.NewReviewRepository()
	applicationRepo := repositories.NewApplicationRepository()
	notificationRepo := repositories.NewNotificationRepository()

	notificationService := NewNotificationService(notificationRepo, emailProvider, pusher, m)
	reviewService := NewReviewService(reviewRepo, userRepo, publicationRepo, policy, m)

	return &ServiceContainer{
		AuthService:         NewAuthService(userRepo),
		ModerationService:   NewModerationService(publicationRepo, userRepo, reviewService, notificationService, policy, m),
		ReviewService:       reviewService,
		ApplicationService:  NewApplicationService(applicationRepo, publicationRepo, userRepo, reviewRepo, reviewService, notificationService, policy, m),
		NotificationService: notificationService,
		Policy:              policy,
	}
}

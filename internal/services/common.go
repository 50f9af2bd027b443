package services

import (
	"errors"

	"bolsafeucn/internal/config"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/pkg/apperrors"
)

// Viewer - кто смотрит ресурс. Нулевое значение - анонимный посетитель.
type Viewer struct {
	UserID uint
	Role   models.UserRole
}

func (v Viewer) IsAdmin() bool {
	return v.Role == models.UserRoleAdmin
}

func (v Viewer) IsAnonymous() bool {
	return v.UserID == 0
}

// ModerationPolicy - лимиты модерации
type ModerationPolicy struct {
	MaxAppeals             int
	PendingReviewThreshold int
}

func DefaultModerationPolicy() ModerationPolicy {
	return ModerationPolicy{
		MaxAppeals:             models.MaxAppeals,
		PendingReviewThreshold: models.PendingReviewThreshold,
	}
}

// PolicyFromConfig берет лимиты из конфига, нулевые значения заменяются значениями по умолчанию.
func PolicyFromConfig(cfg *config.Config) ModerationPolicy {
	p := DefaultModerationPolicy()
	if cfg == nil {
		return p
	}
	if cfg.Moderation.MaxAppeals > 0 {
		p.MaxAppeals = cfg.Moderation.MaxAppeals
	}
	if cfg.Moderation.PendingReviewThreshold > 0 {
		p.PendingReviewThreshold = cfg.Moderation.PendingReviewThreshold
	}
	return p
}

// IsThrottled - единое сравнение порога для всех мест вызова.
func (p ModerationPolicy) IsThrottled(pending int64) bool {
	return pending >= int64(p.PendingReviewThreshold)
}

// ==========================
// Маппинг ошибок репозиториев
// ==========================

func handlePublicationError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPublicationNotFound):
		return apperrors.ErrPublicationNotFound
	case errors.Is(err, repositories.ErrPublicationVersionConflict):
		return apperrors.ErrConcurrentModification("publication")
	}
	return apperrors.InternalError(err)
}

func handleReviewError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrReviewNotFound):
		return apperrors.ErrReviewNotFound
	case errors.Is(err, repositories.ErrReviewAlreadyExists):
		return apperrors.ErrReviewAlreadyExists
	case errors.Is(err, repositories.ErrReviewVersionConflict):
		return apperrors.ErrConcurrentModification("review")
	}
	return apperrors.InternalError(err)
}

func handleUserError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, repositories.ErrEmailAlreadyExists):
		return apperrors.ErrEmailTaken
	}
	return apperrors.InternalError(err)
}

func handleApplicationError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrApplicationNotFound):
		return apperrors.ErrApplicationNotFound
	case errors.Is(err, repositories.ErrApplicationAlreadyExists):
		return apperrors.ErrApplicationAlreadyExists
	case errors.Is(err, repositories.ErrApplicationStatusConflict):
		return apperrors.ErrApplicationNotPending
	}
	return apperrors.InternalError(err)
}

// ==========================
// Маппинг моделей в DTO
// ==========================

func toUserInfo(u *models.User) *dto.UserInfo {
	if u == nil {
		return nil
	}
	return &dto.UserInfo{
		ID:          u.ID,
		DisplayName: u.DisplayName(),
		Role:        string(u.Role),
		Rating:      u.Rating,
	}
}

func toPublicationResponse(p *models.Publication, maxAppeals int) *dto.PublicationResponse {
	resp := &dto.PublicationResponse{
		ID:                      p.ID,
		Type:                    p.Type,
		Title:                   p.Title,
		Description:             p.Description,
		StatusValidation:        p.StatusValidation,
		StatusLabel:             p.StatusValidation.Label(),
		IsValidated:             p.IsValidated,
		AppealCount:             p.AppealCount,
		RemainingAppeals:        p.RemainingAppeals(maxAppeals),
		AdminRejectionReason:    p.AdminRejectionReason,
		UserAppealJustification: p.UserAppealJustification,
		PublicationDate:         p.PublicationDate,
		CreatedAt:               p.CreatedAt,
		Owner:                   toUserInfo(p.Owner),
	}
	if p.Offer != nil {
		resp.Offer = &dto.OfferDetails{
			EndDate:             p.Offer.EndDate,
			ApplicationDeadline: p.Offer.ApplicationDeadline,
			Remuneration:        p.Offer.Remuneration,
			Kind:                p.Offer.Kind,
			Location:            p.Offer.Location,
			Requirements:        p.Offer.Requirements,
		}
	}
	if p.BuySell != nil {
		resp.BuySell = &dto.BuySellDetails{
			Price:     p.BuySell.Price,
			Category:  p.BuySell.Category,
			Condition: p.BuySell.Condition,
			Location:  p.BuySell.Location,
		}
	}
	return resp
}

func toApplicationResponse(a *models.JobApplication) *dto.ApplicationResponse {
	resp := &dto.ApplicationResponse{
		ID:            a.ID,
		PublicationID: a.PublicationID,
		Status:        a.Status,
		Motivation:    a.Motivation,
		Student:       toUserInfo(a.Student),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Publication != nil {
		resp.PublicationTitle = a.Publication.Title
	}
	return resp
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

package dto

import (
	"time"

	"bolsafeucn/internal/models"
)

// ======================
// Request DTOs
// ======================

type CreatePublicationRequest struct {
	Type        models.PublicationType `json:"type" validate:"required,is-publication-type"`
	Title       string                 `json:"title" validate:"required,min=3,max=200"`
	Description string                 `json:"description" validate:"required,max=5000"`

	Offer   *OfferDetails   `json:"offer,omitempty" validate:"required_if=Type Offer,omitempty"`
	BuySell *BuySellDetails `json:"buy_sell,omitempty" validate:"required_if=Type BuySell,omitempty"`
}

type OfferDetails struct {
	EndDate             time.Time        `json:"end_date" validate:"required"`
	ApplicationDeadline time.Time        `json:"application_deadline" validate:"required"`
	Remuneration        int              `json:"remuneration" validate:"min=0"`
	Kind                models.OfferKind `json:"kind" validate:"required,is-offer-kind"`
	Location            string           `json:"location" validate:"max=200"`
	Requirements        string           `json:"requirements" validate:"max=5000"`
}

type BuySellDetails struct {
	Price     int    `json:"price" validate:"min=0"`
	Category  string `json:"category" validate:"max=100"`
	Condition string `json:"condition" validate:"max=50"`
	Location  string `json:"location" validate:"max=200"`
}

type RejectPublicationRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type AppealPublicationRequest struct {
	Justification string `json:"justification" validate:"required,max=1000"`
}

type PublicationListQuery struct {
	Type     models.PublicationType `form:"type" validate:"omitempty,is-publication-type"`
	Page     int                    `form:"page" validate:"omitempty,min=1"`
	PageSize int                    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// ======================
// Response DTOs
// ======================

type PublicationResponse struct {
	ID                      uint                     `json:"id"`
	Type                    models.PublicationType   `json:"type"`
	Title                   string                   `json:"title"`
	Description             string                   `json:"description"`
	StatusValidation        models.PublicationStatus `json:"status_validation"`
	StatusLabel             string                   `json:"status_label"`
	IsValidated             bool                     `json:"is_validated"`
	AppealCount             int                      `json:"appeal_count"`
	RemainingAppeals        int                      `json:"remaining_appeals"`
	AdminRejectionReason    string                   `json:"admin_rejection_reason,omitempty"`
	UserAppealJustification string                   `json:"user_appeal_justification,omitempty"`
	PublicationDate         *time.Time               `json:"publication_date,omitempty"`
	CreatedAt               time.Time                `json:"created_at"`

	Owner   *UserInfo       `json:"owner,omitempty"`
	Offer   *OfferDetails   `json:"offer,omitempty"`
	BuySell *BuySellDetails `json:"buy_sell,omitempty"`
}

// AppealResponse - результат апелляции
type AppealResponse struct {
	Publication      *PublicationResponse `json:"publication"`
	RemainingAppeals int                  `json:"remaining_appeals"`
}

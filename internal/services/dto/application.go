package dto

import (
	"time"

	"bolsafeucn/internal/models"
)

type ApplyRequest struct {
	Motivation string `json:"motivation" validate:"max=3000"`
}

type UpdateApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,is-application-decision"`
}

type ApplicationResponse struct {
	ID               uint                     `json:"id"`
	PublicationID    uint                     `json:"publication_id"`
	PublicationTitle string                   `json:"publication_title,omitempty"`
	Status           models.ApplicationStatus `json:"status"`
	Motivation       string                   `json:"motivation"`
	Student          *UserInfo                `json:"student,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

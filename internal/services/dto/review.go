package dto

import (
	"time"

	"bolsafeucn/internal/models"
)

// ======================
// Request DTOs
// ======================

type CreateInitialReviewRequest struct {
	PublicationID uint `json:"publication_id" validate:"required"`
	StudentID     uint `json:"student_id" validate:"required"`
	OfferorID     uint `json:"offeror_id" validate:"required,nefield=StudentID"`
}

// StudentReviewRequest - оферент оценивает студента
type StudentReviewRequest struct {
	Rating                int    `json:"rating" validate:"required,rating-scale"`
	Comment               string `json:"comment" validate:"max=2000"`
	AtTime                bool   `json:"at_time"`
	GoodPresentation      bool   `json:"good_presentation"`
	RespectfulWithOfferor bool   `json:"respectful_with_offeror"`
}

// OfferorReviewRequest - студент оценивает оферента
type OfferorReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,rating-scale"`
	Comment string `json:"comment" validate:"max=2000"`
}

// DeleteReviewPartRequest - админ стирает части отзыва.
// DeleteStudentPart - то, что написал студент; DeleteOfferorPart - то, что написал оферент.
type DeleteReviewPartRequest struct {
	DeleteStudentPart bool `json:"delete_student_part"`
	DeleteOfferorPart bool `json:"delete_offeror_part"`
}

// ======================
// Response DTOs
// ======================

type ReviewResponse struct {
	ID            uint `json:"id"`
	PublicationID uint `json:"publication_id"`
	StudentID     uint `json:"student_id"`
	OfferorID     uint `json:"offeror_id"`

	RatingForStudent            *int                    `json:"rating_for_student"`
	CommentForStudent           *string                 `json:"comment_for_student"`
	StudentChecklist            *models.ReviewChecklist `json:"student_checklist,omitempty"`
	IsReviewForStudentCompleted bool                    `json:"is_review_for_student_completed"`

	RatingForOfferor            *int    `json:"rating_for_offeror"`
	CommentForOfferor           *string `json:"comment_for_offeror"`
	IsReviewForOfferorCompleted bool    `json:"is_review_for_offeror_completed"`

	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PendingReviewsCountResponse struct {
	Count     int64 `json:"count"`
	Threshold int   `json:"threshold"`
	Blocked   bool  `json:"blocked"`
}

func NewReviewResponse(r *models.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:                          r.ID,
		PublicationID:               r.PublicationID,
		StudentID:                   r.StudentID,
		OfferorID:                   r.OfferorID,
		RatingForStudent:            r.RatingForStudent,
		CommentForStudent:           r.CommentForStudent,
		StudentChecklist:            r.GetChecklist(),
		IsReviewForStudentCompleted: r.IsReviewForStudentCompleted,
		RatingForOfferor:            r.RatingForOfferor,
		CommentForOfferor:           r.CommentForOfferor,
		IsReviewForOfferorCompleted: r.IsReviewForOfferorCompleted,
		IsCompleted:                 r.IsCompleted,
		CreatedAt:                   r.CreatedAt,
		UpdatedAt:                   r.UpdatedAt,
	}
}

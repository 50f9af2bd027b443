package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Review - двусторонний отзыв, один на публикацию.
// Половина "ForStudent" пишется оферентом о студенте,
// половина "ForOfferor" - студентом об оференте.
type Review struct {
	BaseModel
	PublicationID uint `gorm:"uniqueIndex;not null" json:"publication_id"`
	StudentID     uint `gorm:"not null;index" json:"student_id"`
	OfferorID     uint `gorm:"not null;index" json:"offeror_id"`

	RatingForStudent            *int           `json:"rating_for_student"`
	CommentForStudent           *string        `gorm:"type:text" json:"comment_for_student"`
	StudentChecklist            datatypes.JSON `json:"student_checklist,omitempty"`
	IsReviewForStudentCompleted bool           `gorm:"default:false;not null" json:"is_review_for_student_completed"`

	RatingForOfferor            *int    `json:"rating_for_offeror"`
	CommentForOfferor           *string `gorm:"type:text" json:"comment_for_offeror"`
	IsReviewForOfferorCompleted bool    `gorm:"default:false;not null" json:"is_review_for_offeror_completed"`

	IsCompleted bool `gorm:"default:false;not null;index" json:"is_completed"`
	Version     int  `gorm:"default:1;not null" json:"-"`

	// Relations
	Publication *Publication `gorm:"foreignKey:PublicationID" json:"-"`
	Student     *User        `gorm:"foreignKey:StudentID" json:"-"`
	Offeror     *User        `gorm:"foreignKey:OfferorID" json:"-"`
}

// ReviewChecklist - чек-лист оферента о студенте.
type ReviewChecklist struct {
	AtTime                bool `json:"at_time"`
	GoodPresentation      bool `json:"good_presentation"`
	RespectfulWithOfferor bool `json:"respectful_with_offeror"`
}

// RecomputeCompletion восстанавливает инвариант
// IsCompleted == IsReviewForStudentCompleted && IsReviewForOfferorCompleted.
func (r *Review) RecomputeCompletion() {
	r.IsCompleted = r.IsReviewForStudentCompleted && r.IsReviewForOfferorCompleted
}

// FillStudentHalf - оферент оценивает студента.
func (r *Review) FillStudentHalf(rating int, comment string, checklist ReviewChecklist) {
	r.RatingForStudent = &rating
	r.CommentForStudent = &comment
	r.SetChecklist(checklist)
	r.IsReviewForStudentCompleted = true
	r.RecomputeCompletion()
}

// FillOfferorHalf - студент оценивает оферента.
func (r *Review) FillOfferorHalf(rating int, comment string) {
	r.RatingForOfferor = &rating
	r.CommentForOfferor = &comment
	r.IsReviewForOfferorCompleted = true
	r.RecomputeCompletion()
}

// ClearStudentAuthoredPart стирает то, что написал студент (оценку оферента).
func (r *Review) ClearStudentAuthoredPart() {
	r.RatingForOfferor = nil
	r.CommentForOfferor = nil
	r.IsReviewForOfferorCompleted = false
	r.RecomputeCompletion()
}

// ClearOfferorAuthoredPart стирает то, что написал оферент (оценку студента).
func (r *Review) ClearOfferorAuthoredPart() {
	r.RatingForStudent = nil
	r.CommentForStudent = nil
	r.StudentChecklist = nil
	r.IsReviewForStudentCompleted = false
	r.RecomputeCompletion()
}

// IsPendingFor - своя половина пользователя еще не заполнена.
func (r *Review) IsPendingFor(userID uint) bool {
	switch userID {
	case r.StudentID:
		return !r.IsReviewForOfferorCompleted
	case r.OfferorID:
		return !r.IsReviewForStudentCompleted
	}
	return false
}

func (r *Review) IsParty(userID uint) bool {
	return userID == r.StudentID || userID == r.OfferorID
}

// GetChecklist возвращает чек-лист (пустой, если не заполнен)
func (r *Review) GetChecklist() *ReviewChecklist {
	if len(r.StudentChecklist) == 0 {
		return nil
	}
	var checklist ReviewChecklist
	if err := json.Unmarshal(r.StudentChecklist, &checklist); err != nil {
		return nil
	}
	return &checklist
}

// SetChecklist сохраняет чек-лист как JSON
func (r *Review) SetChecklist(checklist ReviewChecklist) {
	data, _ := json.Marshal(checklist)
	r.StudentChecklist = datatypes.JSON(data)
}

package models

type JobApplication struct {
	BaseModel
	StudentID     uint              `gorm:"not null;uniqueIndex:idx_application_student_publication" json:"student_id"`
	PublicationID uint              `gorm:"not null;uniqueIndex:idx_application_student_publication;index" json:"publication_id"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Motivation    string            `gorm:"type:text" json:"motivation"`

	// Relations
	Student     *User        `gorm:"foreignKey:StudentID" json:"-"`
	Publication *Publication `gorm:"foreignKey:PublicationID" json:"-"`
}

func (a *JobApplication) IsPending() bool {
	return a.Status == ApplicationStatusPending
}

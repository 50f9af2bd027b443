package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationTypePublicationStatus = "publication_status"
	NotificationTypeApplicationStatus = "application_status"
	NotificationTypeNewApplication    = "new_application"
)

type Notification struct {
	BaseModel
	UserID  uint           `gorm:"not null;index" json:"user_id"`
	Type    string         `gorm:"size:50;not null" json:"type"`
	Title   string         `gorm:"not null" json:"title"`
	Message string         `gorm:"type:text" json:"message"`
	Data    datatypes.JSON `json:"data,omitempty"`
	IsRead  bool           `gorm:"default:false;index" json:"is_read"`
	ReadAt  *time.Time     `json:"read_at,omitempty"`
}

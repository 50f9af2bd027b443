package models

import (
	"time"
)

// BaseModel - общие поля всех таблиц.
// Числовой автоинкрементный ID работает одинаково в Postgres, MySQL и SQLite.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

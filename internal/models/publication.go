package models

import "time"

// Publication - общая часть оффера и объявления купли-продажи.
// Version - токен оптимистичной блокировки, растет на каждом переходе статуса.
type Publication struct {
	BaseModel
	OwnerID                 uint              `gorm:"not null;index" json:"owner_id"`
	Type                    PublicationType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Title                   string            `gorm:"size:200;not null" json:"title"`
	Description             string            `gorm:"type:text" json:"description"`
	StatusValidation        PublicationStatus `gorm:"type:varchar(20);not null;index" json:"status_validation"`
	IsValidated             bool              `gorm:"default:false;index" json:"is_validated"`
	AppealCount             int               `gorm:"default:0;not null;check:chk_publications_appeal_count,appeal_count >= 0 AND appeal_count <= 3" json:"appeal_count"`
	AdminRejectionReason    string            `json:"admin_rejection_reason,omitempty"`
	UserAppealJustification string            `json:"user_appeal_justification,omitempty"`
	PublicationDate         *time.Time        `json:"publication_date,omitempty"`
	Version                 int               `gorm:"default:1;not null" json:"-"`

	// Relations
	Owner   *User    `gorm:"foreignKey:OwnerID" json:"-"`
	Offer   *Offer   `gorm:"foreignKey:PublicationID" json:"offer,omitempty"`
	BuySell *BuySell `gorm:"foreignKey:PublicationID" json:"buy_sell,omitempty"`
}

type Offer struct {
	BaseModel
	PublicationID       uint      `gorm:"uniqueIndex;not null" json:"publication_id"`
	EndDate             time.Time `gorm:"not null;index" json:"end_date"`
	ApplicationDeadline time.Time `gorm:"not null" json:"application_deadline"`
	Remuneration        int       `json:"remuneration"`
	Kind                OfferKind `gorm:"type:varchar(20);not null" json:"kind"`
	Location            string    `json:"location"`
	Requirements        string    `gorm:"type:text" json:"requirements"`
}

type BuySell struct {
	BaseModel
	PublicationID uint   `gorm:"uniqueIndex;not null" json:"publication_id"`
	Price         int    `gorm:"not null" json:"price"`
	Category      string `json:"category"`
	Condition     string `json:"condition"`
	Location      string `json:"location"`
}

// TableName - иначе gorm назовет таблицу "buy_sells"
func (BuySell) TableName() string {
	return "buy_sell_listings"
}

func (p *Publication) IsOffer() bool {
	return p.Type == PublicationTypeOffer
}

// IsPubliclyVisible - видна ли публикация без авторизации.
func (p *Publication) IsPubliclyVisible() bool {
	return p.IsValidated && p.StatusValidation == PublicationStatusPublished
}

// RemainingAppeals - сколько апелляций еще доступно.
func (p *Publication) RemainingAppeals(maxAppeals int) int {
	if p.AppealCount >= maxAppeals {
		return 0
	}
	return maxAppeals - p.AppealCount
}

// AcceptsApplications - оффер опубликован и срок подачи не истек.
func (p *Publication) AcceptsApplications(now time.Time) bool {
	if !p.IsOffer() || p.Offer == nil || !p.IsPubliclyVisible() {
		return false
	}
	return now.Before(p.Offer.ApplicationDeadline)
}

// --- Переходы статуса (проверки предусловий выполняет сервис) ---

func (p *Publication) MarkPublished(now time.Time) {
	p.StatusValidation = PublicationStatusPublished
	p.IsValidated = true
	p.PublicationDate = &now
}

func (p *Publication) MarkRejected(reason string) {
	p.StatusValidation = PublicationStatusRejected
	p.IsValidated = false
	p.AdminRejectionReason = reason
}

func (p *Publication) MarkAppealed(justification string) {
	p.StatusValidation = PublicationStatusInProcess
	p.UserAppealJustification = justification
	p.AppealCount++
}

func (p *Publication) MarkClosed() {
	p.StatusValidation = PublicationStatusClosed
	p.IsValidated = false
}

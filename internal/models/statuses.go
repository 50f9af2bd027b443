package models

type UserStatus string
type UserRole string
type PublicationStatus string
type PublicationType string
type OfferKind string
type ApplicationStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleStudent    UserRole = "student"
	UserRoleCompany    UserRole = "company"
	UserRoleIndividual UserRole = "individual"
	UserRoleAdmin      UserRole = "admin"

	PublicationStatusInProcess PublicationStatus = "EnProceso"
	PublicationStatusPublished PublicationStatus = "Publicado"
	PublicationStatusRejected  PublicationStatus = "Rechazado"
	PublicationStatusClosed    PublicationStatus = "Cerrado"

	PublicationTypeOffer   PublicationType = "Offer"
	PublicationTypeBuySell PublicationType = "BuySell"

	OfferKindJob        OfferKind = "job"
	OfferKindInternship OfferKind = "internship"
	OfferKindVolunteer  OfferKind = "volunteer"

	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Лимиты модерации по умолчанию
const (
	MaxAppeals             = 3
	PendingReviewThreshold = 3
)

// Шкала оценки отзыва
const (
	MinRating = 1
	MaxRating = 6
)

// CanPublish - роли, которым разрешено создавать публикации.
func (r UserRole) CanPublish() bool {
	switch r {
	case UserRoleStudent, UserRoleCompany, UserRoleIndividual, UserRoleAdmin:
		return true
	}
	return false
}

func (r UserRole) IsValid() bool {
	return r.CanPublish()
}

// Label - текст статуса для писем и уведомлений.
func (s PublicationStatus) Label() string {
	switch s {
	case PublicationStatusPublished:
		return "Publicada"
	case PublicationStatusRejected:
		return "Rechazada"
	case PublicationStatusClosed:
		return "Cerrada"
	case PublicationStatusInProcess:
		return "En revisión"
	}
	return string(s)
}

func (t PublicationType) IsValid() bool {
	return t == PublicationTypeOffer || t == PublicationTypeBuySell
}

func (k OfferKind) IsValid() bool {
	switch k {
	case OfferKindJob, OfferKindInternship, OfferKindVolunteer:
		return true
	}
	return false
}

// Label - текст статуса заявки для писем.
func (s ApplicationStatus) Label() string {
	switch s {
	case ApplicationStatusAccepted:
		return "Aceptada"
	case ApplicationStatusRejected:
		return "Rechazada"
	}
	return "Pendiente"
}

package apperrors

import (
	"fmt"
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для ошибок бизнес-логики: публикации, отзывы, заявки.
*/

// =========================================================================
// Общие фабрики
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(domain, message string) *AppError {
	return New(CodeAlreadyExists, domain, message, http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - операция невозможна в текущем состоянии (409)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusConflict)
}

// ErrInvalidStatus - переход недопустим из текущего статуса (409)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// ErrConcurrentModification - запись изменили параллельно, версия не совпала (409)
func ErrConcurrentModification(domain string) *AppError {
	return New(CodeConflict, domain, "Resource was modified concurrently, retry the operation", http.StatusConflict)
}

// =========================================================================
// Пользователи
// =========================================================================

var ErrUserNotFound = New(CodeNotFound, "user", "User not found", http.StatusNotFound)

var ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid email or password", http.StatusUnauthorized)

var ErrEmailTaken = New(CodeAlreadyExists, "user", "Email is already registered", http.StatusConflict)

// ErrInvalidUserRole - роль пользователя не допускает операцию.
var ErrInvalidUserRole = New(CodeForbidden, "auth", "Invalid user role for this operation", http.StatusForbidden)

// ErrInsufficientPermissions - не-админ пытается выполнить админ-действие.
var ErrInsufficientPermissions = New(CodeForbidden, "auth", "Insufficient permissions", http.StatusForbidden)

var ErrAccountInactive = New(CodeForbidden, "auth", "Account is not active", http.StatusForbidden)

// =========================================================================
// Публикации
// =========================================================================

// ErrPublicationNotFound используется и для отсутствующей публикации,
// и для чужой, чтобы не раскрывать факт ее существования.
var ErrPublicationNotFound = New(CodeNotFound, "publication", "Publication not found", http.StatusNotFound)

var ErrNotPublicationOwner = New(CodeForbidden, "publication", "Only the owner can perform this action", http.StatusForbidden)

var ErrPublicationNotEditable = New(CodeInvalidStatus, "publication", "Publication is not awaiting moderation", http.StatusConflict)

var ErrPublicationAlreadyClosed = New(CodeInvalidStatus, "publication", "Publication is already closed", http.StatusConflict)

var ErrPublicationNotPublished = New(CodeInvalidStatus, "publication", "Publication is not published", http.StatusConflict)

var ErrAppealNotAllowed = New(CodeInvalidStatus, "publication", "Only rejected publications can be appealed", http.StatusConflict)

var ErrRejectionReasonRequired = New(CodeValidationFailed, "publication", "Rejection reason is required", http.StatusBadRequest)

// ErrAppealLimitReached - исчерпан лимит апелляций.
func ErrAppealLimitReached(maxAppeals int) *AppError {
	return New(CodeLimitExceeded, "publication",
		fmt.Sprintf("Appeal limit of %d reached", maxAppeals), http.StatusConflict)
}

// ErrPendingReviewsLimit - у пользователя слишком много незавершенных отзывов.
func ErrPendingReviewsLimit(pending int64, threshold int) *AppError {
	return New(CodeLimitExceeded, "review",
		fmt.Sprintf("You have %d pending reviews; complete them before continuing", pending), http.StatusConflict).
		WithDetails(map[string]interface{}{"pending_reviews": pending, "threshold": threshold})
}

// ErrInvalidPublicationDates - даты оффера заданы некорректно.
func ErrInvalidPublicationDates(message string) *AppError {
	return New(CodeValidationFailed, "publication", message, http.StatusBadRequest)
}

// =========================================================================
// Отзывы
// =========================================================================

var ErrReviewNotFound = New(CodeNotFound, "review", "Review not found", http.StatusNotFound)

var ErrReviewAlreadyExists = New(CodeAlreadyExists, "review", "A review already exists for this publication", http.StatusConflict)

var ErrReviewAlreadySubmitted = New(CodeInvalidOperation, "review", "You have already reviewed this engagement", http.StatusConflict)

var ErrNotReviewParty = New(CodeForbidden, "review", "You are not the expected reviewer for this review", http.StatusForbidden)

var ErrSelfReviewNotAllowed = New(CodeValidationFailed, "review", "Student and offeror must be different users", http.StatusBadRequest)

var ErrNoReviewPartSelected = New(CodeInvalidOperation, "review", "Select at least one review part to delete", http.StatusConflict)

var ErrInvalidRating = New(CodeValidationFailed, "review", "Rating must be between 1 and 6", http.StatusBadRequest)

// =========================================================================
// Заявки
// =========================================================================

var ErrApplicationNotFound = New(CodeNotFound, "application", "Application not found", http.StatusNotFound)

var ErrApplicationAlreadyExists = New(CodeAlreadyExists, "application", "You have already applied to this offer", http.StatusConflict)

var ErrApplicationNotPending = New(CodeInvalidStatus, "application", "Only pending applications can be decided", http.StatusConflict)

var ErrOfferClosedForApplications = New(CodeInvalidOperation, "application", "The offer is not accepting applications", http.StatusConflict)

var ErrCannotApplyToOwnOffer = New(CodeInvalidOperation, "application", "You cannot apply to your own offer", http.StatusConflict)

// =========================================================================
// Уведомления
// =========================================================================

var ErrNotificationNotFound = New(CodeNotFound, "notification", "Notification not found", http.StatusNotFound)

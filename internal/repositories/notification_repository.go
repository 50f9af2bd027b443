package repositories

import (
	"errors"
	"time"

	"bolsafeucn/internal/models"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(db *gorm.DB, notification *models.Notification) error
	ListByUser(db *gorm.DB, userID uint, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error)
	CountUnread(db *gorm.DB, userID uint) (int64, error)
	MarkAsRead(db *gorm.DB, userID, notificationID uint) error
	MarkAllAsRead(db *gorm.DB, userID uint) (int64, error)
	DeleteReadOlderThan(db *gorm.DB, before time.Time) (int64, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, notification *models.Notification) error {
	return db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) ListByUser(db *gorm.DB, userID uint, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	query := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)

	var notifications []models.Notification
	err := query.Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, userID, notificationID uint) error {
	now := time.Now().UTC()
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, userID uint) (int64, error) {
	now := time.Now().UTC()
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) DeleteReadOlderThan(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Where("is_read = ? AND created_at < ?", true, before).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

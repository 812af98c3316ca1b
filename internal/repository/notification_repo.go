package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/led-platform-api/internal/models"
)

// NotificationFilter narrows a user's notification inbox.
type NotificationFilter struct {
	Page
	UserID     uint
	UnreadOnly bool
	Now        time.Time
}

// NotificationRepository handles persistence for notification entities.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error)
	Unread(ctx context.Context, userID uint, now time.Time, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint, now time.Time) (int64, error)
	MarkRead(ctx context.Context, id, userID uint, at time.Time) (models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) live(ctx context.Context, userID uint, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", now)
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&notifications, 100).Error
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int64, error) {
	query := r.live(ctx, filter.UserID, filter.Now)
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	query, total, err := countAndPage(query, filter.Page, "created_at DESC, id DESC")
	if err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) Unread(ctx context.Context, userID uint, now time.Time, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var notifications []models.Notification
	err := r.live(ctx, userID, now).
		Where("read = ?", false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var count int64
	err := r.live(ctx, userID, now).Where("read = ?", false).Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint, at time.Time) (models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		return models.Notification{}, err
	}

	if notification.Read {
		return notification, nil
	}

	notification.Read = true
	notification.ReadAt = &at
	if err := r.db.WithContext(ctx).Model(&notification).
		Updates(map[string]interface{}{"read": true, "read_at": at}).Error; err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Where("expires_at IS NULL OR expires_at > ?", at).
		Updates(map[string]interface{}{"read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

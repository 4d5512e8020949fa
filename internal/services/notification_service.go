package services

import (
	"context"
	"fmt"

	"github.com/rmaciel/gestpay-api/internal/models"
	"github.com/rmaciel/gestpay-api/internal/repository"
)

// NotificationService manages in-app notifications for tenant operators
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// Notify creates a notification for a tenant operator
func (s *NotificationService) Notify(ctx context.Context, userID uint, notificationType, title, message string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notificationType,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.Notification, int64, error) {
	if !actor.Resolved() {
		return nil, 0, ErrUnauthenticated
	}
	notifications, total, err := s.notificationRepo.FindByUser(ctx, actor.UserID, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkAsRead marks one notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, actor Actor, id uint) error {
	if !actor.Resolved() {
		return ErrUnauthenticated
	}
	if err := s.notificationRepo.MarkAsRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks every unread notification of the actor as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, actor Actor) error {
	if !actor.Resolved() {
		return ErrUnauthenticated
	}
	if err := s.notificationRepo.MarkAllAsRead(ctx, actor.UserID); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

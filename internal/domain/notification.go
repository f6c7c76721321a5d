package domain

import (
	"context"
	"time"
)

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendReminder announces that a reminded anime airs at airsAt
	SendReminder(ctx context.Context, reminder Reminder, airsAt time.Time) error
}

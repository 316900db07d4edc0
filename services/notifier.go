package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier pushes a stored notification to its recipient. Delivery is
// best effort; the notifications table remains the source of truth.
type Notifier interface {
	Publish(ctx context.Context, n *models.Notification) error
	Close() error
}

// UserChannel is the pub/sub channel a user's client subscribes to
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// RedisNotifier publishes notifications to per-user Redis channels
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier connects to Redis and verifies the connection
func NewRedisNotifier(ctx context.Context, addr, password string, db int) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisNotifier{client: client}, nil
}

// Publish sends the notification JSON to the recipient's channel
func (r *RedisNotifier) Publish(ctx context.Context, n *models.Notification) error {
	msg, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := r.client.Publish(ctx, UserChannel(n.RecipientID), msg).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}

// LogNotifier writes notifications to the log. Used when Redis is not configured.
type LogNotifier struct{}

// Publish logs the notification
func (LogNotifier) Publish(ctx context.Context, n *models.Notification) error {
	logger.FromContext(ctx).Info("notification",
		zap.String("channel", UserChannel(n.RecipientID)),
		zap.String("type", n.Type),
		zap.Uint("order_id", n.OrderID),
		zap.Uint("notification_id", n.ID))
	return nil
}

// Close is a no-op
func (LogNotifier) Close() error { return nil }

var notifierInstance Notifier = LogNotifier{}

// InitNotifier selects Redis when addr is set and the log notifier otherwise
func InitNotifier(ctx context.Context, addr, password string, db int) (Notifier, error) {
	if addr == "" {
		notifierInstance = LogNotifier{}
		return notifierInstance, nil
	}
	n, err := NewRedisNotifier(ctx, addr, password, db)
	if err != nil {
		return nil, err
	}
	notifierInstance = n
	return n, nil
}

// GetNotifier returns the process notifier
func GetNotifier() Notifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

package services

import (
	"context"
	"sync"

	"github.com/kendall-kelly/edu-brokerage-api/models"
)

// RecordingNotifier keeps published notifications in memory for assertions
type RecordingNotifier struct {
	mu        sync.Mutex
	published []models.Notification
}

// Publish records a copy of n
func (r *RecordingNotifier) Publish(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	r.published = append(r.published, *n)
	r.mu.Unlock()
	return nil
}

// Close is a no-op
func (r *RecordingNotifier) Close() error { return nil }

// Published returns a copy of everything recorded so far
func (r *RecordingNotifier) Published() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.published))
	copy(out, r.published)
	return out
}

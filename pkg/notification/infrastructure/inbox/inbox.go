// Package inbox keeps recent notifications in memory for the admin feed.
package inbox

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalogadmin/pkg/notification/domain/model"
)

const DefaultCapacity = 100

// Inbox is a bounded, newest-first notification repository.
type Inbox struct {
	mu       sync.Mutex
	items    []*model.Notification
	capacity int
}

func New(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inbox{capacity: capacity}
}

func (i *Inbox) NextID() (uuid.UUID, error) { return uuid.NewRandom() }

func (i *Inbox) Create(n *model.Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	clone := *n
	i.items = append([]*model.Notification{&clone}, i.items...)
	if len(i.items) > i.capacity {
		i.items = i.items[:i.capacity]
	}
	return nil
}

func (i *Inbox) Update(n *model.Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx, item := range i.items {
		if item.ID == n.ID {
			clone := *n
			i.items[idx] = &clone
			return nil
		}
	}
	return model.ErrNotificationNotFound
}

// Recent returns up to limit notifications, newest first. A non-positive limit returns all.
func (i *Inbox) Recent(limit int) []model.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	if limit <= 0 || limit > len(i.items) {
		limit = len(i.items)
	}
	out := make([]model.Notification, 0, limit)
	for _, item := range i.items[:limit] {
		out = append(out, *item)
	}
	return out
}

// Send delivers to the feed itself: the notification is already stored by Create.
func (i *Inbox) Send(model.Notification) error { return nil }

// LogSender echoes notifications to the application log.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(logger logrus.FieldLogger) *LogSender {
	return &LogSender{log: logger.WithField("component", "notifications")}
}

func (s *LogSender) Send(n model.Notification) error {
	entry := s.log.WithFields(logrus.Fields{
		"notification": n.ID,
		"level":        n.Level.String(),
		"body":         n.Body,
	})
	if n.Level == model.Error {
		entry.Warn(n.Subject)
		return nil
	}
	entry.Info(n.Subject)
	return nil
}

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoSender             = errors.New("no sender configured for channel")
)

type NotificationChannel int

const (
	Inbox NotificationChannel = iota
	Log
)

func (c NotificationChannel) String() string {
	switch c {
	case Inbox:
		return "inbox"
	case Log:
		return "log"
	}
	return "unknown"
}

type Level int

const (
	Success Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "success"
}

type NotificationStatus int

const (
	Pending NotificationStatus = iota
	Sent
	Failed
)

func (s NotificationStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Sent:
		return "sent"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Notification is a user-visible message about the outcome of a catalog write.
type Notification struct {
	ID            uuid.UUID
	Level         Level
	Channel       NotificationChannel
	Subject       string
	Body          string
	Status        NotificationStatus
	FailureReason string
	CreatedAt     time.Time
	SentAt        *time.Time
}

type NotificationRepository interface {
	NextID() (uuid.UUID, error)
	Create(notification *Notification) error
	Update(notification *Notification) error
}

type NotificationSender interface {
	Send(notification Notification) error
}

package service

import (
	"fmt"
	"time"

	"catalogadmin/pkg/notification/domain/model"
)

type Event interface{ Type() string }
type EventDispatcher interface{ Dispatch(event Event) error }

type NotificationService interface {
	NotifyProductCreated(productID int, title string) error
	NotifyProductUpdated(productID int) error
	NotifyProductDeleted(productID int) error
	NotifyMutationFailed(action string, productID int, reason string) error
}

func NewNotificationService(repo model.NotificationRepository, senders map[model.NotificationChannel]model.NotificationSender, channel model.NotificationChannel, dispatcher EventDispatcher) NotificationService {
	return &notificationService{repo: repo, senders: senders, channel: channel, dispatcher: dispatcher}
}

type notificationService struct {
	repo       model.NotificationRepository
	senders    map[model.NotificationChannel]model.NotificationSender
	channel    model.NotificationChannel
	dispatcher EventDispatcher
}

func (s *notificationService) NotifyProductCreated(productID int, title string) error {
	subject := "Product created successfully!"
	body := fmt.Sprintf("Product %d %q was added to the catalog.", productID, title)

	return s.orchestrateSend(model.Success, subject, body)
}

func (s *notificationService) NotifyProductUpdated(productID int) error {
	subject := "Product updated successfully!"
	body := fmt.Sprintf("Product %d was updated.", productID)

	return s.orchestrateSend(model.Success, subject, body)
}

func (s *notificationService) NotifyProductDeleted(productID int) error {
	subject := "Product deleted successfully!"
	body := fmt.Sprintf("Product %d was removed from the catalog.", productID)

	return s.orchestrateSend(model.Success, subject, body)
}

func (s *notificationService) NotifyMutationFailed(action string, productID int, reason string) error {
	subject := fmt.Sprintf("Failed to %s product: %s", action, reason)
	body := reason
	if productID > 0 {
		body = fmt.Sprintf("Product %d: %s", productID, reason)
	}

	return s.orchestrateSend(model.Error, subject, body)
}

func (s *notificationService) orchestrateSend(level model.Level, subject, body string) error {
	notifID, err := s.repo.NextID()
	if err != nil {
		return err
	}
	notification := &model.Notification{
		ID:        notifID,
		Level:     level,
		Channel:   s.channel,
		Subject:   subject,
		Body:      body,
		Status:    model.Pending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(notification); err != nil {
		return err
	}

	sender, ok := s.senders[s.channel]
	if !ok {
		return fmt.Errorf("%w: %v", model.ErrNoSender, s.channel)
	}

	err = sender.Send(*notification)

	if err != nil {
		notification.Status = model.Failed
		notification.FailureReason = err.Error()
		s.dispatch(model.NotificationFailed{
			NotificationID: notifID, Channel: s.channel, Reason: err.Error(),
		})
	} else {
		now := time.Now().UTC()
		notification.Status = model.Sent
		notification.SentAt = &now
		s.dispatch(model.NotificationSent{
			NotificationID: notifID, Channel: s.channel, Level: level,
		})
	}

	return s.repo.Update(notification)
}

func (s *notificationService) dispatch(event Event) {
	if s.dispatcher != nil {
		_ = s.dispatcher.Dispatch(event)
	}
}

package application

import (
	"github.com/sirupsen/logrus"

	"catalogadmin/pkg/notification/domain/model"
	"catalogadmin/pkg/notification/domain/service"
)

// DeliveryLogger records the outcome of every notification delivery.
type DeliveryLogger struct {
	log logrus.FieldLogger
}

var _ service.EventDispatcher = (*DeliveryLogger)(nil)

func NewDeliveryLogger(logger logrus.FieldLogger) *DeliveryLogger {
	return &DeliveryLogger{log: logger.WithField("component", "notifications")}
}

func (d *DeliveryLogger) Dispatch(event service.Event) error {
	switch e := event.(type) {
	case model.NotificationSent:
		d.log.WithFields(logrus.Fields{
			"notification": e.NotificationID,
			"channel":      e.Channel.String(),
			"level":        e.Level.String(),
		}).Debug("notification delivered")
	case model.NotificationFailed:
		d.log.WithFields(logrus.Fields{
			"notification": e.NotificationID,
			"channel":      e.Channel.String(),
			"reason":       e.Reason,
		}).Warn("notification delivery failed")
	default:
		return ErrUnknownEvent
	}
	return nil
}

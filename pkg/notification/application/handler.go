package application

import (
	"github.com/pkg/errors"

	catalogmodel "catalogadmin/pkg/catalog/domain/model"
	catalogservice "catalogadmin/pkg/catalog/domain/service"
	"catalogadmin/pkg/notification/domain/service"
)

var ErrUnknownEvent = errors.New("unknown catalog event")

// CatalogEventHandler turns catalog mutation events into notifications.
type CatalogEventHandler struct {
	notifications service.NotificationService
}

var _ catalogservice.EventDispatcher = (*CatalogEventHandler)(nil)

func NewCatalogEventHandler(notifications service.NotificationService) *CatalogEventHandler {
	return &CatalogEventHandler{notifications: notifications}
}

func (h *CatalogEventHandler) Dispatch(event catalogservice.Event) error {
	switch e := event.(type) {
	case catalogmodel.ProductCreated:
		return h.notifications.NotifyProductCreated(e.Product.ID, e.Product.Title)
	case catalogmodel.ProductUpdated:
		return h.notifications.NotifyProductUpdated(e.ProductID)
	case catalogmodel.ProductDeleted:
		return h.notifications.NotifyProductDeleted(e.ProductID)
	case catalogmodel.MutationFailed:
		reason := "unknown error"
		if e.Err != nil {
			reason = e.Err.Error()
		}
		return h.notifications.NotifyMutationFailed(e.Kind.String(), e.ProductID, reason)
	}
	return errors.Wrap(ErrUnknownEvent, event.Type())
}

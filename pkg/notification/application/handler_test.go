package application_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmodel "catalogadmin/pkg/catalog/domain/model"
	"catalogadmin/pkg/notification/application"
	"catalogadmin/pkg/notification/domain/model"
	"catalogadmin/pkg/notification/domain/service"
	"catalogadmin/pkg/notification/infrastructure/inbox"
)

func setup() (*application.CatalogEventHandler, *inbox.Inbox) {
	box := inbox.New(0)
	notifier := service.NewNotificationService(
		box,
		map[model.NotificationChannel]model.NotificationSender{model.Inbox: box},
		model.Inbox,
		nil,
	)
	return application.NewCatalogEventHandler(notifier), box
}

func TestCatalogEventsBecomeNotifications(t *testing.T) {
	handler, box := setup()

	require.NoError(t, handler.Dispatch(catalogmodel.ProductCreated{
		MutationID: uuid.New(),
		Product:    catalogmodel.Product{ID: 31, Title: "Desk Lamp"},
	}))
	require.NoError(t, handler.Dispatch(catalogmodel.ProductUpdated{MutationID: uuid.New(), ProductID: 31}))
	require.NoError(t, handler.Dispatch(catalogmodel.ProductDeleted{MutationID: uuid.New(), ProductID: 31}))
	require.NoError(t, handler.Dispatch(catalogmodel.MutationFailed{
		MutationID: uuid.New(),
		Kind:       catalogmodel.UpdateMutation,
		ProductID:  31,
		Err:        errors.New("remote down"),
	}))

	recent := box.Recent(0)
	require.Len(t, recent, 4)
	assert.Equal(t, "Failed to update product: remote down", recent[0].Subject)
	assert.Equal(t, model.Error, recent[0].Level)
	assert.Equal(t, "Product deleted successfully!", recent[1].Subject)
	assert.Equal(t, "Product updated successfully!", recent[2].Subject)
	assert.Equal(t, "Product created successfully!", recent[3].Subject)
	for _, n := range recent {
		assert.Equal(t, model.Sent, n.Status)
	}
}

type unknownEvent struct{}

func (unknownEvent) Type() string { return "Unknown" }

func TestUnknownEvent(t *testing.T) {
	handler, box := setup()

	err := handler.Dispatch(unknownEvent{})
	assert.ErrorIs(t, err, application.ErrUnknownEvent)
	assert.Empty(t, box.Recent(0))
}

func TestDeliveryLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	delivery := application.NewDeliveryLogger(logger)

	require.NoError(t, delivery.Dispatch(model.NotificationSent{NotificationID: uuid.New(), Channel: model.Inbox}))
	require.NoError(t, delivery.Dispatch(model.NotificationFailed{NotificationID: uuid.New(), Reason: "smtp down"}))
	assert.ErrorIs(t, delivery.Dispatch(unknownEvent{}), application.ErrUnknownEvent)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, "smtp down", entries[1].Data["reason"])
}

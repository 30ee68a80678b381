package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	"github.com/lucasmerida/storely-backend/pkg/i18n"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/outbox"
	"github.com/lucasmerida/storely-backend/pkg/outbox/idempotency"
	"github.com/lucasmerida/storely-backend/pkg/outbox/payloads"
)

const settlementNotificationConsumer = "settlement-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns settlement events into store inbox notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	printer      *i18n.Printer
	logg         *logger.Logger
}

// NewConsumer builds a settlement notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, printer *i18n.Printer, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if printer == nil {
		return nil, fmt.Errorf("printer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		printer:      printer,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventPaymentReceived && eventType != enums.EventReservationStatusChanged {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, settlementNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, settlementNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventPaymentReceived:
		var payload payloads.PaymentReceivedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyPaymentReceived(ctx, payload, logCtx)
	case enums.EventReservationStatusChanged:
		var payload payloads.ReservationStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyReservationStatus(ctx, payload, logCtx)
	default:
		return nil
	}
}

func (c *Consumer) notifyPaymentReceived(ctx context.Context, payload payloads.PaymentReceivedEvent, logCtx context.Context) error {
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id missing")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	notification := &models.Notification{
		StoreID: payload.StoreID,
		Topic:   enums.NotificationTopicPaymentReceived,
		Title:   c.printer.T("notification.payment_received.title"),
		Body: c.printer.T("notification.payment_received.body",
			payload.OrderID.String(), payload.Amount.String(), string(payload.Currency)),
		Targets: pq.StringArray{"store_staff"},
		Data:    data,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "store notified of payment")
	return nil
}

func (c *Consumer) notifyReservationStatus(ctx context.Context, payload payloads.ReservationStatusChangedEvent, logCtx context.Context) error {
	if payload.StoreID == uuid.Nil {
		return fmt.Errorf("store id missing")
	}
	topic := enums.NotificationTopicReservationStatusChanged
	title := fmt.Sprintf("Reservation %s is now %s", payload.ReservationID, payload.To)
	if payload.To == enums.ReservationStatusReady {
		topic = enums.NotificationTopicReservationReady
		title = c.printer.T("notification.reservation_ready.title")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	notification := &models.Notification{
		StoreID: payload.StoreID,
		Topic:   topic,
		Title:   title,
		Body:    fmt.Sprintf("Reservation %s moved from %s to %s.", payload.ReservationID, payload.From, payload.To),
		Targets: pq.StringArray{"store_staff"},
		Data:    data,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "reservation status notification created")
	return nil
}

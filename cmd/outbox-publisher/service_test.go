package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/lucasmerida/storely-backend/pkg/config"
	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/outbox"
	"github.com/lucasmerida/storely-backend/pkg/outbox/payloads"
	"github.com/lucasmerida/storely-backend/pkg/outbox/registry"
)

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error            { return nil }
func (fakePubSub) Publisher(string) *gcppubsub.Publisher { return nil }

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	discarded []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	out := f.events
	f.events = nil
	return out, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) Discard(id uuid.UUID, maxAttempts int, err error) error {
	f.discarded = append(f.discarded, id)
	return nil
}

type fakePublisher struct {
	topic string
	msgs  []*gcppubsub.Message
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.msgs = append(f.msgs, msg)
	return fakeResult{err: f.err}
}

type fakeResult struct{ err error }

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

func testEvent(t *testing.T, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, data interface{}) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   uuid.New(),
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}

func newTestService(t *testing.T, repo *fakeRepo, factory publisherFactory) *Service {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{DomainTopic: "domain", NotificationTopic: "notification"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Config: &config.Config{Outbox: config.OutboxConfig{
			BatchSize:      10,
			PollIntervalMS: 10,
			MaxAttempts:    3,
		}},
		Logger:           logger.New(logger.Options{ServiceName: "test"}),
		DB:               fakeDB{},
		PubSub:           fakePubSub{},
		Repository:       repo,
		Registry:         reg,
		PublisherFactory: factory,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesResolvedEvents(t *testing.T) {
	event := testEvent(t, enums.EventOrderPaid, enums.AggregateOrder, payloads.OrderPaidEvent{})
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, func(topic string) publisher {
		pub.topic = topic
		return pub
	})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatalf("expected processed batch")
	}
	if pub.topic != "domain" {
		t.Fatalf("topic = %q, want domain", pub.topic)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	if pub.msgs[0].Attributes["event_type"] != string(enums.EventOrderPaid) {
		t.Fatalf("event_type attribute = %q", pub.msgs[0].Attributes["event_type"])
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
}

func TestProcessBatchDiscardsUnresolvableEvent(t *testing.T) {
	event := testEvent(t, enums.OutboxEventType("order.vanished"), enums.AggregateOrder, payloads.OrderPaidEvent{})
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, func(string) publisher { return pub })

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("nothing should publish for an unknown event type")
	}
	if len(repo.discarded) != 1 || repo.discarded[0] != event.ID {
		t.Fatalf("expected discard, got %v", repo.discarded)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("unknown types must not burn retry attempts")
	}
}

func TestProcessBatchRetryableFailureMarksFailed(t *testing.T) {
	event := testEvent(t, enums.EventPaymentReceived, enums.AggregateOrder, payloads.PaymentReceivedEvent{})
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("pubsub unavailable")}
	svc := newTestService(t, repo, func(string) publisher { return pub })

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected mark failed, got %v", repo.failed)
	}
	if len(repo.published) != 0 || len(repo.discarded) != 0 {
		t.Fatalf("retryable failure must not publish or discard")
	}
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, func(string) publisher { return &fakePublisher{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

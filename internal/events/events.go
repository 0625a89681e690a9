// Package events exports friend-graph and message events to other services.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	FriendRequestSent      = "friend.request_sent"
	FriendRequestAccepted  = "friend.request_accepted"
	FriendRequestRejected  = "friend.request_rejected"
	FriendRequestWithdrawn = "friend.request_withdrawn"
	FriendRemoved          = "friend.removed"
	MessageCreated         = "message.created"
)

// Event describes something that happened between two users.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actorId"`
	TargetID   uint      `json:"targetId"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Key groups events of the same user pair onto one partition.
func (e Event) Key() string {
	lo, hi := e.ActorID, e.TargetID
	if lo > hi {
		lo, hi = hi, lo
	}
	return strconv.FormatUint(uint64(lo), 10) + "_" + strconv.FormatUint(uint64(hi), 10)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit publishes e and only logs a failure; event export never fails the caller.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "actor", e.ActorID, "target", e.TargetID, "error", err)
	}
}

// KafkaPublisher writes events as JSON to a single topic.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key()),
		Value: value,
		Time:  e.OccurredAt,
	})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

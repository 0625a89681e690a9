// Package chat stores direct messages and hands them to the live delivery rooms.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/events"
	"lounge/backend/internal/hub"
	"lounge/backend/internal/models"
)

// MaxTextLength is the longest message text accepted, in runes.
const MaxTextLength = 2000

// EventMessageReceived is the live event pushed to the receiver's room.
const EventMessageReceived = "messageReceived"

// MessageReceived is the payload of EventMessageReceived.
type MessageReceived struct {
	ID              uint      `json:"id,omitempty"`
	SenderID        uint      `json:"senderId"`
	ReceiverID      uint      `json:"receiverId"`
	Text            string    `json:"text"`
	ConversationKey string    `json:"conversationKey"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Broadcaster delivers an event to every live connection of a user.
type Broadcaster interface {
	Broadcast(userID uint, event hub.Event) int
}

type Service struct {
	store  Store
	rooms  Broadcaster
	events events.Publisher
	now    func() time.Time
}

func NewService(store Store, rooms Broadcaster, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:  store,
		rooms:  rooms,
		events: pub,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Append validates and persists a message with status sent.
func (s *Service) Append(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error) {
	msg, err := s.newMessage(senderID, receiverID, text)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, msg); err != nil {
		return nil, apperror.Storage("failed to save message", err)
	}

	events.Emit(ctx, s.events, events.Event{
		Type:     events.MessageCreated,
		ActorID:  senderID,
		TargetID: receiverID,
		Payload:  msg,
	})
	return msg, nil
}

// History returns the conversation between a and b, oldest first.
func (s *Service) History(ctx context.Context, a, b uint) ([]models.Message, error) {
	messages, err := s.store.ListByConversation(ctx, ConversationKey(a, b))
	if err != nil {
		return nil, apperror.Storage("failed to load conversation", err)
	}
	return messages, nil
}

// SendMessage persists the message, then pushes it to the receiver's room.
// The live push happens even when persisting failed; a receiver without an
// open connection simply picks the message up from History later.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error) {
	msg, err := s.Append(ctx, senderID, receiverID, text)
	if apperror.Is(err, apperror.KindInvalidOperation) {
		return nil, err
	}

	live := MessageReceived{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		Text:            strings.TrimSpace(text),
		ConversationKey: ConversationKey(senderID, receiverID),
		CreatedAt:       s.now(),
	}
	if msg != nil {
		live.ID = msg.ID
		live.Text = msg.Text
		live.CreatedAt = msg.CreatedAt
	} else {
		slog.Error("message not persisted, delivering live only",
			"sender", senderID, "receiver", receiverID, "error", err)
	}

	delivered := s.rooms.Broadcast(receiverID, hub.Event{Type: EventMessageReceived, Payload: live})
	slog.Debug("message broadcast", "conversation", live.ConversationKey, "connections", delivered)

	return msg, err
}

func (s *Service) newMessage(senderID, receiverID uint, text string) (*models.Message, error) {
	if senderID == 0 || receiverID == 0 {
		return nil, apperror.Invalid("sender and receiver are required")
	}
	if senderID == receiverID {
		return nil, apperror.Invalid("cannot send a message to yourself")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Invalid("message text is empty")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, apperror.Invalid("message text is too long")
	}

	return &models.Message{
		ConversationKey: ConversationKey(senderID, receiverID),
		SenderID:        senderID,
		ReceiverID:      receiverID,
		Text:            text,
		Status:          models.MessageStatusSent,
		CreatedAt:       s.now(),
	}, nil
}

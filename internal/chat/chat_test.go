package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/events"
	"lounge/backend/internal/hub"
	"lounge/backend/internal/models"
	"lounge/backend/internal/testutil"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRooms struct {
	mu   sync.Mutex
	sent map[uint][]hub.Event
}

func newRecordingRooms() *recordingRooms {
	return &recordingRooms{sent: make(map[uint][]hub.Event)}
}

func (r *recordingRooms) Broadcast(userID uint, event hub.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[userID] = append(r.sent[userID], event)
	return 1
}

func (r *recordingRooms) eventsFor(userID uint) []hub.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[userID]
}

type failingStore struct{ err error }

func (s failingStore) Create(context.Context, *models.Message) error { return s.err }

func (s failingStore) ListByConversation(context.Context, string) ([]models.Message, error) {
	return nil, s.err
}

func newTestService(t *testing.T) (*Service, *recordingRooms, *events.Recorder) {
	t.Helper()
	rooms := newRecordingRooms()
	rec := &events.Recorder{}
	return NewService(NewGormStore(testutil.NewDB(t)), rooms, rec), rooms, rec
}

func TestConversationKey(t *testing.T) {
	assert.Equal(t, "1_2", ConversationKey(1, 2))
	assert.Equal(t, ConversationKey(1, 2), ConversationKey(2, 1))
	// Ordering is on the decimal strings, not the numbers.
	assert.Equal(t, "10_9", ConversationKey(9, 10))
	assert.Equal(t, "10_9", ConversationKey(10, 9))
}

func TestSendMessage_OfflineReceiverReadsHistory(t *testing.T) {
	svc, rooms, rec := newTestService(t)
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, 1, 2, "  hi ")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "1_2", msg.ConversationKey)
	assert.Equal(t, models.MessageStatusSent, msg.Status)

	live := rooms.eventsFor(2)
	require.Len(t, live, 1)
	assert.Equal(t, EventMessageReceived, live[0].Type)
	payload := live[0].Payload.(MessageReceived)
	assert.Equal(t, msg.ID, payload.ID)
	assert.Equal(t, "hi", payload.Text)
	assert.Empty(t, rooms.eventsFor(1), "the sender's room is not notified")

	history, err := svc.History(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Text)
	assert.Equal(t, uint(1), history[0].SenderID)
	assert.Equal(t, uint(2), history[0].ReceiverID)

	assert.Equal(t, []string{events.MessageCreated}, rec.Types())
}

func TestHistory_OrderedOldestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	_, err := svc.Append(ctx, 1, 2, "first")
	require.NoError(t, err)
	_, err = svc.Append(ctx, 2, 1, "second")
	require.NoError(t, err)
	_, err = svc.Append(ctx, 1, 3, "elsewhere")
	require.NoError(t, err)
	_, err = svc.Append(ctx, 1, 2, "third")
	require.NoError(t, err)

	history, err := svc.History(ctx, 1, 2)
	require.NoError(t, err)
	texts := make([]string, 0, len(history))
	for _, m := range history {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"first", "second", "third"}, texts)
}

func TestHistory_EmptyConversation(t *testing.T) {
	svc, _, _ := newTestService(t)
	history, err := svc.History(context.Background(), 4, 5)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestSendMessage_BroadcastsEvenWhenPersistFails(t *testing.T) {
	rooms := newRecordingRooms()
	svc := NewService(failingStore{err: errors.New("disk full")}, rooms, nil)

	msg, err := svc.SendMessage(context.Background(), 1, 2, "hello")
	assert.Nil(t, msg)
	require.Error(t, err)
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))

	live := rooms.eventsFor(2)
	require.Len(t, live, 1)
	payload := live[0].Payload.(MessageReceived)
	assert.Zero(t, payload.ID)
	assert.Equal(t, "hello", payload.Text)
	assert.Equal(t, "1_2", payload.ConversationKey)
}

func TestSendMessage_Validation(t *testing.T) {
	svc, rooms, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		sender   uint
		receiver uint
		text     string
	}{
		{"missing sender", 0, 2, "hi"},
		{"missing receiver", 1, 0, "hi"},
		{"self", 1, 1, "hi"},
		{"empty", 1, 2, ""},
		{"blank", 1, 2, " \n\t "},
		{"too long", 1, 2, strings.Repeat("é", MaxTextLength+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := svc.SendMessage(ctx, tc.sender, tc.receiver, tc.text)
			assert.Nil(t, msg)
			assert.True(t, apperror.Is(err, apperror.KindInvalidOperation), "got %v", err)
		})
	}
	assert.Empty(t, rooms.sent, "rejected messages are never broadcast")

	msg, err := svc.SendMessage(ctx, 1, 2, strings.Repeat("é", MaxTextLength))
	require.NoError(t, err)
	assert.Equal(t, MaxTextLength, len([]rune(msg.Text)))
}

func TestHistory_StorageFailure(t *testing.T) {
	svc := NewService(failingStore{err: errors.New("gone")}, newRecordingRooms(), nil)
	_, err := svc.History(context.Background(), 1, 2)
	assert.True(t, apperror.Is(err, apperror.KindStorage))
}

package chat

import (
	"context"

	"lounge/backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Store persists messages grouped by conversation key.
type Store interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListByConversation returns every message of the conversation, oldest first.
	ListByConversation(ctx context.Context, key string) ([]models.Message, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, msg *models.Message) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return errors.Wrapf(err, "insert message into %s", msg.ConversationKey)
	}
	return nil
}

func (s *GormStore) ListByConversation(ctx context.Context, key string) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.WithContext(ctx).
		Where("conversation_key = ?", key).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list messages of %s", key)
	}
	return messages, nil
}

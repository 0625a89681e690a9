package relation

import (
	"context"
	"time"

	"lounge/backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleRecord is returned by Save when the stored version moved on since the record was read.
var ErrStaleRecord = errors.New("relationship record was modified concurrently")

// Store persists one RelationshipRecord per user.
type Store interface {
	// GetOrCreate returns the owner's record, creating an empty one on first use.
	GetOrCreate(ctx context.Context, ownerID uint) (*models.RelationshipRecord, error)
	// Save replaces the three sets of the record and bumps its version.
	Save(ctx context.Context, record *models.RelationshipRecord) error
}

// GormStore is the database backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetOrCreate(ctx context.Context, ownerID uint) (*models.RelationshipRecord, error) {
	db := s.db.WithContext(ctx)

	// Concurrent first calls race on the primary key; the loser's insert is a no-op.
	empty := models.RelationshipRecord{OwnerID: ownerID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoNothing: true,
	}).Create(&empty).Error
	if err != nil {
		return nil, errors.Wrapf(err, "upsert relationship record %d", ownerID)
	}

	var record models.RelationshipRecord
	if err := db.Where("owner_id = ?", ownerID).First(&record).Error; err != nil {
		return nil, errors.Wrapf(err, "load relationship record %d", ownerID)
	}
	return &record, nil
}

func (s *GormStore) Save(ctx context.Context, record *models.RelationshipRecord) error {
	next := record.Clone()
	next.Version = record.Version + 1
	next.UpdatedAt = time.Now()

	result := s.db.WithContext(ctx).
		Model(&models.RelationshipRecord{}).
		Where("owner_id = ? AND version = ?", record.OwnerID, record.Version).
		Select("friends", "sent_requests", "friend_requests", "version", "updated_at").
		Updates(next)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "save relationship record %d", record.OwnerID)
	}
	if result.RowsAffected == 0 {
		return errors.WithMessagef(ErrStaleRecord, "owner %d at version %d", record.OwnerID, record.Version)
	}

	record.Version = next.Version
	return nil
}

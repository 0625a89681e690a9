package relation

import (
	"context"
	"testing"

	"lounge/backend/internal/models"
	"lounge/backend/internal/testutil"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStore_GetOrCreateIsIdempotent(t *testing.T) {
	store := NewGormStore(testutil.NewDB(t))
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), first.OwnerID)
	assert.Empty(t, first.Friends)
	assert.Zero(t, first.Version)

	first.Friends.Add(9)
	require.NoError(t, store.Save(ctx, first))

	second, err := store.GetOrCreate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{9}, second.Friends)

	var count int64
	require.NoError(t, store.db.Model(&models.RelationshipRecord{}).Where("owner_id = ?", 7).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormStore_SavePreservesSetOrder(t *testing.T) {
	store := NewGormStore(testutil.NewDB(t))
	ctx := context.Background()

	record, err := store.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	record.FriendRequests = models.IDSet{30, 10, 20}
	record.SentRequests = models.IDSet{5}
	require.NoError(t, store.Save(ctx, record))
	assert.Equal(t, uint(1), record.Version)

	loaded, err := store.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{30, 10, 20}, loaded.FriendRequests)
	assert.Equal(t, models.IDSet{5}, loaded.SentRequests)
	assert.Empty(t, loaded.Friends)
	assert.Equal(t, uint(1), loaded.Version)
}

func TestGormStore_StaleSaveIsRejected(t *testing.T) {
	store := NewGormStore(testutil.NewDB(t))
	ctx := context.Background()

	a, err := store.GetOrCreate(ctx, 3)
	require.NoError(t, err)
	b, err := store.GetOrCreate(ctx, 3)
	require.NoError(t, err)

	a.Friends.Add(4)
	require.NoError(t, store.Save(ctx, a))

	b.Friends.Add(5)
	err = store.Save(ctx, b)
	assert.True(t, errors.Is(err, ErrStaleRecord))

	loaded, err := store.GetOrCreate(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{4}, loaded.Friends)
}

package directory

import (
	"context"
	"fmt"
	"testing"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/models"
	"lounge/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestInviteCodeFor(t *testing.T) {
	assert.Equal(t, "LG000042", models.InviteCodeFor(42))
	assert.Equal(t, "LG1234567", models.InviteCodeFor(1234567))
	assert.Equal(t, models.InviteCodeFor(7), models.InviteCodeFor(7))
}

func TestResolveInviteCode(t *testing.T) {
	db := testutil.NewDB(t)
	dir := New(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	require.NotNil(t, alice.InviteCode)

	id, err := dir.ResolveInviteCode(ctx, *alice.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	id, err = dir.ResolveInviteCode(ctx, " "+fmt.Sprintf("lg%06d", alice.ID)+" ")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	_, err = dir.ResolveInviteCode(ctx, "LG999999")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	for _, blank := range []string{"", "   ", "\t\n"} {
		_, err = dir.ResolveInviteCode(ctx, blank)
		assert.True(t, apperror.Is(err, apperror.KindNotFound), "blank code %q", blank)
	}
}

func TestProfilesKeepsRequestedOrder(t *testing.T) {
	db := testutil.NewDB(t)
	dir := New(db)

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")

	profiles, err := dir.Profiles(context.Background(), []uint{c.ID, 9999, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, []uint{c.ID, a.ID, b.ID}, []uint{profiles[0].ID, profiles[1].ID, profiles[2].ID})
	assert.Equal(t, models.InviteCodeFor(c.ID), profiles[0].InviteCode)
	assert.Equal(t, "c@example.com", profiles[0].Email)
}

func TestEnsureInviteCodeRepairsMissingCode(t *testing.T) {
	db := testutil.NewDB(t)
	dir := New(db)
	ctx := context.Background()

	u := createUser(t, db, "legacy")
	require.NoError(t, db.Model(&u).Update("invite_code", nil).Error)

	code, err := dir.EnsureInviteCode(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteCodeFor(u.ID), code)

	id, err := dir.ResolveInviteCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = dir.EnsureInviteCode(ctx, 424242)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

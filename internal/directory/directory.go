// Package directory resolves user ids and invite codes to public profiles.
package directory

import (
	"context"
	"strings"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Profile is the public identity of a user.
type Profile struct {
	ID         uint   `json:"id" example:"42"`
	Username   string `json:"username" example:"testuser"`
	Email      string `json:"email" example:"test@example.com"`
	InviteCode string `json:"inviteCode" example:"LG000042"`
}

// ProfileOf builds the public profile of a user row.
func ProfileOf(u models.User) Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		InviteCode: u.Code(),
	}
}

// Directory is the users-table backed identity lookup.
type Directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// ResolveInviteCode returns the id of the user owning code. A blank code
// matches nobody.
func (d *Directory) ResolveInviteCode(ctx context.Context, code string) (uint, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var user models.User
	err := d.db.WithContext(ctx).Select("id").Where("invite_code = ?", code).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperror.NotFound("invite code does not match any user")
	}
	if err != nil {
		return 0, apperror.Storage("failed to resolve invite code", errors.Wrap(err, "query users by invite code"))
	}
	return user.ID, nil
}

// User loads a user row by id.
func (d *Directory) User(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Storage("failed to load user", errors.Wrapf(err, "query user %d", id))
	}
	return &user, nil
}

// Profiles returns the profiles for ids in the order given. Unknown ids are skipped.
func (d *Directory) Profiles(ctx context.Context, ids []uint) ([]Profile, error) {
	out := make([]Profile, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperror.Storage("failed to load profiles", errors.Wrap(err, "query users by id"))
	}

	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, ProfileOf(u))
		}
	}
	return out, nil
}

// EnsureInviteCode returns the user's invite code, storing it first if the row
// predates invite codes or holds a stale value.
func (d *Directory) EnsureInviteCode(ctx context.Context, id uint) (string, error) {
	user, err := d.User(ctx, id)
	if err != nil {
		return "", err
	}

	code := models.InviteCodeFor(user.ID)
	if user.InviteCode != nil && *user.InviteCode == code {
		return code, nil
	}
	if err := d.db.WithContext(ctx).Model(user).Update("invite_code", code).Error; err != nil {
		return "", apperror.Storage("failed to store invite code", errors.Wrapf(err, "update invite code of user %d", id))
	}
	return code, nil
}

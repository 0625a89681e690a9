// Package relation implements the friend graph: one relationship record per
// user and the request state machine that keeps pairs of records mirrored.
package relation

import (
	"context"
	"fmt"
	"log/slog"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/directory"
	"lounge/backend/internal/events"
	"lounge/backend/internal/metrics"
	"lounge/backend/internal/models"
)

// Action is the answer to a pending friend request.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// ListKind selects which set of a record List projects.
type ListKind string

const (
	ListFriends  ListKind = "friends"
	ListSent     ListKind = "sent"
	ListReceived ListKind = "received"
)

// Directory is the identity lookup the state machine depends on.
type Directory interface {
	ResolveInviteCode(ctx context.Context, code string) (uint, error)
	Profiles(ctx context.Context, ids []uint) ([]directory.Profile, error)
}

// SendResult reports what SendRequest did.
type SendResult struct {
	TargetID uint
	// AutoAccepted is set when the target had already requested the sender
	// and the two became friends instead of opening a second request.
	AutoAccepted bool
}

// Service runs friend request operations. Every mutation holds the per-user
// locks of both participants for its read-modify-write of the two records.
type Service struct {
	store  Store
	dir    Directory
	events events.Publisher
	locks  *userLocks
}

func NewService(store Store, dir Directory, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:  store,
		dir:    dir,
		events: pub,
		locks:  newUserLocks(),
	}
}

// SendRequest opens a friend request from senderID to the owner of inviteCode.
func (s *Service) SendRequest(ctx context.Context, senderID uint, inviteCode string) (res *SendResult, err error) {
	defer func() { metrics.ObserveFriendOp("send_request", err) }()

	targetID, err := s.dir.ResolveInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if targetID == senderID {
		return nil, apperror.Invalid("cannot send a friend request to yourself")
	}

	unlock := s.locks.lockPair(senderID, targetID)
	defer unlock()

	sender, target, err := s.loadPair(ctx, senderID, targetID)
	if err != nil {
		return nil, err
	}

	if sender.Friends.Has(targetID) || target.Friends.Has(senderID) {
		return nil, apperror.Conflict("already friends")
	}
	if sender.SentRequests.Has(targetID) {
		return nil, apperror.Conflict("friend request already sent")
	}

	if sender.FriendRequests.Has(targetID) || target.SentRequests.Has(senderID) {
		sender.FriendRequests.Remove(targetID)
		target.SentRequests.Remove(senderID)
		sender.Friends.Add(targetID)
		target.Friends.Add(senderID)

		if err := s.savePair(ctx, sender, target, true, true); err != nil {
			return nil, err
		}
		slog.Info("reciprocal friend request accepted", "sender", senderID, "target", targetID)
		events.Emit(ctx, s.events, events.Event{Type: events.FriendRequestAccepted, ActorID: senderID, TargetID: targetID})
		return &SendResult{TargetID: targetID, AutoAccepted: true}, nil
	}

	sender.SentRequests.Add(targetID)
	target.FriendRequests.Add(senderID)
	if err := s.savePair(ctx, sender, target, true, true); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.Event{Type: events.FriendRequestSent, ActorID: senderID, TargetID: targetID})
	return &SendResult{TargetID: targetID}, nil
}

// Respond accepts or rejects the pending request requesterID sent to responderID.
func (s *Service) Respond(ctx context.Context, responderID, requesterID uint, action Action) (err error) {
	defer func() { metrics.ObserveFriendOp("respond_request", err) }()

	if action != ActionAccept && action != ActionReject {
		return apperror.Invalid("action must be accept or reject")
	}
	if responderID == requesterID {
		return apperror.Invalid("cannot respond to a request from yourself")
	}

	unlock := s.locks.lockPair(responderID, requesterID)
	defer unlock()

	responder, requester, err := s.loadPair(ctx, responderID, requesterID)
	if err != nil {
		return err
	}
	if !responder.FriendRequests.Has(requesterID) {
		return apperror.NotFound("no pending friend request from this user")
	}

	if action == ActionAccept {
		responder.Friends.Add(requesterID)
		requester.Friends.Add(responderID)
	}
	responder.FriendRequests.Remove(requesterID)
	requester.SentRequests.Remove(responderID)

	if err := s.savePair(ctx, responder, requester, true, true); err != nil {
		return err
	}

	eventType := events.FriendRequestRejected
	if action == ActionAccept {
		eventType = events.FriendRequestAccepted
	}
	events.Emit(ctx, s.events, events.Event{Type: eventType, ActorID: responderID, TargetID: requesterID})
	return nil
}

// Withdraw cancels a request senderID sent to targetID. Withdrawing a request
// that does not exist, including one to yourself or to id 0, is a no-op.
func (s *Service) Withdraw(ctx context.Context, senderID, targetID uint) (err error) {
	defer func() { metrics.ObserveFriendOp("withdraw_request", err) }()

	if senderID == targetID || targetID == 0 {
		return nil
	}

	unlock := s.locks.lockPair(senderID, targetID)
	defer unlock()

	sender, target, err := s.loadPair(ctx, senderID, targetID)
	if err != nil {
		return err
	}

	senderChanged := sender.SentRequests.Remove(targetID)
	targetChanged := target.FriendRequests.Remove(senderID)
	if !senderChanged && !targetChanged {
		return nil
	}

	if err := s.savePair(ctx, sender, target, senderChanged, targetChanged); err != nil {
		return err
	}
	events.Emit(ctx, s.events, events.Event{Type: events.FriendRequestWithdrawn, ActorID: senderID, TargetID: targetID})
	return nil
}

// Remove ends the friendship between userID and friendID. It is idempotent.
func (s *Service) Remove(ctx context.Context, userID, friendID uint) (err error) {
	defer func() { metrics.ObserveFriendOp("remove_friend", err) }()

	if userID == friendID {
		return apperror.Invalid("cannot remove yourself")
	}

	unlock := s.locks.lockPair(userID, friendID)
	defer unlock()

	user, friend, err := s.loadPair(ctx, userID, friendID)
	if err != nil {
		return err
	}

	userChanged := user.Friends.Remove(friendID)
	friendChanged := friend.Friends.Remove(userID)
	if !userChanged && !friendChanged {
		return nil
	}

	if err := s.savePair(ctx, user, friend, userChanged, friendChanged); err != nil {
		return err
	}
	events.Emit(ctx, s.events, events.Event{Type: events.FriendRemoved, ActorID: userID, TargetID: friendID})
	return nil
}

// Record returns a copy of the user's relationship record.
func (s *Service) Record(ctx context.Context, userID uint) (*models.RelationshipRecord, error) {
	record, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("failed to load relationship record", err)
	}
	return record.Clone(), nil
}

// List resolves the profiles of one of the user's sets, in set order.
func (s *Service) List(ctx context.Context, userID uint, which ListKind) ([]directory.Profile, error) {
	record, err := s.Record(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids models.IDSet
	switch which {
	case ListFriends:
		ids = record.Friends
	case ListSent:
		ids = record.SentRequests
	case ListReceived:
		ids = record.FriendRequests
	default:
		return nil, apperror.Invalid("unknown list: " + string(which))
	}
	return s.dir.Profiles(ctx, ids)
}

func (s *Service) loadPair(ctx context.Context, a, b uint) (*models.RelationshipRecord, *models.RelationshipRecord, error) {
	first, err := s.store.GetOrCreate(ctx, a)
	if err != nil {
		return nil, nil, apperror.Storage("failed to load relationship record", err)
	}
	second, err := s.store.GetOrCreate(ctx, b)
	if err != nil {
		return nil, nil, apperror.Storage("failed to load relationship record", err)
	}
	return first, second, nil
}

// savePair writes first, then second. The two writes are not atomic: when the
// second fails after the first landed, the error is marked partial and the
// pair stays asymmetric until Reconcile(first.OwnerID, second.OwnerID) runs.
func (s *Service) savePair(ctx context.Context, first, second *models.RelationshipRecord, saveFirst, saveSecond bool) error {
	if saveFirst {
		if err := s.store.Save(ctx, first); err != nil {
			return apperror.Storage("failed to save relationship record", err)
		}
	}
	if saveSecond {
		if err := s.store.Save(ctx, second); err != nil {
			if saveFirst {
				slog.Error("relationship pair left asymmetric",
					"saved_owner", first.OwnerID, "failed_owner", second.OwnerID, "error", err)
				return apperror.Partial(fmt.Sprintf(
					"only one side of the relationship was saved; reconcile user %d with peer %d",
					first.OwnerID, second.OwnerID), err)
			}
			return apperror.Storage("failed to save relationship record", err)
		}
	}
	return nil
}

package relation

import (
	"context"
	"log/slog"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/metrics"
	"lounge/backend/internal/models"
)

// pairState is one user's view of another, in precedence order.
type pairState int

const (
	stateNone pairState = iota
	stateFriend
	stateSent
	stateReceived
)

func stateOf(r *models.RelationshipRecord, peer uint) pairState {
	switch {
	case r.Friends.Has(peer):
		return stateFriend
	case r.SentRequests.Has(peer):
		return stateSent
	case r.FriendRequests.Has(peer):
		return stateReceived
	default:
		return stateNone
	}
}

// mirror is the state the peer's record must hold for st to be consistent.
func (st pairState) mirror() pairState {
	switch st {
	case stateSent:
		return stateReceived
	case stateReceived:
		return stateSent
	default:
		return st
	}
}

// setState makes peer a member of exactly the set st names and reports whether r changed.
func setState(r *models.RelationshipRecord, peer uint, st pairState) bool {
	changed := false
	apply := func(set *models.IDSet, want bool) {
		if want {
			changed = set.Add(peer) || changed
		} else {
			changed = set.Remove(peer) || changed
		}
	}
	apply(&r.Friends, st == stateFriend)
	apply(&r.SentRequests, st == stateSent)
	apply(&r.FriendRequests, st == stateReceived)
	return changed
}

// ReconcileReport lists what Reconcile touched.
type ReconcileReport struct {
	OwnerID  uint   `json:"ownerId"`
	Checked  int    `json:"checked"`
	Repaired []uint `json:"repaired"`
}

// Reconcile repairs pairs left asymmetric by a partial write. The owner's
// record is authoritative: every peer it mentions, plus every id in peerIDs,
// is rewritten to mirror it, and an id the owner holds in more than one set
// keeps only the first of friends, sent, received.
//
// Reject, withdraw and remove take the peer out of the owner's record, so
// repairing those needs the peer named explicitly.
func (s *Service) Reconcile(ctx context.Context, ownerID uint, peerIDs ...uint) (report *ReconcileReport, err error) {
	defer func() { metrics.ObserveFriendOp("reconcile", err) }()

	snapshot, err := s.store.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, apperror.Storage("failed to load relationship record", err)
	}

	var peers models.IDSet
	for _, set := range []models.IDSet{snapshot.Friends, snapshot.SentRequests, snapshot.FriendRequests, peerIDs} {
		for _, id := range set {
			if id != 0 && id != ownerID {
				peers.Add(id)
			}
		}
	}

	report = &ReconcileReport{OwnerID: ownerID, Repaired: []uint{}}
	for _, peerID := range peers {
		repaired, err := s.reconcilePair(ctx, ownerID, peerID)
		if err != nil {
			return report, err
		}
		report.Checked++
		if repaired {
			report.Repaired = append(report.Repaired, peerID)
		}
	}

	if len(report.Repaired) > 0 {
		slog.Info("relationship records reconciled", "owner", ownerID, "repaired", report.Repaired)
	}
	return report, nil
}

func (s *Service) reconcilePair(ctx context.Context, ownerID, peerID uint) (bool, error) {
	unlock := s.locks.lockPair(ownerID, peerID)
	defer unlock()

	owner, peer, err := s.loadPair(ctx, ownerID, peerID)
	if err != nil {
		return false, err
	}

	st := stateOf(owner, peerID)
	ownerChanged := setState(owner, peerID, st)
	peerChanged := setState(peer, ownerID, st.mirror())
	if !ownerChanged && !peerChanged {
		return false, nil
	}

	if err := s.savePair(ctx, owner, peer, ownerChanged, peerChanged); err != nil {
		return false, err
	}
	return true, nil
}

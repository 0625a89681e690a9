package models

import "time"

// IDSet is an insertion-ordered set of user ids.
type IDSet []uint

// Has reports whether id is in the set.
func (s IDSet) Has(id uint) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id if it is missing and reports whether the set changed.
func (s *IDSet) Add(id uint) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove drops id, keeping the order of the remaining ids, and reports whether the set changed.
func (s *IDSet) Remove(id uint) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	return append(IDSet(nil), s...)
}

// RelationshipRecord holds one user's side of the friend graph.
// The mirror of every entry lives on the other user's record:
// friends mirror friends, sent requests mirror received requests.
type RelationshipRecord struct {
	OwnerID        uint  `gorm:"primaryKey;autoIncrement:false"`
	Friends        IDSet `gorm:"serializer:json;type:text"`
	SentRequests   IDSet `gorm:"serializer:json;type:text"`
	FriendRequests IDSet `gorm:"serializer:json;type:text"`

	// Version is bumped on every save and checked by the next one.
	Version   uint `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (r *RelationshipRecord) Clone() *RelationshipRecord {
	c := *r
	c.Friends = r.Friends.Clone()
	c.SentRequests = r.SentRequests.Clone()
	c.FriendRequests = r.FriendRequests.Clone()
	return &c
}

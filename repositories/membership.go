//go:generate go run go.uber.org/mock/mockgen -source=membership.go -destination=../mocks/mock_membership_repository.go -package=mocks
package repositories

import (
	"chat-live/domain"
	"chat-live/errors"
	"context"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IMembershipRepository interface {
	FindMembership(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (domain.Membership, bool, error)
	UpsertMembership(ctx context.Context, membership domain.Membership) error
	ListMembers(ctx context.Context, roomID domain.RoomID) ([]domain.Membership, error)
	ListActiveRoomsFor(ctx context.Context, userID domain.UserID) ([]domain.RoomID, error)
	ReactivateHidden(ctx context.Context, roomID domain.RoomID, except domain.UserID, at time.Time) ([]domain.UserID, error)
	Hide(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error
}

type MembershipRepository struct {
	store *Store
}

func NewMembershipRepository(store *Store) *MembershipRepository {
	return &MembershipRepository{store: store}
}

type diskMembership struct {
	RoomID    int64  `cbor:"room_id"`
	UserID    int64  `cbor:"user_id"`
	JoinedAt  int64  `cbor:"joined_at"`
	Hidden    bool   `cbor:"hidden"`
	ClearedAt *int64 `cbor:"cleared_at,omitempty"`
}

func (r *MembershipRepository) FindMembership(_ context.Context, roomID domain.RoomID, userID domain.UserID) (domain.Membership, bool, error) {
	var record diskMembership
	err := r.store.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, memberKey(int64(roomID), int64(userID)), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Membership{}, false, nil
	}
	if err != nil {
		return domain.Membership{}, false, err
	}
	return record.toDomain(), true, nil
}

// UpsertMembership writes the membership, keeping the original joinedAt when
// the row already exists.
func (r *MembershipRepository) UpsertMembership(_ context.Context, membership domain.Membership) error {
	return r.store.update(func(txn *badger.Txn) error {
		return upsertMembership(txn, membership, r.store.now())
	})
}

func upsertMembership(txn *badger.Txn, membership domain.Membership, now time.Time) error {
	key := memberKey(int64(membership.RoomID), int64(membership.UserID))
	var existing diskMembership
	err := getRecord(txn, key, &existing)
	switch {
	case err == nil:
		membership.JoinedAt = time.Unix(0, existing.JoinedAt).UTC()
	case stderrors.Is(err, badger.ErrKeyNotFound):
		if membership.JoinedAt.IsZero() {
			membership.JoinedAt = now
		}
	default:
		return err
	}
	if err = setRecord(txn, key, fromDomainMembership(membership)); err != nil {
		return err
	}
	return txn.Set(memberOfKey(int64(membership.UserID), int64(membership.RoomID)), nil)
}

// ListMembers returns every membership row of the room, hidden ones included.
func (r *MembershipRepository) ListMembers(_ context.Context, roomID domain.RoomID) ([]domain.Membership, error) {
	var members []domain.Membership
	err := r.store.db.View(func(txn *badger.Txn) error {
		records, err := scanMemberships(txn, int64(roomID))
		if err != nil {
			return err
		}
		for _, record := range records {
			members = append(members, record.toDomain())
		}
		return nil
	})
	return members, err
}

// ListActiveRoomsFor returns the rooms where the user's membership is not hidden.
func (r *MembershipRepository) ListActiveRoomsFor(_ context.Context, userID domain.UserID) ([]domain.RoomID, error) {
	var rooms []domain.RoomID
	err := r.store.db.View(func(txn *badger.Txn) error {
		prefix := memberOfPrefix(int64(userID))
		var candidates []int64
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			roomID, err := decodeID(it.Item().Key()[len(prefix):])
			if err != nil {
				it.Close()
				return err
			}
			candidates = append(candidates, roomID)
		}
		it.Close()

		for _, roomID := range candidates {
			var record diskMembership
			if err := getRecord(txn, memberKey(roomID, int64(userID)), &record); err != nil {
				return err
			}
			if !record.Hidden {
				rooms = append(rooms, domain.RoomID(roomID))
			}
		}
		return nil
	})
	return rooms, err
}

// ReactivateHidden flips every hidden membership of the room except the given
// user back to visible with a fresh horizon, and returns the users affected.
func (r *MembershipRepository) ReactivateHidden(_ context.Context, roomID domain.RoomID, except domain.UserID, at time.Time) ([]domain.UserID, error) {
	var reactivated []domain.UserID
	err := r.store.update(func(txn *badger.Txn) error {
		reactivated = nil
		records, err := scanMemberships(txn, int64(roomID))
		if err != nil {
			return err
		}
		for _, record := range records {
			if !record.Hidden || record.UserID == int64(except) {
				continue
			}
			membership := record.toDomain().Reactivate(at)
			if err = setRecord(txn, memberKey(record.RoomID, record.UserID), fromDomainMembership(membership)); err != nil {
				return err
			}
			reactivated = append(reactivated, membership.UserID)
		}
		return nil
	})
	return reactivated, err
}

// Hide soft-leaves the room. The row is kept so the user can be reactivated.
func (r *MembershipRepository) Hide(_ context.Context, roomID domain.RoomID, userID domain.UserID) error {
	return r.store.update(func(txn *badger.Txn) error {
		key := memberKey(int64(roomID), int64(userID))
		var record diskMembership
		err := getRecord(txn, key, &record)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotAMember
		}
		if err != nil {
			return err
		}
		record.Hidden = true
		return setRecord(txn, key, record)
	})
}

func scanMemberships(txn *badger.Txn, roomID int64) ([]diskMembership, error) {
	prefix := memberPrefix(roomID)
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	var records []diskMembership
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var record diskMembership
		err := it.Item().Value(func(val []byte) error {
			return unmarshal(val, &record)
		})
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func fromDomainMembership(m domain.Membership) diskMembership {
	record := diskMembership{
		RoomID:   int64(m.RoomID),
		UserID:   int64(m.UserID),
		JoinedAt: m.JoinedAt.UnixNano(),
		Hidden:   m.Hidden,
	}
	if m.ClearedAt != nil {
		clearedAt := m.ClearedAt.UnixNano()
		record.ClearedAt = &clearedAt
	}
	return record
}

func (d diskMembership) toDomain() domain.Membership {
	m := domain.Membership{
		RoomID:   domain.RoomID(d.RoomID),
		UserID:   domain.UserID(d.UserID),
		JoinedAt: time.Unix(0, d.JoinedAt).UTC(),
		Hidden:   d.Hidden,
	}
	if d.ClearedAt != nil {
		clearedAt := time.Unix(0, *d.ClearedAt).UTC()
		m.ClearedAt = &clearedAt
	}
	return m
}

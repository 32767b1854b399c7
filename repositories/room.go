//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"chat-live/domain"
	"chat-live/errors"
	"context"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IRoomRepository interface {
	CreateRoom(ctx context.Context, room domain.Room, members []domain.UserID, opening *domain.Message) (domain.Room, error)
	GetRoom(ctx context.Context, id domain.RoomID) (domain.Room, error)
	FindDirectRoom(ctx context.Context, a, b domain.UserID) (domain.Room, bool, error)
}

type RoomRepository struct {
	store *Store
}

func NewRoomRepository(store *Store) *RoomRepository {
	return &RoomRepository{store: store}
}

type diskRoom struct {
	ID        int64  `cbor:"id"`
	Type      string `cbor:"type"`
	Title     string `cbor:"title,omitempty"`
	CreatedAt int64  `cbor:"created_at"`
}

// CreateRoom writes the room, one visible membership per member and, when
// given, an opening message with its sender receipt, in a single transaction.
// A direct room that already exists for the pair is returned instead.
func (r *RoomRepository) CreateRoom(_ context.Context, room domain.Room, members []domain.UserID, opening *domain.Message) (domain.Room, error) {
	roomID, err := nextID(r.store.roomSeq)
	if err != nil {
		return domain.Room{}, err
	}
	var openingID int64
	if opening != nil {
		if openingID, err = nextID(r.store.msgSeq); err != nil {
			return domain.Room{}, err
		}
	}
	now := r.store.now()
	room.ID = domain.RoomID(roomID)
	room.CreatedAt = now

	var created domain.Room
	err = r.store.update(func(txn *badger.Txn) error {
		if room.IsDirect() {
			if len(members) != 2 {
				return errors.ErrInvalidRoom
			}
			low, high := domain.DirectPair(members[0], members[1])
			key := directKey(int64(low), int64(high))
			existing, found, err := findDirect(txn, key)
			if err != nil {
				return err
			}
			if found {
				created = existing
				return nil
			}
			if err = txn.Set(key, encodeID(roomID)); err != nil {
				return err
			}
		}

		if err := setRecord(txn, roomKey(roomID), fromDomainRoom(room)); err != nil {
			return err
		}
		for _, userID := range members {
			membership := domain.Membership{RoomID: room.ID, UserID: userID, JoinedAt: now}
			if err := upsertMembership(txn, membership, now); err != nil {
				return err
			}
		}
		if opening != nil {
			msg := *opening
			msg.ID = domain.MessageID(openingID)
			msg.RoomID = room.ID
			msg.CreatedAt = now
			if err := writeMessageWithReceipt(txn, msg); err != nil {
				return err
			}
		}
		created = room
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	return created, nil
}

func (r *RoomRepository) GetRoom(_ context.Context, id domain.RoomID) (domain.Room, error) {
	var record diskRoom
	err := r.store.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, roomKey(int64(id)), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	return record.toDomain(), nil
}

func (r *RoomRepository) FindDirectRoom(_ context.Context, a, b domain.UserID) (domain.Room, bool, error) {
	low, high := domain.DirectPair(a, b)
	var (
		room  domain.Room
		found bool
	)
	err := r.store.db.View(func(txn *badger.Txn) error {
		var err error
		room, found, err = findDirect(txn, directKey(int64(low), int64(high)))
		return err
	})
	return room, found, err
}

func findDirect(txn *badger.Txn, key []byte) (domain.Room, bool, error) {
	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, false, nil
	}
	if err != nil {
		return domain.Room{}, false, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Room{}, false, err
	}
	roomID, err := decodeID(raw)
	if err != nil {
		return domain.Room{}, false, err
	}
	var record diskRoom
	if err = getRecord(txn, roomKey(roomID), &record); err != nil {
		return domain.Room{}, false, err
	}
	return record.toDomain(), true, nil
}

func fromDomainRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:        int64(room.ID),
		Type:      string(room.Type),
		Title:     room.Title,
		CreatedAt: room.CreatedAt.UnixNano(),
	}
}

func (d diskRoom) toDomain() domain.Room {
	return domain.Room{
		ID:        domain.RoomID(d.ID),
		Type:      domain.RoomType(d.Type),
		Title:     d.Title,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
	}
}

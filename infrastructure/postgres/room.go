package postgres

import (
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
)

var _ repositories.IRoomRepository = (*RoomRepository)(nil)

type RoomRepository struct {
	store *Store
}

func NewRoomRepository(store *Store) *RoomRepository {
	return &RoomRepository{store: store}
}

// CreateRoom writes the room, one visible membership per member and, when
// given, an opening message with its sender receipt, in a single transaction.
// A direct room that already exists for the pair is returned instead.
func (r *RoomRepository) CreateRoom(ctx context.Context, room domain.Room, members []domain.UserID, opening *domain.Message) (domain.Room, error) {
	var low, high *domain.UserID
	if room.IsDirect() {
		if len(members) != 2 {
			return domain.Room{}, errors.ErrInvalidRoom
		}
		a, b := domain.DirectPair(members[0], members[1])
		low, high = &a, &b
	}
	now := r.store.now()

	tx, err := r.store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Room{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO rooms (type, title, direct_low, direct_high, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (direct_low, direct_high) WHERE type = 'direct' DO NOTHING
		RETURNING id, created_at
	`, room.Type, room.Title, low, high, now).Scan(&room.ID, &room.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) && room.IsDirect() {
		existing, found, err := findDirect(ctx, tx, *low, *high)
		if err != nil {
			return domain.Room{}, err
		}
		if !found {
			return domain.Room{}, errors.ErrRoomNotFound
		}
		return existing, nil
	}
	if err != nil {
		return domain.Room{}, err
	}
	room.CreatedAt = room.CreatedAt.UTC()

	for _, userID := range members {
		if _, err = tx.Exec(ctx, `
			INSERT INTO room_members (room_id, user_id, joined_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (room_id, user_id) DO NOTHING
		`, room.ID, userID, now); err != nil {
			return domain.Room{}, err
		}
	}
	if opening != nil {
		msg := *opening
		msg.RoomID = room.ID
		msg.CreatedAt = now
		if _, err = insertMessageWithReceipt(ctx, tx, msg); err != nil {
			return domain.Room{}, err
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	err := r.store.pool.QueryRow(ctx, `
		SELECT id, type, title, created_at FROM rooms WHERE id = $1
	`, id).Scan(&room.ID, &room.Type, &room.Title, &room.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	room.CreatedAt = room.CreatedAt.UTC()
	return room, nil
}

func (r *RoomRepository) FindDirectRoom(ctx context.Context, a, b domain.UserID) (domain.Room, bool, error) {
	low, high := domain.DirectPair(a, b)
	return findDirect(ctx, r.store.pool, low, high)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findDirect(ctx context.Context, q querier, low, high domain.UserID) (domain.Room, bool, error) {
	var room domain.Room
	err := q.QueryRow(ctx, `
		SELECT id, type, title, created_at FROM rooms
		WHERE type = 'direct' AND direct_low = $1 AND direct_high = $2
	`, low, high).Scan(&room.ID, &room.Type, &room.Title, &room.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.Room{}, false, nil
	}
	if err != nil {
		return domain.Room{}, false, err
	}
	room.CreatedAt = room.CreatedAt.UTC()
	return room, true, nil
}

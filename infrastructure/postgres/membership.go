package postgres

import (
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
)

var _ repositories.IMembershipRepository = (*MembershipRepository)(nil)

type MembershipRepository struct {
	store *Store
}

func NewMembershipRepository(store *Store) *MembershipRepository {
	return &MembershipRepository{store: store}
}

const membershipColumns = `room_id, user_id, joined_at, hidden, cleared_at`

func (r *MembershipRepository) FindMembership(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (domain.Membership, bool, error) {
	rows, err := r.store.pool.Query(ctx, `
		SELECT `+membershipColumns+` FROM room_members WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	if err != nil {
		return domain.Membership{}, false, err
	}
	membership, err := pgx.CollectExactlyOneRow(rows, scanMembership)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.Membership{}, false, nil
	}
	if err != nil {
		return domain.Membership{}, false, err
	}
	return membership, true, nil
}

// UpsertMembership writes the membership, keeping the original joinedAt when
// the row already exists.
func (r *MembershipRepository) UpsertMembership(ctx context.Context, membership domain.Membership) error {
	joinedAt := membership.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = r.store.now()
	}
	var clearedAt *time.Time
	if membership.ClearedAt != nil {
		at := horizon(*membership.ClearedAt)
		clearedAt = &at
	}
	_, err := r.store.pool.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, joined_at, hidden, cleared_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id, user_id)
		DO UPDATE SET hidden = EXCLUDED.hidden, cleared_at = EXCLUDED.cleared_at
	`, membership.RoomID, membership.UserID, joinedAt, membership.Hidden, clearedAt)
	return err
}

// ListMembers returns every membership row of the room, hidden ones included.
func (r *MembershipRepository) ListMembers(ctx context.Context, roomID domain.RoomID) ([]domain.Membership, error) {
	rows, err := r.store.pool.Query(ctx, `
		SELECT `+membershipColumns+` FROM room_members WHERE room_id = $1 ORDER BY user_id
	`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanMembership)
}

// ListActiveRoomsFor returns the rooms where the user's membership is not hidden.
func (r *MembershipRepository) ListActiveRoomsFor(ctx context.Context, userID domain.UserID) ([]domain.RoomID, error) {
	rows, err := r.store.pool.Query(ctx, `
		SELECT room_id FROM room_members WHERE user_id = $1 AND NOT hidden ORDER BY room_id
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[domain.RoomID])
}

// ReactivateHidden flips every hidden membership of the room except the given
// user back to visible with a fresh horizon, and returns the users affected.
func (r *MembershipRepository) ReactivateHidden(ctx context.Context, roomID domain.RoomID, except domain.UserID, at time.Time) ([]domain.UserID, error) {
	rows, err := r.store.pool.Query(ctx, `
		UPDATE room_members SET hidden = FALSE, cleared_at = $3
		WHERE room_id = $1 AND user_id <> $2 AND hidden
		RETURNING user_id
	`, roomID, except, horizon(at))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[domain.UserID])
}

// Hide soft-leaves the room. The row is kept so the user can be reactivated.
func (r *MembershipRepository) Hide(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	tag, err := r.store.pool.Exec(ctx, `
		UPDATE room_members SET hidden = TRUE WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotAMember
	}
	return nil
}

func scanMembership(row pgx.CollectableRow) (domain.Membership, error) {
	var m domain.Membership
	if err := row.Scan(&m.RoomID, &m.UserID, &m.JoinedAt, &m.Hidden, &m.ClearedAt); err != nil {
		return domain.Membership{}, err
	}
	m.JoinedAt = m.JoinedAt.UTC()
	if m.ClearedAt != nil {
		clearedAt := m.ClearedAt.UTC()
		m.ClearedAt = &clearedAt
	}
	return m, nil
}

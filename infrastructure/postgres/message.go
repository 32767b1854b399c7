package postgres

import (
	"chat-live/domain"
	"chat-live/errors"
	"chat-live/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ repositories.IMessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	store         *Store
	limitMessages *int
}

func NewMessageRepository(store *Store, limitMessages *int) *MessageRepository {
	return &MessageRepository{store: store, limitMessages: limitMessages}
}

type executor interface {
	querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// InsertMessageWithReceipt persists the message and the sender's own read
// receipt in one transaction: either both become visible or neither does.
func (m *MessageRepository) InsertMessageWithReceipt(ctx context.Context, message domain.Message) (domain.Message, error) {
	message.CreatedAt = m.store.now()
	var stored domain.Message
	err := pgx.BeginTxFunc(ctx, m.store.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		stored, err = insertMessageWithReceipt(ctx, tx, message)
		return err
	})
	if err != nil {
		return domain.Message{}, err
	}
	return stored, nil
}

func insertMessageWithReceipt(ctx context.Context, tx executor, message domain.Message) (domain.Message, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO messages (room_id, sender_id, type, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, message.RoomID, message.SenderID, message.Type, message.Content, message.CreatedAt).Scan(&message.ID)
	if err != nil {
		return domain.Message{}, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO read_messages (message_id, user_id, read_at) VALUES ($1, $2, $3)
	`, message.ID, message.SenderID, message.CreatedAt)
	if err != nil {
		return domain.Message{}, err
	}
	message.CreatedAt = message.CreatedAt.UTC()
	return message, nil
}

func (m *MessageRepository) GetMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	var message domain.Message
	err := m.store.pool.QueryRow(ctx, `
		SELECT id, room_id, sender_id, type, content, created_at FROM messages WHERE id = $1
	`, id).Scan(&message.ID, &message.RoomID, &message.SenderID, &message.Type, &message.Content, &message.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	message.CreatedAt = message.CreatedAt.UTC()
	return message, nil
}

// LatestCounterpartSender returns the author of the newest message of the
// room sent by someone other than exclude.
func (m *MessageRepository) LatestCounterpartSender(ctx context.Context, roomID domain.RoomID, exclude domain.UserID) (domain.UserID, bool, error) {
	var sender domain.UserID
	err := m.store.pool.QueryRow(ctx, `
		SELECT sender_id FROM messages
		WHERE room_id = $1 AND sender_id <> $2
		ORDER BY id DESC LIMIT 1
	`, roomID, exclude).Scan(&sender)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return sender, true, nil
}

// InsertReadReceipt records the receipt unless one exists for the same
// (message, user); it reports whether a row was written.
func (m *MessageRepository) InsertReadReceipt(ctx context.Context, receipt domain.ReadReceipt) (bool, error) {
	tag, err := m.store.pool.Exec(ctx, `
		INSERT INTO read_messages (message_id, user_id, read_at) VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, receipt.MessageID, receipt.UserID, receipt.ReadAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (m *MessageRepository) CountReadReceipts(ctx context.Context, id domain.MessageID) (int, error) {
	var count int
	err := m.store.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM read_messages WHERE message_id = $1
	`, id).Scan(&count)
	return count, err
}

// MarkAllRead records a receipt for every message of the room authored by
// someone else and not yet read by the reader.
func (m *MessageRepository) MarkAllRead(ctx context.Context, roomID domain.RoomID, readerID domain.UserID, at time.Time) (int, error) {
	tag, err := m.store.pool.Exec(ctx, `
		INSERT INTO read_messages (message_id, user_id, read_at)
		SELECT id, $2, $3 FROM messages WHERE room_id = $1 AND sender_id <> $2
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, roomID, readerID, at)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// RoomActivity sends the newest-message and unread-count queries in one batch.
func (m *MessageRepository) RoomActivity(ctx context.Context, roomID domain.RoomID, readerID domain.UserID, after *time.Time) (repositories.RoomActivity, error) {
	var since *time.Time
	if after != nil {
		at := horizon(*after)
		since = &at
	}
	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT id, room_id, sender_id, type, content, created_at FROM messages
		WHERE room_id = $1 AND ($2::timestamptz IS NULL OR created_at > $2)
		ORDER BY id DESC LIMIT 1
	`, roomID, since)
	batch.Queue(`
		SELECT COUNT(*) FROM messages m
		WHERE m.room_id = $1 AND m.sender_id <> $2
		  AND ($3::timestamptz IS NULL OR m.created_at > $3)
		  AND NOT EXISTS (SELECT 1 FROM read_messages r WHERE r.message_id = m.id AND r.user_id = $2)
	`, roomID, readerID, since)
	results := m.store.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	var activity repositories.RoomActivity
	var last domain.Message
	err := results.QueryRow().Scan(&last.ID, &last.RoomID, &last.SenderID, &last.Type, &last.Content, &last.CreatedAt)
	switch {
	case stderrors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return repositories.RoomActivity{}, err
	default:
		last.CreatedAt = last.CreatedAt.UTC()
		activity.Last = &last
	}
	if err = results.QueryRow().Scan(&activity.Unread); err != nil {
		return repositories.RoomActivity{}, err
	}
	return activity, results.Close()
}

// GetMessages retrieves one page of a room, newest first. The cursor is the
// id of the last message returned; it is nil once the page is the last one.
func (m *MessageRepository) GetMessages(ctx context.Context, query repositories.HistoryQuery) ([]repositories.HistoryEntry, *string, error) {
	var before *int64
	if query.Cursor != nil {
		id, err := strconv.ParseInt(*query.Cursor, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: cursor %q", errors.ErrInvalidPayload, *query.Cursor)
		}
		before = &id
	}
	var after *time.Time
	if query.After != nil {
		at := horizon(*query.After)
		after = &at
	}
	var fetch *int
	if m.limitMessages != nil {
		n := *m.limitMessages + 1
		fetch = &n
	}

	rows, err := m.store.pool.Query(ctx, `
		SELECT m.id, m.room_id, m.sender_id, m.type, m.content, m.created_at,
		       (SELECT COUNT(*) FROM read_messages r WHERE r.message_id = m.id),
		       EXISTS (SELECT 1 FROM read_messages r WHERE r.message_id = m.id AND r.user_id = $2)
		FROM messages m
		WHERE m.room_id = $1
		  AND ($3::timestamptz IS NULL OR m.created_at > $3)
		  AND ($4::bigint IS NULL OR m.id < $4)
		ORDER BY m.id DESC
		LIMIT $5
	`, query.RoomID, query.ReaderID, after, before, fetch)
	if err != nil {
		return nil, nil, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repositories.HistoryEntry, error) {
		var e repositories.HistoryEntry
		err := row.Scan(
			&e.Message.ID,
			&e.Message.RoomID,
			&e.Message.SenderID,
			&e.Message.Type,
			&e.Message.Content,
			&e.Message.CreatedAt,
			&e.ReadCount,
			&e.ReadByReader,
		)
		e.Message.CreatedAt = e.Message.CreatedAt.UTC()
		return e, err
	})
	if err != nil {
		return nil, nil, err
	}
	if m.limitMessages == nil || len(entries) <= *m.limitMessages {
		return entries, nil, nil
	}
	entries = entries[:*m.limitMessages]
	next := strconv.FormatInt(int64(entries[len(entries)-1].Message.ID), 10)
	return entries, &next, nil
}

//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-live/domain"
	"chat-live/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	InsertMessageWithReceipt(ctx context.Context, message domain.Message) (domain.Message, error)
	GetMessage(ctx context.Context, id domain.MessageID) (domain.Message, error)
	LatestCounterpartSender(ctx context.Context, roomID domain.RoomID, exclude domain.UserID) (domain.UserID, bool, error)
	InsertReadReceipt(ctx context.Context, receipt domain.ReadReceipt) (bool, error)
	CountReadReceipts(ctx context.Context, id domain.MessageID) (int, error)
	MarkAllRead(ctx context.Context, roomID domain.RoomID, readerID domain.UserID, at time.Time) (int, error)
	GetMessages(ctx context.Context, query HistoryQuery) ([]HistoryEntry, *string, error)
	RoomActivity(ctx context.Context, roomID domain.RoomID, readerID domain.UserID, after *time.Time) (RoomActivity, error)
}

// RoomActivity is what a room list shows of one room to one reader.
// Unread counts the messages of others the reader has no receipt for.
type RoomActivity struct {
	Last   *domain.Message
	Unread int
}

// HistoryQuery selects one page of a room, newest first.
// Messages created at or before After are skipped.
type HistoryQuery struct {
	RoomID   domain.RoomID
	ReaderID domain.UserID
	After    *time.Time
	Cursor   *string
}

type HistoryEntry struct {
	Message      domain.Message
	ReadCount    int
	ReadByReader bool
}

type MessageRepository struct {
	store         *Store
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(store *Store, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{store: store, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID        int64  `cbor:"id"`
	RoomID    int64  `cbor:"room_id"`
	SenderID  int64  `cbor:"sender_id"`
	Type      string `cbor:"type"`
	Content   string `cbor:"content"`
	CreatedAt int64  `cbor:"created_at"`
}

// InsertMessageWithReceipt persists the message and the sender's own read
// receipt in one transaction: either both become visible or neither does.
// The key is formatted as "msg:{room_id}:{message_id}" so a prefix scan
// returns a room in allocation order.
func (m *MessageRepository) InsertMessageWithReceipt(_ context.Context, message domain.Message) (domain.Message, error) {
	id, err := nextID(m.store.msgSeq)
	if err != nil {
		return domain.Message{}, err
	}
	message.ID = domain.MessageID(id)
	message.CreatedAt = m.store.now()

	err = m.store.update(func(txn *badger.Txn) error {
		return writeMessageWithReceipt(txn, message)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func writeMessageWithReceipt(txn *badger.Txn, message domain.Message) error {
	id, roomID := int64(message.ID), int64(message.RoomID)
	if err := setRecord(txn, messageKey(roomID, id), fromDomainMessage(message)); err != nil {
		return err
	}
	if err := txn.Set(messageLocatorKey(id), encodeID(roomID)); err != nil {
		return err
	}
	return txn.Set(receiptKey(id, int64(message.SenderID)), encodeID(message.CreatedAt.UnixNano()))
}

func (m *MessageRepository) GetMessage(_ context.Context, id domain.MessageID) (domain.Message, error) {
	var record diskMessage
	err := m.store.db.View(func(txn *badger.Txn) error {
		return getMessage(txn, int64(id), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return record.toDomain(), nil
}

func getMessage(txn *badger.Txn, id int64, record *diskMessage) error {
	item, err := txn.Get(messageLocatorKey(id))
	if err != nil {
		return err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	roomID, err := decodeID(raw)
	if err != nil {
		return err
	}
	return getRecord(txn, messageKey(roomID, id), record)
}

// LatestCounterpartSender walks the room backwards and returns the first
// sender different from exclude.
func (m *MessageRepository) LatestCounterpartSender(_ context.Context, roomID domain.RoomID, exclude domain.UserID) (domain.UserID, bool, error) {
	var (
		sender domain.UserID
		found  bool
	)
	err := m.store.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(int64(roomID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			var record diskMessage
			err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if record.SenderID != int64(exclude) {
				sender, found = domain.UserID(record.SenderID), true
				return nil
			}
		}
		return nil
	})
	return sender, found, err
}

// InsertReadReceipt records the receipt unless one exists for the same
// (message, user); it reports whether a row was written.
func (m *MessageRepository) InsertReadReceipt(_ context.Context, receipt domain.ReadReceipt) (bool, error) {
	inserted := false
	err := m.store.update(func(txn *badger.Txn) error {
		inserted = false
		key := receiptKey(int64(receipt.MessageID), int64(receipt.UserID))
		found, err := exists(txn, key)
		if err != nil || found {
			return err
		}
		inserted = true
		return txn.Set(key, encodeID(receipt.ReadAt.UnixNano()))
	})
	return inserted, err
}

func (m *MessageRepository) CountReadReceipts(_ context.Context, id domain.MessageID) (int, error) {
	count := 0
	err := m.store.db.View(func(txn *badger.Txn) error {
		count = countPrefix(txn, receiptPrefix(int64(id)))
		return nil
	})
	return count, err
}

// MarkAllRead records a receipt for every message of the room authored by
// someone else and not yet read by the reader. Large rooms are committed in
// several transactions when one would grow too big.
func (m *MessageRepository) MarkAllRead(_ context.Context, roomID domain.RoomID, readerID domain.UserID, at time.Time) (int, error) {
	var unread [][]byte
	err := m.store.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(int64(roomID))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record diskMessage
			err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if record.SenderID == int64(readerID) {
				continue
			}
			key := receiptKey(record.ID, int64(readerID))
			found, err := exists(txn, key)
			if err != nil {
				return err
			}
			if !found {
				unread = append(unread, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	value := encodeID(at.UnixNano())
	txn := m.store.db.NewTransaction(true)
	defer func() { txn.Discard() }()
	for _, key := range unread {
		err = txn.Set(key, value)
		if stderrors.Is(err, badger.ErrTxnTooBig) {
			if err = txn.Commit(); err != nil {
				return 0, err
			}
			txn = m.store.db.NewTransaction(true)
			err = txn.Set(key, value)
		}
		if err != nil {
			return 0, err
		}
	}
	if err = txn.Commit(); err != nil {
		return 0, err
	}
	return len(unread), nil
}

// GetMessages retrieves one page of a room using a reverse prefix scan.
// The cursor is the id part of the last key returned; it is nil once the
// page is the last one.
func (m *MessageRepository) GetMessages(_ context.Context, query HistoryQuery) ([]HistoryEntry, *string, error) {
	var entries []HistoryEntry
	var lastKey string
	exhausted := true
	err := m.store.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(int64(query.RoomID))
		prefixLen := len(prefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch query.Cursor {
		case nil:
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*query.Cursor)...)
		}
		it.Seek(seekKey)
		if query.Cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *query.Cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(entries) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				exhausted = false
				break
			}
			item := it.Item()
			var record diskMessage
			if err := item.Value(func(val []byte) error {
				return unmarshal(val, &record)
			}); err != nil {
				return err
			}
			message := record.toDomain()
			if query.After != nil && !message.CreatedAt.After(*query.After) {
				break
			}
			readByReader, err := exists(txn, receiptKey(record.ID, int64(query.ReaderID)))
			if err != nil {
				return err
			}
			lastKey = string(item.Key()[prefixLen:])
			entries = append(entries, HistoryEntry{
				Message:      message,
				ReadCount:    countPrefix(txn, receiptPrefix(record.ID)),
				ReadByReader: readByReader,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if exhausted || len(entries) == 0 {
		return entries, nil, nil
	}
	return entries, &lastKey, nil
}

// RoomActivity walks the room backwards down to the reader's horizon, keeping
// the newest message and counting the unread ones.
func (m *MessageRepository) RoomActivity(_ context.Context, roomID domain.RoomID, readerID domain.UserID, after *time.Time) (RoomActivity, error) {
	var activity RoomActivity
	err := m.store.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(int64(roomID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			var record diskMessage
			if err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &record)
			}); err != nil {
				return err
			}
			message := record.toDomain()
			if after != nil && !message.CreatedAt.After(*after) {
				break
			}
			if activity.Last == nil {
				activity.Last = &message
			}
			if record.SenderID == int64(readerID) {
				continue
			}
			read, err := exists(txn, receiptKey(record.ID, int64(readerID)))
			if err != nil {
				return err
			}
			if !read {
				activity.Unread++
			}
		}
		return nil
	})
	return activity, err
}

func fromDomainMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        int64(message.ID),
		RoomID:    int64(message.RoomID),
		SenderID:  int64(message.SenderID),
		Type:      string(message.Type),
		Content:   message.Content,
		CreatedAt: message.CreatedAt.UnixNano(),
	}
}

func (d diskMessage) toDomain() domain.Message {
	return domain.Message{
		ID:        domain.MessageID(d.ID),
		RoomID:    domain.RoomID(d.RoomID),
		SenderID:  domain.UserID(d.SenderID),
		Type:      domain.MessageType(d.Type),
		Content:   d.Content,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
	}
}

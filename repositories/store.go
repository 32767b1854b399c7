package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	sequenceBandwidth  = 100
	maxConflictRetries = 5
)

// Store owns the badger handle shared by every repository and the sequences
// allocating numeric ids.
//
// Key layout:
//
//	user:{user}                  -> diskUser
//	user_email:{email}           -> user id
//	room:{room}                  -> diskRoom
//	direct:{low user}:{high user} -> room id
//	member:{room}:{user}         -> diskMembership
//	member_of:{user}:{room}      -> empty (reverse index)
//	msg:{room}:{message}         -> diskMessage
//	msg_id:{message}             -> room id
//	rcpt:{message}:{user}        -> read timestamp
//
// Numeric ids are zero padded to 19 digits so lexicographic order is numeric order.
type Store struct {
	db      *badger.DB
	log     *slog.Logger
	userSeq *badger.Sequence
	roomSeq *badger.Sequence
	msgSeq  *badger.Sequence
	nowFunc func() time.Time
}

func NewStore(db *badger.DB, log *slog.Logger) (*Store, error) {
	userSeq, err := db.GetSequence([]byte("seq:user"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("user sequence: %w", err)
	}
	roomSeq, err := db.GetSequence([]byte("seq:room"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("room sequence: %w", err)
	}
	msgSeq, err := db.GetSequence([]byte("seq:message"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &Store{
		db:      db,
		log:     log,
		userSeq: userSeq,
		roomSeq: roomSeq,
		msgSeq:  msgSeq,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the leased id ranges. The badger handle is closed by its owner.
func (s *Store) Close() error {
	return errors.Join(s.userSeq.Release(), s.roomSeq.Release(), s.msgSeq.Release())
}

func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

func (s *Store) DB() *badger.DB {
	return s.db
}

// update runs fn in a read-write transaction, retrying when badger reports a
// conflict with a concurrent transaction.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			s.log.Debug("Transaction conflict, retrying", "attempt", attempt+1)
			continue
		}
		return err
	}
}

func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return int64(n) + 1, nil
}

func (s *Store) now() time.Time {
	return s.nowFunc()
}

func getRecord(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshal(val, v)
	})
}

func setRecord(txn *badger.Txn, key []byte, v any) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// countPrefix counts keys under prefix without loading values.
func countPrefix(txn *badger.Txn, prefix []byte) int {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()
	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count
}

func userKey(id int64) []byte { return []byte(fmt.Sprintf("user:%019d", id)) }

func userEmailKey(email string) []byte { return []byte("user_email:" + email) }

func roomKey(id int64) []byte { return []byte(fmt.Sprintf("room:%019d", id)) }

func directKey(low, high int64) []byte {
	return []byte(fmt.Sprintf("direct:%019d:%019d", low, high))
}

func memberPrefix(room int64) []byte { return []byte(fmt.Sprintf("member:%019d:", room)) }

func memberKey(room, user int64) []byte {
	return []byte(fmt.Sprintf("member:%019d:%019d", room, user))
}

func memberOfPrefix(user int64) []byte { return []byte(fmt.Sprintf("member_of:%019d:", user)) }

func memberOfKey(user, room int64) []byte {
	return []byte(fmt.Sprintf("member_of:%019d:%019d", user, room))
}

func messagePrefix(room int64) []byte { return []byte(fmt.Sprintf("msg:%019d:", room)) }

func messageKey(room, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%019d:%019d", room, id))
}

func messageLocatorKey(id int64) []byte { return []byte(fmt.Sprintf("msg_id:%019d", id)) }

func receiptPrefix(message int64) []byte { return []byte(fmt.Sprintf("rcpt:%019d:", message)) }

func receiptKey(message, user int64) []byte {
	return []byte(fmt.Sprintf("rcpt:%019d:%019d", message, user))
}

func encodeID(id int64) []byte { return []byte(fmt.Sprintf("%019d", id)) }

func decodeID(b []byte) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(string(b), "%d", &id)
	return id, err
}

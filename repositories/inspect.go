package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Record is a decoded view of one raw badger entry.
type Record struct {
	Key    string
	Kind   string
	Detail string
}

// Describe decodes a raw entry according to its key prefix.
func Describe(key string, val []byte) (kind, detail string) {
	name, _, _ := strings.Cut(key, ":")
	switch name {
	case "user":
		var u diskUser
		if err := unmarshal(val, &u); err != nil {
			return "USER", "unmarshal failed"
		}
		return "USER", fmt.Sprintf("#%d %s <%s> roles=%s", u.ID, u.Nickname, u.Email, strings.Join(u.Roles, ","))
	case "room":
		var r diskRoom
		if err := unmarshal(val, &r); err != nil {
			return "ROOM", "unmarshal failed"
		}
		return "ROOM", fmt.Sprintf("#%d %s %q", r.ID, r.Type, r.Title)
	case "member":
		var m diskMembership
		if err := unmarshal(val, &m); err != nil {
			return "MEMBER", "unmarshal failed"
		}
		detail = fmt.Sprintf("room=%d user=%d hidden=%t", m.RoomID, m.UserID, m.Hidden)
		if m.ClearedAt != nil {
			detail += " cleared_at=" + time.Unix(0, *m.ClearedAt).UTC().Format(time.RFC3339)
		}
		return "MEMBER", detail
	case "msg":
		var m diskMessage
		if err := unmarshal(val, &m); err != nil {
			return "MESSAGE", "unmarshal failed"
		}
		return "MESSAGE", fmt.Sprintf("#%d from=%d [%s] %s", m.ID, m.SenderID, m.Type, m.Content)
	case "rcpt":
		return "RECEIPT", "read_at=" + readTimestamp(val)
	case "user_email", "direct", "msg_id":
		return "INDEX", "-> " + string(val)
	case "member_of":
		return "INDEX", ""
	default:
		return "RAW", fmt.Sprintf("Size: %d bytes", len(val))
	}
}

// Scan returns up to limit decoded entries whose key starts with prefix.
// A limit of zero or less means no limit.
func (s *Store) Scan(prefix string, limit int) ([]Record, error) {
	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(prefix)
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if limit > 0 && len(records) == limit {
				break
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if strings.HasPrefix(key, "seq:") {
				continue
			}
			err := item.Value(func(val []byte) error {
				kind, detail := Describe(key, val)
				records = append(records, Record{Key: key, Kind: kind, Detail: detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

func readTimestamp(val []byte) string {
	nanos, err := decodeID(val)
	if err != nil {
		return "?"
	}
	return time.Unix(0, nanos).UTC().Format(time.RFC3339Nano)
}

//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-live/domain"
	"chat-live/errors"
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, id domain.UserID) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	SearchUsers(ctx context.Context, term string, exclude domain.UserID, limit int) ([]domain.User, error)
}

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

type diskUser struct {
	ID           int64    `cbor:"id"`
	Email        string   `cbor:"email"`
	Nickname     string   `cbor:"nickname"`
	ProfileImage *string  `cbor:"profile_image,omitempty"`
	PasswordHash string   `cbor:"password_hash"`
	Roles        []string `cbor:"roles"`
	CreatedAt    int64    `cbor:"created_at"`
}

// CreateUser allocates an id and persists the user; the email is unique,
// compared case-insensitively.
func (u *UserRepository) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	id, err := nextID(u.store.userSeq)
	if err != nil {
		return domain.User{}, err
	}
	user.ID = domain.UserID(id)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = u.store.now()
	if len(user.Roles) == 0 {
		user.Roles = []string{"user"}
	}

	err = u.store.update(func(txn *badger.Txn) error {
		emailKey := userEmailKey(user.Email)
		taken, err := exists(txn, emailKey)
		if err != nil {
			return err
		}
		if taken {
			return errors.ErrUserAlreadyExists
		}
		if err = txn.Set(emailKey, encodeID(id)); err != nil {
			return err
		}
		return setRecord(txn, userKey(id), fromDomainUser(user))
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUser(_ context.Context, id domain.UserID) (domain.User, error) {
	var record diskUser
	err := u.store.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, userKey(int64(id)), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return record.toDomain(), nil
}

func (u *UserRepository) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	var record diskUser
	err := u.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(strings.ToLower(strings.TrimSpace(email))))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := decodeID(raw)
		if err != nil {
			return err
		}
		return getRecord(txn, userKey(id), &record)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return record.toDomain(), nil
}

// SearchUsers returns up to limit users whose nickname or email contains term,
// ignoring case, ordered by nickname. The excluded user is never returned.
func (u *UserRepository) SearchUsers(_ context.Context, term string, exclude domain.UserID, limit int) ([]domain.User, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	var users []domain.User
	err := u.store.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record diskUser
			if err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &record)
			}); err != nil {
				return err
			}
			if record.ID == int64(exclude) {
				continue
			}
			if strings.Contains(strings.ToLower(record.Nickname), needle) || strings.Contains(record.Email, needle) {
				users = append(users, record.toDomain())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Nickname, b.Nickname)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func fromDomainUser(user domain.User) diskUser {
	return diskUser{
		ID:           int64(user.ID),
		Email:        user.Email,
		Nickname:     user.Nickname,
		ProfileImage: user.ProfileImage,
		PasswordHash: user.PasswordHash,
		Roles:        user.Roles,
		CreatedAt:    user.CreatedAt.UnixNano(),
	}
}

func (d diskUser) toDomain() domain.User {
	return domain.User{
		ID:           domain.UserID(d.ID),
		Email:        d.Email,
		Nickname:     d.Nickname,
		ProfileImage: d.ProfileImage,
		PasswordHash: d.PasswordHash,
		Roles:        d.Roles,
		CreatedAt:    time.Unix(0, d.CreatedAt).UTC(),
	}
}

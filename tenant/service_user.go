package tenant

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kv"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password we allow into the system.
const MinPasswordLength = 8

// HashCost currently using the default cost of bcrypt
var HashCost = bcrypt.DefaultCost

type UserSvc struct {
	store *Store
}

func NewUserSvc(st *Store) *UserSvc {
	return &UserSvc{
		store: st,
	}
}

// FindUserByID returns a single user by ID.
func (s *UserSvc) FindUserByID(ctx context.Context, id platform.ID) (*parley.User, error) {
	var user *parley.User
	err := s.store.View(ctx, func(tx kv.Tx) error {
		u, err := s.store.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	if err != nil {
		return nil, err
	}

	return user, nil
}

// FindUser returns the first user that matches filter.
func (s *UserSvc) FindUser(ctx context.Context, filter parley.UserFilter) (*parley.User, error) {
	if filter.ID != nil {
		return s.FindUserByID(ctx, *filter.ID)
	}

	if filter.Name == nil {
		return nil, ErrUserNotFound
	}

	var user *parley.User
	err := s.store.View(ctx, func(tx kv.Tx) error {
		u, err := s.store.GetUserByName(ctx, tx, *filter.Name)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	if err != nil {
		return nil, err
	}

	return user, nil
}

// FindUsers returns a list of users that match filter and the total count of
// matching users.
func (s *UserSvc) FindUsers(ctx context.Context, filter parley.UserFilter, opt ...parley.FindOptions) ([]*parley.User, int, error) {
	if filter.ID != nil || filter.Name != nil {
		u, err := s.FindUser(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
		return []*parley.User{u}, 1, nil
	}

	var users []*parley.User
	err := s.store.View(ctx, func(tx kv.Tx) error {
		us, err := s.store.ListUsers(ctx, tx, opt...)
		if err != nil {
			return err
		}
		users = us
		return nil
	})

	if err != nil {
		return nil, 0, err
	}

	return users, len(users), nil
}

// CreateUser creates a new user and sets u.ID with the new identifier.
func (s *UserSvc) CreateUser(ctx context.Context, u *parley.User) error {
	return s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.CreateUser(ctx, tx, u)
	})
}

// UpdateUser updates a single user with changeset.
// Returns the new user state after update.
func (s *UserSvc) UpdateUser(ctx context.Context, id platform.ID, upd parley.UserUpdate) (*parley.User, error) {
	var user *parley.User
	err := s.store.Update(ctx, func(tx kv.Tx) error {
		u, err := s.store.UpdateUser(ctx, tx, id, upd)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser removes a user by ID.
func (s *UserSvc) DeleteUser(ctx context.Context, id platform.ID) error {
	return s.store.Update(ctx, func(tx kv.Tx) error {
		return s.store.DeleteUser(ctx, tx, id)
	})
}

// SetPassword overrides the password of a known user.
func (s *UserSvc) SetPassword(ctx context.Context, userID platform.ID, password string) error {
	if len(password) < MinPasswordLength {
		return EShortPassword
	}

	passHash, err := encryptPassword(password)
	if err != nil {
		return err
	}

	return s.store.Update(ctx, func(tx kv.Tx) error {
		// verify the user exists before setting the password
		if _, err := s.store.GetUser(ctx, tx, userID); err != nil {
			return EIncorrectUser
		}
		return s.store.SetPassword(ctx, tx, userID, passHash)
	})
}

// ComparePassword checks if the password matches the password recorded.
// Passwords that do not match return errors.
func (s *UserSvc) ComparePassword(ctx context.Context, userID platform.ID, password string) error {
	var hash []byte
	err := s.store.View(ctx, func(tx kv.Tx) error {
		if _, err := s.store.GetUser(ctx, tx, userID); err != nil {
			return EIncorrectUser
		}
		h, err := s.store.GetPassword(ctx, tx, userID)
		if err != nil {
			if err == kv.ErrKeyNotFound {
				return EIncorrectPassword
			}
			return err
		}
		hash = []byte(h)
		return nil
	})
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		// user exists but the password was incorrect
		return EIncorrectPassword
	}

	return nil
}

// CompareAndSetPassword checks the password and if they match
// updates to the new password.
func (s *UserSvc) CompareAndSetPassword(ctx context.Context, userID platform.ID, old, new string) error {
	if err := s.ComparePassword(ctx, userID, old); err != nil {
		return err
	}

	return s.SetPassword(ctx, userID, new)
}

func encryptPassword(password string) (string, error) {
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(passHash), nil
}

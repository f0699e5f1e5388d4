package parley

import (
	"context"

	"github.com/parleyhq/parley/kit/platform"
	"github.com/parleyhq/parley/kit/platform/errors"
)

// Operation names for user and password operations, used in errors.
const (
	OpFindUserByID = "FindUserByID"
	OpFindUser     = "FindUser"
	OpFindUsers    = "FindUsers"
	OpCreateUser   = "CreateUser"
	OpUpdateUser   = "UpdateUser"
	OpDeleteUser   = "DeleteUser"
)

// UserStatus indicates whether a user is able to log in.
type UserStatus string

// Valid validates user status.
func (u UserStatus) Valid() error {
	switch u {
	case UserStatusActive, UserStatusInactive:
		return nil
	default:
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  "invalid user status",
		}
	}
}

const (
	// UserStatusActive is the status of a user who can log in.
	UserStatusActive UserStatus = "active"
	// UserStatusInactive is the status of a user who is blocked from logging in.
	UserStatusInactive UserStatus = "inactive"
)

// User is an identity that can hold profiles in multiple tenants.
type User struct {
	ID     platform.ID `json:"id,omitempty"`
	Name   string      `json:"name"`
	Status UserStatus  `json:"status"`
	// CurrentProfileID points at the profile requests are scoped to;
	// zero until the user completes tenant setup or picks a profile.
	CurrentProfileID platform.ID `json:"currentProfileId,omitempty"`

	CRUDLog
}

// Valid validates the user.
func (u *User) Valid() error {
	return u.Status.Valid()
}

// UserUpdate represents updates to a user. Only fields which are set are updated.
type UserUpdate struct {
	Name             *string      `json:"name,omitempty"`
	Status           *UserStatus  `json:"status,omitempty"`
	CurrentProfileID *platform.ID `json:"currentProfileId,omitempty"`
}

// UserFilter represents a set of filter that restrict the returned results.
type UserFilter struct {
	ID   *platform.ID
	Name *string
}

// UserService represents a service for managing user data.
type UserService interface {
	// FindUserByID returns a single user by ID.
	FindUserByID(ctx context.Context, id platform.ID) (*User, error)

	// FindUser returns the first user that matches filter.
	FindUser(ctx context.Context, filter UserFilter) (*User, error)

	// FindUsers returns a list of users that match filter and the total count of matching users.
	FindUsers(ctx context.Context, filter UserFilter, opt ...FindOptions) ([]*User, int, error)

	// CreateUser creates a new user and sets u.ID with the new identifier.
	CreateUser(ctx context.Context, u *User) error

	// UpdateUser updates a single user with changeset.
	// Returns the new user state after update.
	UpdateUser(ctx context.Context, id platform.ID, upd UserUpdate) (*User, error)

	// DeleteUser removes a user by ID.
	DeleteUser(ctx context.Context, id platform.ID) error
}

// PasswordsService is the service for managing basic auth passwords.
type PasswordsService interface {
	// SetPassword overrides the password of a known user.
	SetPassword(ctx context.Context, userID platform.ID, password string) error
	// ComparePassword checks if the password matches the password recorded.
	// Passwords that do not match return errors.
	ComparePassword(ctx context.Context, userID platform.ID, password string) error
	// CompareAndSetPassword checks the password and if they match
	// updates to the new password.
	CompareAndSetPassword(ctx context.Context, userID platform.ID, old, new string) error
}

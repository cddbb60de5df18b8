package domain

import (
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrMissingEmail       = errors.New("github account has no email")
	ErrMissingIdentity    = errors.New("user has no identifier")
	ErrDeserializeUser    = errors.New("error deserializing user")
	ErrForbidden          = errors.New("access forbidden")
)

// User is the account record owned by the user store. Password holds a bcrypt
// digest, or the empty string for accounts created through GitHub.
type User struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth *time.Time
	Password    string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EffectiveRole returns the stored role, or RoleUser for records written
// before roles were persisted.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// HasPassword reports whether the account can log in with local credentials.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// UserView is the public projection of a User. It never carries the digest.
type UserView struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	Email       string     `json:"email"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Role        string     `json:"userRole"`
}

// View projects u for transport. A nil user yields a nil view.
func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		DateOfBirth: u.DateOfBirth,
		Role:        u.EffectiveRole(),
	}
}

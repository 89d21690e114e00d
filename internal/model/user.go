package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleGuest  = "guest"
)

// User statuses.
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// DefaultDisplayName is shown when no user is loaded or the user has no name.
const DefaultDisplayName = "User"

// User is a row of the users table.
type User struct {
	ID         string    `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	Password   string    `json:"-" db:"password"`
	Name       string    `json:"name" db:"name"`
	Role       string    `json:"role" db:"role"`
	Status     string    `json:"status" db:"status"`
	IsOnline   bool      `json:"is_online" db:"is_online"`
	LoginCount int       `json:"login_count" db:"login_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the user's name, falling back to DefaultDisplayName.
// It is safe to call on a nil *User.
func (u *User) DisplayName() string {
	if u == nil || strings.TrimSpace(u.Name) == "" {
		return DefaultDisplayName
	}
	return u.Name
}

// Initials returns up to two uppercase initials for the avatar slot.
func (u *User) Initials() string {
	fields := strings.Fields(u.DisplayName())
	var initials []rune
	for _, f := range fields {
		if len(initials) == 2 {
			break
		}
		initials = append(initials, []rune(strings.ToUpper(f))[0])
	}
	return string(initials)
}

// HashPassword returns the bcrypt hash of plain. A cost of 0 uses
// bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if plain == "" {
		return "", errors.New("password must not be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	if u == nil || u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

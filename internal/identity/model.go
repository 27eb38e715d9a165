package identity

import (
	"errors"
	"time"
)

// UserType distinguishes people from businesses.
type UserType string

const (
	TypeIndividual   UserType = "individual"
	TypeOrganization UserType = "organization"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDocumentNumberInUse = errors.New("document number already in use")
	ErrInvalidUserType     = errors.New("invalid user type")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// ParseUserType validates a raw user type.
func ParseUserType(raw string) (UserType, error) {
	switch t := UserType(raw); t {
	case TypeIndividual, TypeOrganization:
		return t, nil
	default:
		return "", ErrInvalidUserType
	}
}

// User represents a registered wallet owner.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Document     DocumentNumber
	Type         UserType
	CreatedAt    time.Time
}

// IsOrganization reports whether the user is a business account. Business
// accounts may receive transfers but never send them.
func (u User) IsOrganization() bool {
	return u.Type == TypeOrganization
}

// RegisterInput is the registration request structure.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	DocumentNumber string
	Type           string
}

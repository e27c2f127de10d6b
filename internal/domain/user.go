/**
 * @description
 * This file defines the account holder aggregate and its identity value
 * objects. Accounts are created at onboarding and are read-only within the
 * transfer flow; the account type decides whether an account may send funds.
 */

package domain

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// UserType categorizes an account. The type is fixed at creation.
type UserType string

const (
	UserTypeCommon   UserType = "COMMON"
	UserTypeMerchant UserType = "MERCHANT"
)

var (
	// ErrNotAllowedPayer is returned when an account that may only receive
	// funds attempts to initiate a transfer.
	ErrNotAllowedPayer = errors.New("payer account is not allowed to send funds")

	ErrInvalidDocument = errors.New("document is not valid")
	ErrInvalidEmail    = errors.New("email is not valid")
	ErrEmptyHash       = errors.New("password hash cannot be empty")
)

// Document is a normalized tax identifier (11 digits for persons, 14 for
// companies).
type Document struct {
	value string
}

// NewDocument validates and normalizes a document, stripping all whitespace.
func NewDocument(value string) (Document, error) {
	normalized := strings.Join(strings.Fields(value), "")
	if len(normalized) != 11 && len(normalized) != 14 {
		return Document{}, ErrInvalidDocument
	}
	return Document{value: normalized}, nil
}

func (d Document) String() string { return d.value }

// Email is a normalized (trimmed, lowercased) e-mail address.
type Email struct {
	value string
}

// NewEmail validates and normalizes an e-mail address.
func NewEmail(value string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return Email{}, ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: normalized}, nil
}

func (e Email) String() string { return e.value }

// PasswordHash holds an already-hashed credential. The domain never sees the
// plaintext password.
type PasswordHash struct {
	value string
}

// PasswordHashFromHash wraps an existing hash.
func PasswordHashFromHash(hash string) (PasswordHash, error) {
	if hash == "" {
		return PasswordHash{}, ErrEmptyHash
	}
	return PasswordHash{value: hash}, nil
}

func (p PasswordHash) String() string { return p.value }

// User is an account holder.
type User struct {
	ID           uuid.UUID
	FullName     string
	Document     Document
	Email        Email
	PasswordHash PasswordHash
	Type         UserType
}

// IsMerchant reports whether the account is a merchant account.
func (u *User) IsMerchant() bool {
	return u.Type == UserTypeMerchant
}

// CanSendMoney reports whether the account may initiate transfers. Merchant
// accounts may only receive.
func (u *User) CanSendMoney() bool {
	return u.Type == UserTypeCommon
}

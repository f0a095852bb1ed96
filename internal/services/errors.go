// Package services defines the business logic for chat codes, chat requests,
// and accounts. This file centralizes service-level error values so that they
// can be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/repo"
)

// Code Registry errors.
var (
	// ErrInvalidFormat is returned for a code that is not exactly 8 ASCII digits.
	ErrInvalidFormat = errors.New("code must be exactly 8 digits")

	// ErrCodeNotFound indicates that no active code matches: it never existed,
	// expired, or was retired.
	ErrCodeNotFound = errors.New("code not found")

	// ErrInvalidValidity is returned for a negative or oversized validity window.
	ErrInvalidValidity = errors.New("validity hours out of range")

	// ErrCodeGenerationExhausted is returned when every draw collided with a
	// live code.
	ErrCodeGenerationExhausted = errors.New("could not allocate a unique code")
)

// Request Ledger errors.
var (
	// ErrSelfRequest is returned when a user requests their own code.
	ErrSelfRequest = errors.New("cannot request your own code")

	// ErrDuplicateRequest is returned when the requester already holds a
	// live request for the same code.
	ErrDuplicateRequest = errors.New("request already sent for this code")

	// ErrUnauthorized indicates the caller has no rights over the target
	// record. Missing records report the same error so existence is not
	// disclosed.
	ErrUnauthorized = errors.New("not allowed to act on this record")

	// ErrInvalidAction is returned for a resolution other than accept or decline.
	ErrInvalidAction = errors.New("action must be accept or decline")

	// ErrAlreadyResolved is returned when resolving a request that is no
	// longer pending.
	ErrAlreadyResolved = errors.New("request already resolved")

	// ErrRequestNotFound indicates the caller holds no live request for a code.
	ErrRequestNotFound = errors.New("request not found")
)

// Account errors.
var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidProfile is returned for a missing name, malformed email, or
	// password outside the accepted length.
	ErrInvalidProfile = errors.New("invalid name, email or password")

	// ErrUserNotFound indicates the resolved identity has no account.
	ErrUserNotFound = errors.New("user not found")
)

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

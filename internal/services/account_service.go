// Package services – AccountService
//
// This file implements password sign-up, sign-in and profile lookup. Emails
// are NFC-normalized and case-folded before storage and comparison so that
// visually identical addresses map to one account.
package services

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-chatcode-backend/internal/auth"
	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/repo"
)

const (
	maxNameRunes   = 128
	maxEmailBytes  = 255
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// AccountService manages user accounts.
type AccountService struct {
	DB *gorm.DB
}

// SignUp registers a new account and returns it.
func (s *AccountService) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = NormalizeName(name)
	email = NormalizeEmail(email)
	if name == "" || utf8.RuneCountInString(name) > maxNameRunes {
		return nil, ErrInvalidProfile
	}
	if !validEmail(email) {
		return nil, ErrInvalidProfile
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, ErrInvalidProfile
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u, err := repo.CreateUser(ctx, s.DB, name, email, hash)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// SignIn verifies credentials and returns the matching account.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Profile returns the account for userID.
func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// NormalizeEmail trims, NFC-normalizes and case-folds an address.
func NormalizeEmail(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// NormalizeName NFC-normalizes a display name and collapses whitespace.
func NormalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

func validEmail(s string) bool {
	if s == "" || len(s) > maxEmailBytes {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements registration, login and profile management on top of
two collaborators: the identity provider (accounts, credentials, tokens) and
the username index (username → account bindings).

Architecture:

  - Service: Orchestrates the flows and translates collaborator failures into apperr.
  - Handler: chi routes for /auth/register, /auth/login and /auth/me.

The provider only knows emails, so every username-based operation goes
through the index first. No flow holds an in-process lock; username
uniqueness rests entirely on [username.Index.Reserve].
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/klyptik/internal/platform/apperr"
	"github.com/taibuivan/klyptik/internal/platform/ctxutil"
	"github.com/taibuivan/klyptik/internal/users/identity"
	"github.com/taibuivan/klyptik/internal/users/username"
)

// # Definitions & Constructors

// Service implements the account use cases.
type Service struct {
	provider identity.Provider
	index    username.Index
}

// NewService constructs a new [Service] with its collaborators.
func NewService(provider identity.Provider, index username.Index) *Service {
	return &Service{provider: provider, index: index}
}

// AccountSummary is the account block returned with a fresh session.
type AccountSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// AuthResult is a signed-in account and its session.
type AuthResult struct {
	Account AccountSummary
	Session *identity.Session
}

// Profile is the full private view of the caller's account.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	PhotoURL      string    `json:"photo_url"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Summary narrows the profile to the account block.
func (profile *Profile) Summary() AccountSummary {
	return AccountSummary{
		ID:          profile.ID,
		Email:       profile.Email,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string

	// Username is optional. When empty one is derived from the email.
	Username string
}

/*
Register creates the account with the provider, binds it to a unique username
and signs it in.

Description: Nothing is written to the index unless the provider accepted the
account. Once it has, the account must end up indexed: after MaxReserveRounds
lost races the id-derived fallback username is reserved instead.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *AuthResult: Account summary and session
  - error: Validation, Conflict, ServiceUnavailable or Internal
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	logger := ctxutil.GetLogger(ctx)

	// 1. Cheap checks first. Nothing has been written yet.
	if input.Password != input.ConfirmPassword {
		return nil, apperr.ValidationError("Passwords do not match", apperr.FieldError{
			Field:   FieldConfirmPassword,
			Message: "Passwords do not match",
		})
	}

	base := ""
	if explicit := strings.TrimSpace(input.Username); explicit != "" {
		base = username.Normalize(explicit)

		available, err := service.index.IsAvailable(ctx, base)
		if err != nil {
			return nil, indexUnavailable(err)
		}
		if !available {
			return nil, apperr.Conflict("Username is already taken")
		}
	}

	// 2. The provider decides whether the account may exist at all
	accountID, err := service.provider.CreateAccount(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailAlreadyExists):
			return nil, apperr.Conflict("Email is already registered")
		case errors.Is(err, identity.ErrWeakPassword):
			return nil, apperr.ValidationError("Password is too weak", apperr.FieldError{
				Field:   FieldPassword,
				Message: fmt.Sprintf("Minimum %d characters", identity.MinPasswordLength),
			})
		}
		return nil, providerFailure(err)
	}

	// 3. Bind a username. From here on the account exists.
	if base == "" {
		base = username.Normalize(emailLocalPart(input.Email))
	}

	name, err := service.reserveUsername(ctx, accountID, base)
	if err != nil {
		logger.ErrorContext(ctx, "account_created_index_failed",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return nil, apperr.Internal(fmt.Errorf("auth_service_register_index_failed: %w", err))
	}

	logger.InfoContext(ctx, "account_registered",
		slog.String("account_id", accountID),
		slog.String("username", name),
	)

	// 4. Sign the new account in
	session, err := service.provider.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return nil, providerFailure(err)
	}

	return &AuthResult{
		Account: AccountSummary{
			ID:          accountID,
			Email:       identity.CanonicalEmail(input.Email),
			Username:    name,
			DisplayName: strings.TrimSpace(input.Name),
		},
		Session: session,
	}, nil
}

// reserveUsername runs resolve-then-reserve rounds, then the fallback.
func (service *Service) reserveUsername(ctx context.Context, accountID, base string) (string, error) {
	var lastErr error

	for round := 0; round < MaxReserveRounds; round++ {
		candidate, err := username.ResolveAvailable(ctx, service.index, base)
		if err != nil {
			lastErr = err
			break
		}

		err = service.index.Reserve(ctx, candidate, accountID)
		if err == nil {
			return candidate, nil
		}

		lastErr = err
		if !errors.Is(err, username.ErrUsernameTaken) {
			break
		}
	}

	fallback := username.FallbackFor(accountID)
	if err := service.index.Reserve(ctx, fallback, accountID); err != nil {
		return "", errors.Join(lastErr, err)
	}

	ctxutil.GetLogger(ctx).WarnContext(ctx, "username_fallback_reserved",
		slog.String("account_id", accountID),
		slog.String("base", base),
		slog.Any("cause", lastErr),
	)

	return fallback, nil
}

// # Authentication Flow

// IdentifierKind tells how a login identifier is resolved.
type IdentifierKind int

const (
	KindUsername IdentifierKind = iota
	KindEmail
)

// Classify treats an identifier as an email when it has exactly one '@' with
// text on both sides. Everything else is a username.
func Classify(identifier string) IdentifierKind {
	local, domain, found := strings.Cut(strings.TrimSpace(identifier), "@")
	if !found || local == "" || domain == "" || strings.Contains(domain, "@") {
		return KindUsername
	}
	return KindEmail
}

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Identifier string // Email or username
	Password   string
}

/*
Login resolves the identifier to an email and verifies the password.

Description: Unknown usernames, unknown emails and wrong passwords all fail
with the same error so responses cannot be used to enumerate accounts.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *AuthResult: Account summary and session
  - error: Unauthorized or ServiceUnavailable
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := input.Identifier

	// 1. Usernames are resolved through the index, then the provider
	if Classify(input.Identifier) == KindUsername {
		accountID, err := service.index.Lookup(ctx, username.Canonical(input.Identifier))
		if err != nil {
			if errors.Is(err, username.ErrUsernameNotFound) {
				return nil, invalidCredentials()
			}
			return nil, indexUnavailable(err)
		}

		account, err := service.provider.GetAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, identity.ErrAccountNotFound) {
				return nil, invalidCredentials()
			}
			return nil, providerFailure(err)
		}
		email = account.Email
	}

	// 2. The provider verifies the password and issues the session
	session, err := service.provider.VerifyCredentials(ctx, email, input.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) || errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, invalidCredentials()
		}
		return nil, providerFailure(err)
	}

	profile, err := service.Profile(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: profile.Summary(), Session: session}, nil
}

// # Profile Management

/*
Profile assembles the caller's profile from the provider and the index.

Parameters:
  - ctx: context.Context
  - accountID: string (from the verified session, never from the body)

Returns:
  - *Profile: Fully hydrated profile
  - error: NotFound or ServiceUnavailable
*/
func (service *Service) Profile(ctx context.Context, accountID string) (*Profile, error) {
	account, err := service.provider.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, apperr.NotFound("Account")
		}
		return nil, providerFailure(err)
	}

	name, err := service.index.UsernameOf(ctx, accountID)
	if err != nil && !errors.Is(err, username.ErrUsernameNotFound) {
		return nil, indexUnavailable(err)
	}

	return &Profile{
		ID:          account.ID,
		Email:       account.Email,
		Username:    name,
		DisplayName: account.DisplayName,
		PhotoURL:    account.PhotoURL,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}, nil
}

/*
UpdateProfile applies a partial update to the caller's own profile.

Parameters:
  - ctx: context.Context
  - accountID: string
  - fields: identity.ProfileFields

Returns:
  - *Profile: The updated profile
  - error: NotFound or ServiceUnavailable
*/
func (service *Service) UpdateProfile(ctx context.Context, accountID string, fields identity.ProfileFields) (*Profile, error) {
	if err := service.provider.UpdateProfile(ctx, accountID, fields); err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, apperr.NotFound("Account")
		}
		return nil, providerFailure(err)
	}

	return service.Profile(ctx, accountID)
}

// # Error Translation

func invalidCredentials() *apperr.AppError {
	return apperr.Unauthorized("Invalid credentials")
}

func providerFailure(err error) *apperr.AppError {
	if errors.Is(err, identity.ErrProviderUnavailable) {
		return apperr.ServiceUnavailable("Identity service is temporarily unavailable").WithCause(err)
	}
	return apperr.Internal(fmt.Errorf("auth_service_provider_failed: %w", err))
}

func indexUnavailable(err error) *apperr.AppError {
	return apperr.ServiceUnavailable("Username service is temporarily unavailable").WithCause(err)
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}

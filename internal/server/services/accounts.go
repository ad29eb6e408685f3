// Package services contains the server-side business logic: the registration
// orchestrator, the email verifier, and the credential authenticator.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dbelyaev/gatekeeper/internal/common"
	"github.com/dbelyaev/gatekeeper/internal/logging"
	"github.com/dbelyaev/gatekeeper/internal/server/mailer"
	"github.com/dbelyaev/gatekeeper/internal/server/models"
	"github.com/dbelyaev/gatekeeper/internal/server/otp"
	"github.com/dbelyaev/gatekeeper/internal/server/repositories/accounts"
	"github.com/dbelyaev/gatekeeper/internal/server/security"
)

// AccountService owns the registration, email verification, and signin flows.
type AccountService struct {
	accounts accounts.Repository
	sender   mailer.Sender
	logger   logging.Logger
}

func NewAccountService(repo accounts.Repository, sender mailer.Sender, l logging.Logger) *AccountService {
	return &AccountService{
		accounts: repo,
		sender:   sender,
		logger:   l.With("module", "account_service"),
	}
}

// Register creates an account and emails it a verification code. The two
// steps share no transaction: if the email cannot be delivered, the freshly
// created account is deleted before the error is returned, so no unverified,
// unreachable account outlives a failed signup.
func (s *AccountService) Register(ctx context.Context, username, email, password string) error {

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error checking email: %w", err)
	}

	if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
		return common.ErrDuplicateUsername
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error checking username: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	code, err := otp.Generate()
	if err != nil {
		return fmt.Errorf("error generating otp: %w", err)
	}

	account, err := s.accounts.Create(ctx, &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PendingOtp:   sql.NullString{String: code, Valid: true},
	})
	if err != nil {
		// two signups can race past the lookups above; the store's unique
		// constraints are the authority
		if errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("error creating account: %w", err)
	}

	if err := s.sender.SendOtp(ctx, email, code); err != nil {
		s.logger.Error(ctx, "verification email failed, rolling back signup", "email", email, "error", err.Error())
		if delErr := s.accounts.Delete(ctx, account.ID); delErr != nil {
			s.logger.Error(ctx, "signup rollback failed", "account_id", account.ID, "error", delErr.Error())
		}
		return common.ErrDeliveryFailed
	}

	s.logger.Info(ctx, "verification code sent", "username", username)
	return nil
}

// VerifyEmail checks a submitted code against the account's pending one and,
// on a match, marks the address verified and retires the code in one atomic
// write. A mismatch leaves the account untouched, so the caller may retry.
func (s *AccountService) VerifyEmail(ctx context.Context, email, otpEntered string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading account: %w", err)
	}

	// a verified account has only the consumed sentinel left; never match
	// against it
	if account.EmailVerified {
		return common.ErrOtpMismatch
	}

	if otpEntered == "" || !account.PendingOtp.Valid || account.PendingOtp.String != otpEntered {
		return common.ErrOtpMismatch
	}

	if err := s.accounts.MarkEmailVerified(ctx, email); err != nil {
		return fmt.Errorf("error marking email verified: %w", err)
	}

	s.logger.Info(ctx, "email verified", "username", account.Username)
	return nil
}

// Authenticate validates a username/password pair. A verified email address
// is a hard precondition: unverified accounts cannot sign in even with the
// correct password. On success only the public fields are returned.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.PublicAccount, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	if !account.EmailVerified {
		return nil, common.ErrNotVerified
	}

	if !security.VerifyPassword(password, account.PasswordHash) {
		return nil, common.ErrBadPassword
	}

	return account.Public(), nil
}

// GetAccount returns the public view of an account by id. It backs the
// session probe, which re-fetches live state instead of trusting stale
// token claims alone.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*models.PublicAccount, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account.Public(), nil
}

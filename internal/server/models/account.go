// Package models defines the persistent data model of the service.
package models

import (
	"database/sql"
	"time"
)

// OtpConsumedSentinel replaces the pending verification code once the email
// address has been confirmed, so the original code can never be replayed.
const OtpConsumedSentinel = "MAIL_VERIFICATION_DONE"

// Account is a registered credential record.
//
// PasswordHash and PendingOtp are internal fields and must never be exposed
// to callers; use Public() for anything that leaves the service layer.
// PendingOtp is NULL until a code is issued, holds the active code while
// verification is pending, and holds OtpConsumedSentinel afterwards.
type Account struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	EmailVerified bool
	PendingOtp    sql.NullString
	CreatedAt     time.Time
}

// PublicAccount is the caller-visible projection of an Account.
type PublicAccount struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"isMailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Public returns the projection of the account that is safe to hand to
// callers.
func (a *Account) Public() *PublicAccount {
	return &PublicAccount{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt,
	}
}

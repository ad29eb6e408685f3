// Package mailer delivers verification codes by email. Sender is the
// capability the rest of the service depends on; SMTPSender is the
// production implementation.
package mailer

import (
	"context"
	"fmt"
)

// Sender delivers a verification code to a destination address and reports
// success or failure synchronously. The implementation owns its own timeout
// policy; callers simply await the outcome.
type Sender interface {
	SendOtp(ctx context.Context, to string, code string) error
}

func textBody(code string) string {
	return fmt.Sprintf("Welcome! Your One-Time Password (OTP) is: %s. Use it to verify your email address and complete your registration.", code)
}

func htmlBody(code string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
  <h2 style="text-align: center;">Welcome!</h2>
  <p>Thank you for signing up. Please use the following One-Time Password (OTP) to verify your email address and complete your registration.</p>
  <div style="text-align: center; margin: 30px 0;">
    <span style="font-size: 24px; font-weight: bold; letter-spacing: 5px;">%s</span>
  </div>
  <p>This code should not be shared with anyone.</p>
</div>`, code)
}

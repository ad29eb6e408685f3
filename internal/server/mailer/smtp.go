package mailer

import (
	"context"
	"time"

	"gopkg.in/gomail.v2"
)

// defaultSendTimeout bounds a single SMTP delivery attempt.
const defaultSendTimeout = 30 * time.Second

// SMTPSender sends verification emails through an SMTP relay.
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		timeout: defaultSendTimeout,
	}
}

// SendOtp composes the verification message and hands it to the SMTP relay.
// The call blocks until the relay accepts or rejects the message, the
// sender's timeout elapses, or ctx is cancelled.
func (s *SMTPSender) SendOtp(ctx context.Context, to string, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/plain", textBody(code))
	msg.AddAlternative("text/html", htmlBody(code))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// gomail has no context support; run the dial-and-send in a goroutine
	// and race it against the deadline
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

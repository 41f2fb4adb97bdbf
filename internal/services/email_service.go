package services

import (
	"context"
	"fmt"

	"github.com/90n9/talepick/internal/models"
	"gopkg.in/gomail.v2"
)

var verificationSubjects = map[models.VerificationPurpose]string{
	models.PurposeRegistration:      "Confirm your TalePick account",
	models.PurposePasswordReset:     "Reset your TalePick password",
	models.PurposeLoginVerification: "Your TalePick sign-in code",
}

// EmailService sends transactional email over SMTP
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService creates an EmailService
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) *EmailService {
	return &EmailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

// SendVerificationCode emails a verification code to the recipient
func (s *EmailService) SendVerificationCode(ctx context.Context, email, code string, purpose models.VerificationPurpose) error {
	subject, ok := verificationSubjects[purpose]
	if !ok {
		subject = "Your TalePick verification code"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)

	body := fmt.Sprintf(`
		<h3>Your verification code</h3>
		<p>Enter the following code to continue: <strong>%s</strong></p>
		<p>The code expires in a few minutes and can be used once.</p>
		<p>If you did not request this code, you can ignore this email.</p>
	`, code)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/skillbridge/skillbridge_backend/internal/logging"
)

// Sender delivers a single email
type Sender interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// ResendSender delivers email through the Resend API
type ResendSender struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

// NewResendSender creates a sender backed by Resend
func NewResendSender(apiKey, fromName, fromEmail string) *ResendSender {
	return &ResendSender{
		client:    resend.NewClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send sends an email via Resend
func (s *ResendSender) Send(ctx context.Context, to, subject, html, text string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// LogSender logs emails instead of sending them. Used in development when
// no Resend API key is configured.
type LogSender struct{}

// Send logs the email
func (s *LogSender) Send(ctx context.Context, to, subject, html, text string) error {
	logging.Info("Email delivery skipped (no API key configured)", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

// Service builds and sends the platform's transactional emails
type Service struct {
	sender  Sender
	baseURL string
}

// NewService creates an email service. When apiKey is empty, emails are
// logged rather than sent.
func NewService(apiKey, fromName, fromEmail, baseURL string) *Service {
	var sender Sender
	if apiKey != "" {
		sender = NewResendSender(apiKey, fromName, fromEmail)
	} else {
		sender = &LogSender{}
	}
	return &Service{sender: sender, baseURL: baseURL}
}

// NewServiceWithSender creates a service with an explicit sender, used in tests
func NewServiceWithSender(sender Sender, baseURL string) *Service {
	return &Service{sender: sender, baseURL: baseURL}
}

// SendVerificationEmail sends the email address verification link
func (s *Service) SendVerificationEmail(ctx context.Context, to, username, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)

	subject := "Verify your SkillBridge email address"
	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to SkillBridge! Please confirm your email address by clicking the link below:</p>
<p><a href="%s">Verify email address</a></p>
<p>If you did not create an account, you can ignore this message.</p>`, username, link)
	text := fmt.Sprintf("Hi %s,\n\nWelcome to SkillBridge! Confirm your email address:\n%s\n\nIf you did not create an account, ignore this message.", username, link)

	if err := s.sender.Send(ctx, to, subject, html, text); err != nil {
		return fmt.Errorf("failed to send verification email: %v", err)
	}
	return nil
}

// SendPasswordResetEmail sends the password reset link
func (s *Service) SendPasswordResetEmail(ctx context.Context, to, username, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)

	subject := "Reset your SkillBridge password"
	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. Click the link below to choose a new one:</p>
<p><a href="%s">Reset password</a></p>
<p>This link expires in 24 hours. If you did not request a reset, you can ignore this message.</p>`, username, link)
	text := fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password. Choose a new one here:\n%s\n\nThis link expires in 24 hours. If you did not request a reset, ignore this message.", username, link)

	if err := s.sender.Send(ctx, to, subject, html, text); err != nil {
		return fmt.Errorf("failed to send password reset email: %v", err)
	}
	return nil
}

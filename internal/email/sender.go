// Package email delivers follow-up reminder mail over SMTP.
package email

import (
	"context"

	"karpet_crm_backend/platform/config"
)

// Sender sends transactional mail to sales users.
type Sender interface {
	SendFollowUpReminderEmail(ctx context.Context, toEmail, userName, leadName, leadPhone, stageName, scheduledDate string) error
	SendLeadWentColdEmail(ctx context.Context, toEmail, userName, leadName string) error
}

// NoopSender is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendFollowUpReminderEmail(ctx context.Context, toEmail, userName, leadName, leadPhone, stageName, scheduledDate string) error {
	return nil
}

func (NoopSender) SendLeadWentColdEmail(ctx context.Context, toEmail, userName, leadName string) error {
	return nil
}

// NewSender returns an SMTP sender, or a noop when email is disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
	)
}

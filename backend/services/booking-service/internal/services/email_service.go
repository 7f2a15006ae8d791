package services

import (
	"context"
	"fmt"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService delivers transactional mail.
type EmailService interface {
	Send(ctx context.Context, to, subject, plain, html string) error
}

// NewEmailService returns a SendGrid sender, or a logging stub when no API
// key is configured.
func NewEmailService(cfg *config.Config) EmailService {
	if cfg.SendGridAPIKey == "" {
		utils.Logger.Warn("SENDGRID_API_KEY not set; emails will only be logged")
		return &logEmailService{}
	}
	return &sendgridEmailService{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromName:  cfg.OrganizationName,
		fromEmail: cfg.SendGridFromEmail,
		sandbox:   cfg.Flag_SendgridSandboxMode,
	}
}

type sendgridEmailService struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	sandbox   bool
}

func (s *sendgridEmailService) Send(ctx context.Context, to, subject, plain, html string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), plain, html)

	if s.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.SetMailSettings(ms)
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid returned %d: %s", utils.ErrExternalServiceFailure, resp.StatusCode, resp.Body)
	}
	utils.Logger.WithField("to", to).Debug("email sent via sendgrid")
	return nil
}

type logEmailService struct{}

func (logEmailService) Send(_ context.Context, to, subject, plain, _ string) error {
	utils.Logger.WithField("to", to).WithField("subject", subject).Info(plain)
	return nil
}

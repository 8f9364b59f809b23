package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v3"
)

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) (*ResendSender, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("resend api key is required")
	}

	return &ResendSender{client: resend.NewClient(apiKey)}, nil
}

func (s *ResendSender) Send(ctx context.Context, email *Email) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("sender is not initialized")
	}
	if email == nil {
		return fmt.Errorf("email is required")
	}

	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		Text:    email.Text,
		Html:    email.HTML,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return &TransportError{
			Message:   "resend send failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	return nil
}

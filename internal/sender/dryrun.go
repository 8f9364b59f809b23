package sender

import (
	"context"

	"go.uber.org/zap"
)

// DryRunSender logs each envelope instead of delivering it.
type DryRunSender struct {
	logger *zap.Logger
}

func NewDryRunSender(logger *zap.Logger) *DryRunSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunSender{logger: logger}
}

func (s *DryRunSender) Send(ctx context.Context, email *Email) error {
	if email == nil {
		return nil
	}

	s.logger.Info("dry run: would send email",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.Int("textBytes", len(email.Text)),
		zap.Int("htmlBytes", len(email.HTML)),
	)
	return nil
}

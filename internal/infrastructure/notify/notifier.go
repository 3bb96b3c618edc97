package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier records claim challenges instead of delivering them. The SMS
// and email gateways live in the main platform; this service only issues
// the challenges.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPhoneCode(_ context.Context, phone, code string) error {
	n.logger.Info("Phone verification code ready for delivery",
		zap.String("phone", phone),
		zap.Int("code_length", len(code)))
	return nil
}

func (n *LogNotifier) SendEmailToken(_ context.Context, email, link string) error {
	n.logger.Info("Email verification link ready for delivery",
		zap.String("email", email),
		zap.Int("link_length", len(link)))
	return nil
}

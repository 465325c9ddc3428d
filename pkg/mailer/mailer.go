package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arkan-dev/preskool-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Mailer delivers messages through a concrete backend.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a backend from configuration.
func New(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Backend {
	case "sendgrid":
		if cfg.SendgridKey == "" {
			return nil, fmt.Errorf("sendgrid backend requires SENDGRID_API_KEY")
		}
		return NewSendgridMailer(cfg), nil
	case "console", "":
		return NewConsoleMailer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}

// ConsoleMailer logs messages instead of delivering them. Used in development
// and as the fallback when no provider is configured.
type ConsoleMailer struct {
	from   string
	logger *zap.Logger
}

// NewConsoleMailer builds a console-backed mailer.
func NewConsoleMailer(cfg config.MailConfig, logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		logger: logger,
	}
}

// Send writes the message to the log.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("outbound email",
		zap.String("from", m.from),
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody),
	)
	return nil
}

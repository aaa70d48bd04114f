// Package notify delivers verification codes to users.
package notify

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

type Gateway interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogGateway writes the code to the log instead of sending it. It is the
// fallback when no SMTP host is configured.
type LogGateway struct {
	logger logging.Logger
}

func NewLogGateway(logger logging.Logger) *LogGateway {
	return &LogGateway{logger: logger.With("module", "notify")}
}

func (g *LogGateway) SendOTP(ctx context.Context, email, code string) error {
	g.logger.Info(ctx, "otp dry run", "email", email, "code", code)
	return nil
}

package mailer

import (
	"context"
	"time"

	"github.com/DenysVerbitskyi/verba-store/internal/orders"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

// Noop stands in when SMTP is not configured. Codes are logged at debug
// so local development still works without a mail server.
type Noop struct {
	logg *logger.Logger
}

// NewNoop builds the logging-only mailer.
func NewNoop(logg *logger.Logger) *Noop {
	return &Noop{logg: logg}
}

func (n *Noop) SendVerificationCode(ctx context.Context, to string, code string, ttl time.Duration) error {
	if n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{"to": to, "code": code})
		n.logg.Debug(ctx, "smtp disabled, verification code not sent")
	}
	return nil
}

func (n *Noop) NotifyNewOrder(ctx context.Context, order orders.OrderDTO) error {
	if n.logg != nil {
		ctx = n.logg.WithField(ctx, "order_id", order.ID.String())
		n.logg.Debug(ctx, "smtp disabled, order notification not sent")
	}
	return nil
}

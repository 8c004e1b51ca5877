package mailer

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/DenysVerbitskyi/verba-store/internal/orders"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

// Mailer sends the two transactional emails the shop needs: login codes
// to customers and new-order notifications to the admin address.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to string, code string, ttl time.Duration) error
	NotifyNewOrder(ctx context.Context, order orders.OrderDTO) error
}

type smtpMailer struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string
}

// New builds an SMTP mailer, or a Noop one when SMTP is not configured.
func New(cfg config.SMTPConfig, logg *logger.Logger) Mailer {
	if !cfg.Enabled() {
		return NewNoop(logg)
	}
	return &smtpMailer{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:       cfg.From,
		adminEmail: cfg.AdminEmail,
	}
}

func (m *smtpMailer) SendVerificationCode(ctx context.Context, to string, code string, ttl time.Duration) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your order lookup code")

	body := fmt.Sprintf(`
		<h3>Your one-time code</h3>
		<p>Enter this code to view your orders: <strong>%s</strong></p>
		<p>The code expires in %d minutes. If you did not request it, you can ignore this email.</p>
	`, code, int(ttl.Minutes()))
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send verification code email: %w", err)
	}
	return nil
}

func (m *smtpMailer) NotifyNewOrder(ctx context.Context, order orders.OrderDTO) error {
	if m.adminEmail == "" {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.adminEmail)
	msg.SetHeader("Subject", fmt.Sprintf("New order from %s", order.CustomerName))

	lines := ""
	for _, item := range order.Items {
		lines += fmt.Sprintf("<li>%s &times; %d = %s</li>", item.Name, item.Quantity, item.LineTotal)
	}
	body := fmt.Sprintf(`
		<h3>New order %s</h3>
		<p>Customer: %s (%s)</p>
		<ul>%s</ul>
		<p>Total: <strong>%s</strong></p>
	`, order.ID, order.CustomerName, order.CustomerEmail, lines, order.Total)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send order notification email: %w", err)
	}
	return nil
}

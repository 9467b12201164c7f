package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"amica/internal/domain/order"
	"amica/internal/shared/config"
	"amica/internal/shared/logger"
)

// AddressDirectory resolves an account id to a recipient email address.
// Empty means no address on file.
type AddressDirectory interface {
	GetEmail(ctx context.Context, accountID string) (string, error)
}

// ReceiptSender sends the payment receipt email for a confirmed order.
type ReceiptSender struct {
	config    config.EmailConfig
	dialer    *gomail.Dialer
	directory AddressDirectory
	logger    logger.Interface
}

func NewReceiptSender(cfg config.EmailConfig, directory AddressDirectory, log logger.Interface) *ReceiptSender {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	return &ReceiptSender{
		config:    cfg,
		dialer:    dialer,
		directory: directory,
		logger:    log,
	}
}

func (s *ReceiptSender) SendReceipt(ctx context.Context, accountID string, o *order.Order) error {
	to, err := s.directory.GetEmail(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if to == "" {
		s.logger.Debugw("no email on file, skipping receipt", "account_id", accountID)
		return nil
	}

	subject := "Your payment receipt"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Thank you for your purchase!</h2>
			<p>We received your payment of <strong>%s</strong> for the <strong>%s</strong> plan.</p>
			<p>Order reference: %s</p>
			<p>Your access has been extended. Enjoy!</p>
		</body>
		</html>
	`, o.Amount().String(), o.PlanID(), o.Reference())

	plainBody := fmt.Sprintf(`
Thank you for your purchase!

We received your payment of %s for the %s plan.

Order reference: %s

Your access has been extended. Enjoy!
	`, o.Amount().String(), o.PlanID(), o.Reference())

	return s.sendEmail(to, subject, htmlBody, plainBody)
}

func (s *ReceiptSender) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infow("receipt email sent", "to", to)
	return nil
}

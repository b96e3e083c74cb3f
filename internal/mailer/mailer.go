package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/goldvault/backend/internal/config"
)

// Mailer sends transactional notifications over SMTP. It satisfies
// service.Notifier.
type Mailer struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether SMTP is configured at all.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

func (m *Mailer) SendDepositReceived(email string, amount float64) error {
	body := fmt.Sprintf(
		"We received your deposit request of $%.2f.\n\nIt will start earning daily returns as soon as our team confirms the transaction.",
		amount)
	return m.send(email, "Deposit received", body)
}

func (m *Mailer) SendWithdrawalRequested(email string, amount float64, walletAddress string) error {
	body := fmt.Sprintf(
		"Your withdrawal request of $%.2f to %s has been received.\n\nThe amount has been reserved from your balance and will be paid out after review.",
		amount, walletAddress)
	return m.send(email, "Withdrawal requested", body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	return d.DialAndSend(msg)
}

// Package notify sends the operator alert email for a failed payment.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/wneessen/go-mail"

	"payment-failure-monitor/internal/activity"
	"payment-failure-monitor/internal/config"
	"payment-failure-monitor/internal/types"
)

// DateLayout mirrors a US-locale "date, time" rendering.
const DateLayout = "1/2/2006, 3:04:05 PM"

var alertTemplate = template.Must(template.New("alert").Parse(`
<h2>Payment Failure Alert</h2>
<p><strong>Customer:</strong> {{.Email}}</p>
<p><strong>Amount:</strong> ${{.Amount}}</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p><strong>Charge ID:</strong> {{.ChargeID}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
`))

// Sender is the mail transport. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Notifier struct {
	Sender   Sender
	From     string
	To       string
	Log      *activity.Log
	Location *time.Location
	Timeout  time.Duration
}

// NewSMTP builds a notifier that authenticates against the configured mail account.
func NewSMTP(cfg config.Config, log *activity.Log) (*Notifier, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.MailUser),
		mail.WithPassword(cfg.MailPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.OutboundTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return &Notifier{
		Sender:   client,
		From:     cfg.MailUser,
		To:       cfg.AlertRecipient,
		Log:      log,
		Location: time.Local,
		Timeout:  cfg.OutboundTimeout,
	}, nil
}

// SendFailureAlert emails the operator about rec. The outcome is written to the
// activity log; the returned error is informational and never retried.
func (n *Notifier) SendFailureAlert(ctx context.Context, rec types.FailureRecord) error {
	err := n.send(ctx, rec)
	if err != nil {
		n.Log.Recordf("Email failed: %v", err)
		return err
	}
	n.Log.Recordf("Email sent for charge %s", rec.ChargeID)
	return nil
}

func (n *Notifier) send(ctx context.Context, rec types.FailureRecord) error {
	msg, err := n.Message(rec)
	if err != nil {
		return err
	}
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	if err := n.Sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Message composes the alert email without sending it.
func (n *Notifier) Message(rec types.FailureRecord) (*mail.Msg, error) {
	body, err := n.RenderBody(rec)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.From, err)
	}
	if err := msg.To(n.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", n.To, err)
	}
	msg.Subject(Subject(rec))
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func Subject(rec types.FailureRecord) string {
	return "🚨 Payment Failed - " + rec.Email
}

// RenderBody fills the HTML alert template.
func (n *Notifier) RenderBody(rec types.FailureRecord) (string, error) {
	loc := n.Location
	if loc == nil {
		loc = time.Local
	}
	var buf bytes.Buffer
	err := alertTemplate.Execute(&buf, struct {
		Email, Amount, Reason, ChargeID, Date string
	}{
		Email:    rec.Email,
		Amount:   rec.MajorAmount().StringFixed(2),
		Reason:   rec.Reason,
		ChargeID: rec.ChargeID,
		Date:     rec.Date.In(loc).Format(DateLayout),
	})
	if err != nil {
		return "", fmt.Errorf("render alert: %w", err)
	}
	return buf.String(), nil
}

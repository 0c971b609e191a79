package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/joy095/travel/config"
	"github.com/joy095/travel/events"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/metrics"
	"github.com/joy095/travel/models/outbox_models"
	gomail "gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var bookingTemplate = template.Must(template.ParseFS(templateFS, "templates/booking_status.html"))

// Sender delivers one HTML email.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.Mail) *SMTPSender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &SMTPSender{dialer: dialer, from: cfg.From}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	logger.InfoLogger.Infof("Attempting to connect to SMTP server: %s:%d", s.dialer.Host, s.dialer.Port)
	if err := s.dialer.DialAndSend(m); err != nil {
		logger.ErrorLogger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	logger.InfoLogger.Infof("Sent email to %s", to)
	return nil
}

type bookingEmail struct {
	subject    string
	heading    string
	rateInvite bool
}

var bookingEmails = map[string]bookingEmail{
	outbox_models.EventBookingCreated:   {subject: "Booking received", heading: "We received your booking"},
	outbox_models.EventBookingConfirmed: {subject: "Booking confirmed", heading: "Your booking is confirmed"},
	outbox_models.EventBookingCancelled: {subject: "Booking cancelled", heading: "Your booking was cancelled"},
	outbox_models.EventBookingCompleted: {subject: "Thanks for travelling with us", heading: "Your trip is complete", rateInvite: true},
}

// Notifier turns booking events into emails to the booking's contact
// address.
type Notifier struct {
	sender Sender
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// HandleEvent is an events.Handler. Events without a contact address or
// without an email template are ignored.
func (n *Notifier) HandleEvent(_ context.Context, msg events.Message) error {
	kind, ok := bookingEmails[msg.Type]
	if !ok {
		return nil
	}

	var p outbox_models.BookingPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	if p.ContactEmail == "" {
		logger.InfoLogger.Infof("Booking %s has no contact email, skipping %s", p.BookingID, msg.Type)
		return nil
	}

	body, err := RenderBookingEmail(kind.heading, kind.rateInvite, p)
	if err != nil {
		return err
	}
	if err := n.sender.Send(p.ContactEmail, fmt.Sprintf("%s (%s)", kind.subject, p.ConfirmationCode), body); err != nil {
		return err
	}

	metrics.NotificationsSent.WithLabelValues(msg.Type).Inc()
	return nil
}

func RenderBookingEmail(heading string, rateInvite bool, p outbox_models.BookingPayload) (string, error) {
	data := struct {
		outbox_models.BookingPayload
		Heading    string
		RateInvite bool
	}{p, heading, rateInvite}

	var body bytes.Buffer
	if err := bookingTemplate.Execute(&body, data); err != nil {
		logger.ErrorLogger.Errorf("Failed to execute booking email template: %v", err)
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// Package notify sends customer email. Delivery is a post-commit side
// effect: the caller logs and swallows every error, so nothing here may be
// load-bearing for a booking.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"

	"github.com/sal186/rouze-booking-agent/internal/domain"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// RatePerSecond caps outbound sends so a burst of bookings cannot trip
	// the SMTP provider's limits.
	RatePerSecond float64
}

type Mailer struct {
	cfg     Config
	limiter *rate.Limiter
	log     *slog.Logger

	// send is swappable in tests; defaults to a real SMTP dial.
	send func(m *gomail.Message) error
}

func NewMailer(cfg Config, log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 3),
		log:     log.With(slog.String("component", "notify")),
		send:    func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

func (m *Mailer) BookingConfirmed(ctx context.Context, cfg domain.BookingConfig, b domain.Booking, svc domain.Service) error {
	subject := fmt.Sprintf("Booking confirmed: %s on %s", svc.Name, b.Date.Format("2006-01-02"))

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", b.CustomerName)
	fmt.Fprintf(&body, "Your booking with %s is confirmed.\n\n", cfg.BusinessName)
	fmt.Fprintf(&body, "Service: %s\n", svc.Name)
	fmt.Fprintf(&body, "Date: %s\n", b.Date.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&body, "Time: %s\n", b.StartTime)
	fmt.Fprintf(&body, "Duration: %d minutes\n", b.DurationMinutes)
	if svc.Price > 0 {
		fmt.Fprintf(&body, "Price: $%.2f\n", svc.Price)
	}
	fmt.Fprintf(&body, "\nBooking reference: %s\n", b.ID)
	if cfg.BusinessPhone != "" {
		fmt.Fprintf(&body, "\nQuestions? Call us at %s.\n", cfg.BusinessPhone)
	}

	return m.deliver(ctx, cfg, b.CustomerEmail, subject, body.String())
}

func (m *Mailer) BookingCancelled(ctx context.Context, cfg domain.BookingConfig, b domain.Booking) error {
	subject := fmt.Sprintf("Booking cancelled: %s", b.Date.Format("2006-01-02"))

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", b.CustomerName)
	fmt.Fprintf(&body, "Your booking with %s on %s at %s has been cancelled.\n",
		cfg.BusinessName, b.Date.Format("Monday, January 2, 2006"), b.StartTime)
	fmt.Fprintf(&body, "\nBooking reference: %s\n", b.ID)

	return m.deliver(ctx, cfg, b.CustomerEmail, subject, body.String())
}

func (m *Mailer) deliver(ctx context.Context, cfg domain.BookingConfig, to, subject, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	if cfg.BusinessEmail != "" {
		msg.SetHeader("Bcc", cfg.BusinessEmail)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.send(msg); err != nil {
		return fmt.Errorf("notify: send to %s: %w", to, err)
	}
	m.log.Info("email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// Disabled is the notifier used when SMTP is not configured.
type Disabled struct{}

func (Disabled) BookingConfirmed(ctx context.Context, cfg domain.BookingConfig, b domain.Booking, svc domain.Service) error {
	return nil
}

func (Disabled) BookingCancelled(ctx context.Context, cfg domain.BookingConfig, b domain.Booking) error {
	return nil
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/sal186/rouze-booking-agent/internal/domain"
)

func testBooking() domain.Booking {
	return domain.Booking{
		ID:              uuid.MustParse("0195b2f0-0000-7000-8000-000000000001"),
		ServiceID:       "svc_intro",
		Date:            time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       600,
		DurationMinutes: 30,
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		Status:          domain.StatusConfirmed,
	}
}

func testConfig() domain.BookingConfig {
	return domain.BookingConfig{
		BusinessName:  "Acme Studio",
		BusinessEmail: "owner@acme.example",
		BusinessPhone: "+1 555 0100",
		Timezone:      "UTC",
	}
}

func captureMailer(capture *[]*gomail.Message) *Mailer {
	m := NewMailer(Config{From: "noreply@acme.example", RatePerSecond: 100}, nil)
	m.send = func(msg *gomail.Message) error {
		*capture = append(*capture, msg)
		return nil
	}
	return m
}

func TestBookingConfirmed_Message(t *testing.T) {
	var sent []*gomail.Message
	m := captureMailer(&sent)

	b := testBooking()
	svc := domain.Service{ID: "svc_intro", Name: "Intro Call", DurationMinutes: 30, Price: 50}
	if err := m.BookingConfirmed(context.Background(), testConfig(), b, svc); err != nil {
		t.Fatalf("BookingConfirmed error: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}

	msg := sent[0]
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "ada@example.com" {
		t.Fatalf("To = %v", got)
	}
	if got := msg.GetHeader("Bcc"); len(got) != 1 || got[0] != "owner@acme.example" {
		t.Fatalf("Bcc = %v", got)
	}
	subject := msg.GetHeader("Subject")
	if len(subject) != 1 || !strings.Contains(subject[0], "Intro Call") {
		t.Fatalf("Subject = %v", subject)
	}
	body := messageBody(t, msg)
	for _, want := range []string{"Ada Lovelace", "Acme Studio", "10:00", "30 minutes", "$50.00"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBookingConfirmed_FreeServiceOmitsPrice(t *testing.T) {
	var sent []*gomail.Message
	m := captureMailer(&sent)

	svc := domain.Service{ID: "svc_intro", Name: "Intro Call", DurationMinutes: 30, Price: 0}
	if err := m.BookingConfirmed(context.Background(), testConfig(), testBooking(), svc); err != nil {
		t.Fatalf("BookingConfirmed error: %v", err)
	}
	if body := messageBody(t, sent[0]); strings.Contains(body, "Price:") {
		t.Fatalf("free service must not list a price:\n%s", body)
	}
}

func TestBookingCancelled_Message(t *testing.T) {
	var sent []*gomail.Message
	m := captureMailer(&sent)

	if err := m.BookingCancelled(context.Background(), testConfig(), testBooking()); err != nil {
		t.Fatalf("BookingCancelled error: %v", err)
	}
	body := messageBody(t, sent[0])
	if !strings.Contains(body, "has been cancelled") {
		t.Fatalf("body missing cancellation notice:\n%s", body)
	}
}

func TestDeliver_NoBccWithoutBusinessEmail(t *testing.T) {
	var sent []*gomail.Message
	m := captureMailer(&sent)

	cfg := testConfig()
	cfg.BusinessEmail = ""
	if err := m.BookingCancelled(context.Background(), cfg, testBooking()); err != nil {
		t.Fatalf("BookingCancelled error: %v", err)
	}
	if got := sent[0].GetHeader("Bcc"); len(got) != 0 {
		t.Fatalf("Bcc = %v, want none", got)
	}
}

func TestDeliver_WrapsSendError(t *testing.T) {
	m := NewMailer(Config{From: "noreply@acme.example", RatePerSecond: 100}, nil)
	sendErr := errors.New("smtp down")
	m.send = func(msg *gomail.Message) error { return sendErr }

	err := m.BookingCancelled(context.Background(), testConfig(), testBooking())
	if !errors.Is(err, sendErr) {
		t.Fatalf("err = %v, want wrapped smtp error", err)
	}
}

func messageBody(t *testing.T, msg *gomail.Message) string {
	t.Helper()
	var sb strings.Builder
	if _, err := msg.WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	return sb.String()
}

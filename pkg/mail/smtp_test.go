package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Fatalf("expected host validation error, got %v", err)
	}

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.example.org"})
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("expected port validation error, got %v", err)
	}

	if _, err := NewSMTPMailer(SMTPSettings{Enabled: false}); err != nil {
		t.Fatalf("disabled mailer should not validate transport settings: %v", err)
	}
}

func TestDisabledMailerRejectsSend(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("NewSMTPMailer: %v", err)
	}

	err = mailer.Send(context.Background(), Message{
		To:       []Address{{Email: "jan@example.org"}},
		Subject:  "hi",
		TextBody: "hello",
	})
	if err != ErrDisabled {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

type fakeSMTPClient struct {
	from  string
	rcpts []string
	data  bytes.Buffer
	quit  bool
}

func (f *fakeSMTPClient) Mail(from string) error { f.from = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error   { f.rcpts = append(f.rcpts, to); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeSMTPClient) Quit() error                     { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                    { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error      { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error            { return nil }
func (f *fakeSMTPClient) Extension(string) (bool, string) { return false, "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestSendWritesMessageThroughClient(t *testing.T) {
	client := &fakeSMTPClient{}
	conn, other := net.Pipe()
	defer other.Close()

	mailer := &smtpMailer{
		cfg: SMTPSettings{
			Enabled:  true,
			Host:     "mail.example.org",
			Port:     587,
			From:     "reminders@example.org",
			FromName: "GatherPoint",
			Timeout:  time.Second,
		},
		dialFn: func(context.Context, SMTPSettings) (net.Conn, smtpClient, error) {
			return conn, client, nil
		},
		authFn: func(smtpClient, SMTPSettings) error { return nil },
	}

	msg := Message{
		To: []Address{
			{Email: "jan@example.org", Name: "Jan"},
			{Email: "JAN@example.org"}, // duplicate, case-insensitive
			{Email: "eva@example.org"},
		},
		Subject:  "Reminder: Monthly Planning",
		HTMLBody: "<p>See you soon</p>",
		TextBody: "See you soon",
	}

	if err := mailer.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if client.from != "reminders@example.org" {
		t.Fatalf("unexpected envelope sender %q", client.from)
	}
	if len(client.rcpts) != 2 {
		t.Fatalf("expected deduplicated recipients, got %v", client.rcpts)
	}
	if !client.quit {
		t.Fatal("expected Quit after a successful send")
	}

	data := client.data.String()
	for _, want := range []string{
		"From: GatherPoint <reminders@example.org>",
		"Subject: Reminder: Monthly Planning",
		"multipart/alternative",
		"See you soon",
		"<p>See you soon</p>",
	} {
		if !strings.Contains(data, want) {
			t.Fatalf("message data missing %q:\n%s", want, data)
		}
	}
}

func TestSendRejectsInvalidAddresses(t *testing.T) {
	mailer := &smtpMailer{
		cfg: SMTPSettings{Enabled: true, Host: "mail.example.org", Port: 587, From: "reminders@example.org"},
	}

	err := mailer.Send(context.Background(), Message{
		To:      []Address{{Email: "not-an-address"}},
		Subject: "hi",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid recipient") {
		t.Fatalf("expected recipient validation error, got %v", err)
	}

	err = mailer.Send(context.Background(), Message{Subject: "hi"})
	if err == nil || !strings.Contains(err.Error(), "recipient is required") {
		t.Fatalf("expected missing recipient error, got %v", err)
	}
}

func TestFormatMessagePlainTextOnly(t *testing.T) {
	out := formatMessage(
		Address{Email: "reminders@example.org"},
		[]Address{{Email: "jan@example.org"}},
		Message{Subject: "hi", TextBody: "hello"},
	)

	if strings.Contains(out, "multipart") {
		t.Fatalf("single-body message must not be multipart:\n%s", out)
	}
	if !strings.Contains(out, "Content-Type: text/plain; charset=UTF-8") {
		t.Fatalf("missing plain text content type:\n%s", out)
	}
}

func TestEscapeHeaderStripsNewlines(t *testing.T) {
	got := escapeHeader("Subject\r\nBcc: attacker@example.org")
	if strings.ContainsAny(got, "\r\n") {
		t.Fatalf("header still contains line breaks: %q", got)
	}
}

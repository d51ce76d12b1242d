package mailer

import (
	"bytes"
	"strings"
	"testing"

	"ski-forecast-mailer/config"
	"ski-forecast-mailer/models"
)

func TestBuildMessage(t *testing.T) {
	m, err := BuildMessage(models.Message{
		From:    "reports@example.com",
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "3/5/2024-11:00",
		HTML:    "<p>Light snow</p>",
	})
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}

	to := m.GetToString()
	if len(to) != 2 || !strings.Contains(to[0], "a@example.com") || !strings.Contains(to[1], "b@example.com") {
		t.Errorf("to: got %v", to)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "Subject: 3/5/2024-11:00") {
		t.Errorf("subject header missing in:\n%s", raw)
	}
	if !strings.Contains(raw, "text/html") {
		t.Errorf("html content type missing in:\n%s", raw)
	}
}

func TestBuildMessageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		msg  models.Message
	}{
		{"no recipients", models.Message{From: "a@example.com", Subject: "s"}},
		{"bad from", models.Message{From: "not an address", To: []string{"b@example.com"}}},
		{"bad to", models.Message{From: "a@example.com", To: []string{"@@"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildMessage(tt.msg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNewSMTPTransportNeedsHost(t *testing.T) {
	if _, err := NewSMTPTransport(&config.Config{}); err == nil {
		t.Error("expected an error without host or service preset")
	}

	tr, err := NewSMTPTransport(&config.Config{EmailService: "gmail", Email: "u@example.com", Password: "p"})
	if err != nil {
		t.Fatalf("NewSMTPTransport with preset: %v", err)
	}
	if tr.client == nil {
		t.Error("client not configured")
	}
}

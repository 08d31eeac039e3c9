package email

import (
	"errors"
	"testing"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
)

func TestNewMailWithoutWorkers(t *testing.T) {
	err := NewMail(t.Context(), "subject", "body", KeyEmailBodyPlain, PurposeJobFailure, "ops@example.com")
	if !errors.Is(err, potd_errors.ErrEmailServiceStopped) {
		t.Errorf("expected ErrEmailServiceStopped, got %v", err)
	}
}

func TestMailAlertWithoutRecipients(t *testing.T) {
	e := &EmailService{}
	if err := e.MailAlert(t.Context(), EmailRequest{Subject: "shortfall"}); err != nil {
		t.Errorf("alert without recipients should only be logged, got %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	m := buildMessage(emailJob{
		from: "bot@example.com",
		EmailRequest: EmailRequest{
			To:      []string{"a@example.com", "b@example.com"},
			Subject: "generate failed",
			Body:    "band 1400 exhausted",
		},
	})

	if got := m.GetHeader(KeyEmailFrom); len(got) != 1 || got[0] != "bot@example.com" {
		t.Errorf("unexpected from header %v", got)
	}
	if got := m.GetHeader(KeyEmailTo); len(got) != 2 {
		t.Errorf("unexpected to header %v", got)
	}
	if got := m.GetHeader(KeyEmailSubject); len(got) != 1 || got[0] != "generate failed" {
		t.Errorf("unexpected subject header %v", got)
	}
}

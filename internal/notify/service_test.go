package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/crisis-companion/internal/contacts"
	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// Mock implementations

type mockEmailSender struct {
	sent   []EmailMessage
	failOn string // fail if To matches this
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockSMSSender struct {
	sent   []struct{ to, body string }
	failOn string
}

func (m *mockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if m.failOn != "" && to == m.failOn {
		return errors.New("mock SMS error")
	}
	m.sent = append(m.sent, struct{ to, body string }{to, body})
	return nil
}

type mockDispatcher struct {
	jobs []DispatchJob
	err  error
}

func (m *mockDispatcher) Dispatch(ctx context.Context, job DispatchJob) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

type failingStore struct{ contacts.Store }

func (failingStore) ListByUser(context.Context, string) ([]contacts.Contact, error) {
	return nil, errors.New("db down")
}

func seededStore(t *testing.T) *contacts.MemoryStore {
	t.Helper()
	store := contacts.NewMemoryStore()
	for _, c := range []*contacts.Contact{
		{UserID: "u1", Name: "Sam", Phone: "+15550001111", Email: "sam@example.com"},
		{UserID: "u1", Name: "Lee", Email: "lee@example.com"},
		{UserID: "u1", Name: "Kai", Phone: "+15550002222", Email: "kai@example.com", Channels: []contacts.Channel{contacts.ChannelSMS}},
	} {
		if err := store.Upsert(context.Background(), c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store
}

// Tests

func TestService_NotifyCrisisTrigger_EmailsOptedInContacts(t *testing.T) {
	emailSender := &mockEmailSender{}
	smsSender := &mockSMSSender{}
	svc := NewService(emailSender, smsSender, seededStore(t), nil, logging.Discard())

	snapshot := []emotion.Reading{
		{Dominant: emotion.Sad, Confidence: 0.9},
		{Dominant: emotion.Sad, Confidence: 0.8},
		{Dominant: emotion.Fearful, Confidence: 0.7},
	}
	err := svc.NotifyCrisisTrigger(context.Background(), "u1", emotion.LevelHigh, snapshot)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(emailSender.sent) != 2 {
		t.Fatalf("expected 2 emails sent, got %d", len(emailSender.sent))
	}
	if len(smsSender.sent) != 0 {
		t.Errorf("expected no SMS on crisis trigger, got %d", len(smsSender.sent))
	}
	email := emailSender.sent[0]
	if !strings.Contains(email.Subject, "HIGH") {
		t.Errorf("subject should carry the level: %q", email.Subject)
	}
	if !strings.Contains(email.Body, "fearful x1, sad x2") {
		t.Errorf("body should summarize readings: %q", email.Body)
	}
	if email.Kind != escalation.KindCrisisTrigger || email.Urgent() {
		t.Errorf("unexpected kind %q", email.Kind)
	}
	if !strings.Contains(email.HTML, "988") {
		t.Errorf("html should carry crisis resources")
	}
}

func TestService_NotifyEscalated_FansOutAndDispatches(t *testing.T) {
	emailSender := &mockEmailSender{}
	smsSender := &mockSMSSender{}
	dispatcher := &mockDispatcher{}
	svc := NewService(emailSender, smsSender, seededStore(t), dispatcher, logging.Discard())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC) }

	if err := svc.NotifyEscalated(context.Background(), "u1", emotion.LevelSevere); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(smsSender.sent) != 2 {
		t.Errorf("expected 2 SMS sent, got %d", len(smsSender.sent))
	}
	if len(emailSender.sent) != 2 {
		t.Errorf("expected 2 emails sent, got %d", len(emailSender.sent))
	}
	if len(dispatcher.jobs) != 1 {
		t.Fatalf("expected 1 dispatch job, got %d", len(dispatcher.jobs))
	}
	job := dispatcher.jobs[0]
	if job.UserID != "u1" || job.Contacts != 3 || job.CrisisLevel != "SEVERE" {
		t.Errorf("unexpected job: %+v", job)
	}
	email := emailSender.sent[0]
	if !email.Urgent() || !strings.HasPrefix(email.Subject, "URGENT: ") {
		t.Errorf("escalation email should be urgent: %q", email.Subject)
	}
}

func TestService_NotifyEscalated_AggregatesFailures(t *testing.T) {
	emailSender := &mockEmailSender{failOn: "lee@example.com"}
	smsSender := &mockSMSSender{failOn: "+15550001111"}
	svc := NewService(emailSender, smsSender, seededStore(t), &mockDispatcher{}, logging.Discard())

	err := svc.NotifyEscalated(context.Background(), "u1", emotion.LevelSevere)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got: %v", err)
	}
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DeliveryError, got %T", err)
	}
	if len(derr.Failures) != 2 || derr.Attempts != 5 {
		t.Errorf("expected 2 of 5 failed, got %d of %d", len(derr.Failures), derr.Attempts)
	}
	if len(smsSender.sent) != 1 || len(emailSender.sent) != 1 {
		t.Errorf("remaining contacts should still be reached")
	}
}

func TestService_NotifyEscalated_DispatchesWhenContactsUnavailable(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := NewService(&mockEmailSender{}, &mockSMSSender{}, failingStore{}, dispatcher, logging.Discard())

	err := svc.NotifyEscalated(context.Background(), "u1", emotion.LevelSevere)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got: %v", err)
	}
	if len(dispatcher.jobs) != 1 {
		t.Errorf("dispatch must still be enqueued, got %d jobs", len(dispatcher.jobs))
	}
}

func TestService_NotifyEscalated_NoRecipients(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, logging.Discard())
	if err := svc.NotifyEscalated(context.Background(), "u1", emotion.LevelSevere); !errors.Is(err, ErrDeliveryFailed) {
		t.Errorf("expected ErrDeliveryFailed when nobody can be reached, got: %v", err)
	}
}

func TestService_NotifySafetyConfirmed_TextsOnly(t *testing.T) {
	emailSender := &mockEmailSender{}
	smsSender := &mockSMSSender{}
	svc := NewService(emailSender, smsSender, seededStore(t), nil, logging.Discard())

	if err := svc.NotifySafetyConfirmed(context.Background(), "u1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(smsSender.sent) != 2 {
		t.Errorf("expected 2 SMS sent, got %d", len(smsSender.sent))
	}
	if len(emailSender.sent) != 0 {
		t.Errorf("expected no email, got %d", len(emailSender.sent))
	}
	if !strings.Contains(smsSender.sent[0].body, "confirmed they are safe") {
		t.Errorf("unexpected body: %q", smsSender.sent[0].body)
	}
}

func TestService_ContactStoreError(t *testing.T) {
	svc := NewService(&mockEmailSender{}, nil, failingStore{}, nil, logging.Discard())
	err := svc.NotifyCrisisTrigger(context.Background(), "u1", emotion.LevelSevere, nil)
	if err == nil || !strings.Contains(err.Error(), "list contacts") {
		t.Errorf("expected list contacts error, got: %v", err)
	}
}

func TestService_NilStoreIsNoop(t *testing.T) {
	svc := NewService(&mockEmailSender{}, &mockSMSSender{}, nil, nil, nil)
	if err := svc.NotifyCrisisTrigger(context.Background(), "u1", emotion.LevelHigh, nil); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if err := svc.NotifySafetyConfirmed(context.Background(), "u1"); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/wolfman30/crisis-companion/internal/escalation"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})
	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})
	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{FromEmail: "alerts@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "sam@example.com", Subject: "Hi", Body: "plain"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.input.FromEmailAddress); got != "Crisis Companion <alerts@example.com>" {
		t.Errorf("unexpected from: %q", got)
	}
	body := client.input.Content.Simple.Body
	if body.Text == nil || aws.ToString(body.Text.Data) != "plain" {
		t.Errorf("expected text body")
	}
	if body.Html != nil {
		t.Errorf("expected no html body")
	}
}

func TestSESSender_SendError(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{FromEmail: "a@b.c"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "x@y.z", Subject: "s", Body: "b"}); err == nil {
		t.Error("expected error")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}

func TestNewAlertEmail_Escalated(t *testing.T) {
	msg := NewAlertEmail(escalation.KindEscalated, "u1 may need help now", "First line.\n\nSecond <line>.")

	if !msg.Urgent() {
		t.Fatal("escalation alert should be urgent")
	}
	if msg.Subject != "URGENT: u1 may need help now" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Crisis resources:") || !strings.Contains(msg.Body, "Call or text 988") {
		t.Errorf("text body should list hotlines: %q", msg.Body)
	}
	if !strings.Contains(msg.HTML, "<p>Second &lt;line&gt;.</p>") {
		t.Errorf("html should escape and split paragraphs: %q", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "Urgent: please act now") {
		t.Errorf("html should carry the urgent banner")
	}
}

func TestNewAlertEmail_CrisisTriggerIsNotUrgent(t *testing.T) {
	msg := NewAlertEmail(escalation.KindCrisisTrigger, "Check in on u1", "body")
	if msg.Urgent() || strings.HasPrefix(msg.Subject, "URGENT") {
		t.Errorf("crisis trigger should not be urgent: %q", msg.Subject)
	}
	if strings.Contains(msg.HTML, "Urgent: please act now") {
		t.Errorf("unexpected urgent banner")
	}
}

func TestSendGridSender_BuildTagsUrgentAlerts(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "alerts@example.com"}, nil)

	urgent := sender.build(NewAlertEmail(escalation.KindEscalated, "help", "body"))
	if urgent.Headers["X-Priority"] != "1" {
		t.Errorf("expected priority header, got %v", urgent.Headers)
	}
	if len(urgent.Categories) != 2 || urgent.Categories[1] != escalation.KindEscalated {
		t.Errorf("unexpected categories %v", urgent.Categories)
	}

	calm := sender.build(NewAlertEmail(escalation.KindSafetyConfirmed, "update", "body"))
	if _, ok := calm.Headers["X-Priority"]; ok {
		t.Errorf("non-urgent alert should not set priority")
	}
}

func TestSESSender_SendTagsKind(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{FromEmail: "alerts@example.com"}, nil)

	if err := sender.Send(context.Background(), NewAlertEmail(escalation.KindEscalated, "help", "body")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.input.EmailTags) != 1 || aws.ToString(client.input.EmailTags[0].Value) != escalation.KindEscalated {
		t.Errorf("expected alert_kind tag, got %+v", client.input.EmailTags)
	}
	if len(client.input.Content.Simple.Headers) != 2 {
		t.Errorf("expected priority headers on urgent alert")
	}
	if client.input.Content.Simple.Body.Html == nil {
		t.Errorf("expected html body")
	}
}

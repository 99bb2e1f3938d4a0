package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/intent"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// DefaultFromName is the sender name used when none is configured.
const DefaultFromName = "Crisis Companion"

// EmailSender delivers one alert email. SendGrid, SES and the stub implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an alert to one emergency contact. Kind is one of the
// escalation notification kinds and decides subject prefix and priority.
type EmailMessage struct {
	Kind    string
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// Urgent reports whether the alert is for an expired countdown or panic.
func (m EmailMessage) Urgent() bool {
	return m.Kind == escalation.KindEscalated
}

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif;max-width:560px">
{{if .Urgent}}<p style="background:#b00020;color:#fff;padding:8px 12px;font-weight:bold">Urgent: please act now</p>{{end}}
<h2>{{.Heading}}</h2>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}<hr>
<p style="font-size:13px">If someone is in immediate danger, call emergency services.</p>
<ul style="font-size:13px">
{{range .Resources}}<li><strong>{{.Name}}</strong>: {{.Contact}}</li>
{{end}}</ul>
</body></html>`))

type alertView struct {
	Urgent     bool
	Heading    string
	Paragraphs []string
	Resources  []intent.Resource
}

// NewAlertEmail builds the text and HTML bodies for a notification kind.
// Both carry the crisis hotline list.
func NewAlertEmail(kind, subject, body string) EmailMessage {
	msg := EmailMessage{Kind: kind, Subject: subject}
	if msg.Urgent() && !strings.HasPrefix(subject, "URGENT") {
		msg.Subject = "URGENT: " + subject
	}

	resources := intent.CrisisResources()
	var text strings.Builder
	text.WriteString(strings.TrimSpace(body))
	text.WriteString("\n\nCrisis resources:\n")
	for _, r := range resources {
		fmt.Fprintf(&text, "- %s: %s\n", r.Name, r.Contact)
	}
	msg.Body = text.String()

	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	var html bytes.Buffer
	if err := alertTemplate.Execute(&html, alertView{
		Urgent:     msg.Urgent(),
		Heading:    subject,
		Paragraphs: paragraphs,
		Resources:  resources,
	}); err == nil {
		msg.HTML = html.String()
	}
	return msg
}

// SendGridSender sends alerts via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	response, err := s.client.SendWithContext(ctx, s.build(msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To, "kind", msg.Kind)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "to", msg.To, "kind", msg.Kind)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}
	s.logger.Info("alert email sent via sendgrid", "to", msg.To, "kind", msg.Kind, "status", response.StatusCode)
	return nil
}

func (s *SendGridSender) build(msg EmailMessage) *mail.SGMailV3 {
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Body, html)
	if msg.Kind != "" {
		message.AddCategories("crisis-alert", msg.Kind)
	}
	if msg.Urgent() {
		message.SetHeader("X-Priority", "1")
		message.SetHeader("Importance", "high")
	}
	return message
}

var _ EmailSender = (*SendGridSender)(nil)

// StubEmailSender logs instead of sending. Used when EMAIL_PROVIDER=stub.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send alert", "to", msg.To, "kind", msg.Kind, "urgent", msg.Urgent(), "subject", msg.Subject)
	return nil
}

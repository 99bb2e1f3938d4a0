package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/crisis-companion/internal/contacts"
	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

var serviceTracer = otel.Tracer("crisis/notify")

// Service fans escalation events out to a user's emergency contacts and
// the responder dispatch queue.
type Service struct {
	email      EmailSender
	sms        SMSSender
	contacts   contacts.Store
	dispatcher Dispatcher
	logger     *logging.Logger
	now        func() time.Time
}

// NewService creates a notification service. Any collaborator may be nil.
func NewService(email EmailSender, sms SMSSender, store contacts.Store, dispatcher Dispatcher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		sms:        sms,
		contacts:   store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// NotifyCrisisTrigger emails contacts that a countdown has started.
func (s *Service) NotifyCrisisTrigger(ctx context.Context, userID string, level emotion.CrisisLevel, snapshot []emotion.Reading) error {
	ctx, span := serviceTracer.Start(ctx, "notify.crisis_trigger")
	defer span.End()
	span.SetAttributes(attribute.String("crisis.user_id", userID), attribute.String("crisis.level", level.String()))

	list, err := s.listContacts(ctx, userID)
	if err != nil {
		return err
	}

	d := s.newDelivery(escalation.KindCrisisTrigger)
	msg := NewAlertEmail(escalation.KindCrisisTrigger,
		fmt.Sprintf("Check in on %s: crisis level %s", userID, level),
		fmt.Sprintf(`Crisis Companion noticed sustained distress for %s (level %s).

%s

They have been asked to confirm they are safe. If they do not, you will be
alerted again. Please reach out to them if you can.`, userID, level, summarize(snapshot)))
	s.emailAll(ctx, d, list, msg)
	return d.result(span)
}

// NotifyEscalated alerts every contact on every channel and enqueues a
// responder dispatch job carrying the crisis level.
func (s *Service) NotifyEscalated(ctx context.Context, userID string, level emotion.CrisisLevel) error {
	ctx, span := serviceTracer.Start(ctx, "notify.escalated")
	defer span.End()
	span.SetAttributes(attribute.String("crisis.user_id", userID), attribute.String("crisis.level", level.String()))

	d := s.newDelivery(escalation.KindEscalated)
	list, err := s.listContacts(ctx, userID)
	if err != nil {
		// Dispatch still goes out without contacts.
		d.fail(err)
	}

	body := fmt.Sprintf("URGENT: %s did not confirm they are safe on Crisis Companion. Please contact them now. If you believe they are in danger call 911.", userID)
	s.smsAll(ctx, d, list, body)
	s.emailAll(ctx, d, list, NewAlertEmail(escalation.KindEscalated,
		fmt.Sprintf("%s may need help now", userID), body))

	if s.dispatcher != nil {
		d.attempts++
		job := DispatchJob{
			UserID:      userID,
			CrisisLevel: level.String(),
			Contacts:    len(list),
			RequestedAt: s.now().UTC(),
		}
		if err := s.dispatcher.Dispatch(ctx, job); err != nil {
			s.logger.Error("notify: dispatch enqueue failed", "error", err, "user_id", userID)
			d.fail(err)
		}
	}
	if d.attempts == 0 {
		s.logger.Error("notify: escalation had no recipients", "user_id", userID)
		d.fail(fmt.Errorf("no emergency contacts or dispatcher for user %s", userID))
	}
	return d.result(span)
}

// NotifySafetyConfirmed texts contacts that the user confirmed they are safe.
func (s *Service) NotifySafetyConfirmed(ctx context.Context, userID string) error {
	ctx, span := serviceTracer.Start(ctx, "notify.safety_confirmed")
	defer span.End()
	span.SetAttributes(attribute.String("crisis.user_id", userID))

	list, err := s.listContacts(ctx, userID)
	if err != nil {
		return err
	}
	d := s.newDelivery(escalation.KindSafetyConfirmed)
	s.smsAll(ctx, d, list, fmt.Sprintf("Update: %s has confirmed they are safe. Thank you for being there.", userID))
	return d.result(span)
}

func (s *Service) listContacts(ctx context.Context, userID string) ([]contacts.Contact, error) {
	if s.contacts == nil {
		return nil, nil
	}
	list, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("notify: failed to load contacts", "error", err, "user_id", userID)
		return nil, fmt.Errorf("notify: list contacts: %w", err)
	}
	return list, nil
}

func (s *Service) emailAll(ctx context.Context, d *delivery, list []contacts.Contact, msg EmailMessage) {
	if s.email == nil {
		return
	}
	for _, c := range list {
		if !c.Wants(contacts.ChannelEmail) {
			continue
		}
		m := msg
		m.To, m.ToName = c.Email, c.Name
		d.attempts++
		if err := s.email.Send(ctx, m); err != nil {
			s.logger.Error("notify: failed to send email", "error", err, "contact_id", c.ID, "kind", d.kind)
			d.fail(err)
		}
	}
}

func (s *Service) smsAll(ctx context.Context, d *delivery, list []contacts.Contact, body string) {
	if s.sms == nil {
		return
	}
	for _, c := range list {
		if !c.Wants(contacts.ChannelSMS) {
			continue
		}
		d.attempts++
		if err := s.sms.SendSMS(ctx, c.Phone, body); err != nil {
			s.logger.Error("notify: failed to send SMS", "error", err, "contact_id", c.ID, "kind", d.kind)
			d.fail(err)
		}
	}
}

type delivery struct {
	kind     string
	attempts int
	failures []error
	logger   *logging.Logger
}

func (s *Service) newDelivery(kind string) *delivery {
	return &delivery{kind: kind, logger: s.logger}
}

func (d *delivery) fail(err error) {
	d.failures = append(d.failures, err)
}

func (d *delivery) result(span trace.Span) error {
	if len(d.failures) == 0 {
		d.logger.Info("notify: delivered", "kind", d.kind, "deliveries", d.attempts)
		return nil
	}
	err := &DeliveryError{Kind: d.kind, Attempts: d.attempts, Failures: d.failures}
	span.RecordError(err)
	return err
}

// summarize renders the dominant emotions of the triggering readings.
func summarize(snapshot []emotion.Reading) string {
	if len(snapshot) == 0 {
		return "No recent readings were recorded."
	}
	counts := make(map[emotion.Label]int)
	for _, r := range snapshot {
		counts[r.Dominant]++
	}
	labels := make([]string, 0, len(counts))
	for l, n := range counts {
		labels = append(labels, fmt.Sprintf("%s x%d", l, n))
	}
	sort.Strings(labels)
	return fmt.Sprintf("Recent readings (%d): %s.", len(snapshot), strings.Join(labels, ", "))
}

var _ escalation.Notifier = (*Service)(nil)

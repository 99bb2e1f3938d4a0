package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/crisis-companion/internal/config"
	"github.com/wolfman30/crisis-companion/internal/contacts"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/notify"
	"github.com/wolfman30/crisis-companion/internal/observability/metrics"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// BuildEmailSender picks the email provider named by EMAIL_PROVIDER. A
// provider missing its credentials falls back to the stub sender.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger); sender != nil {
			logger.Info("email provider configured", "provider", "sendgrid")
			return sender, nil
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY empty; using stub email sender")
	case "ses":
		if awsCfg != nil && strings.TrimSpace(cfg.SESFromEmail) != "" {
			sender := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.SESFromEmail,
				FromName:  cfg.EmailFromName,
			}, logger)
			logger.Info("email provider configured", "provider", "ses")
			return sender, nil
		}
		logger.Warn("ses selected but AWS config or SES_FROM_EMAIL missing; using stub email sender")
	case "", "stub":
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger), nil
}

// BuildSMSSender returns Twilio when credentials are present, otherwise the stub.
func BuildSMSSender(cfg *appconfig.Config, logger *logging.Logger) notify.SMSSender {
	if cfg != nil {
		if sender := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger); sender != nil {
			return sender
		}
	}
	return notify.NewStubSMSSender(logger)
}

// BuildDispatcher returns the SQS dispatcher, or nil without a queue URL.
func BuildDispatcher(cfg *appconfig.Config, awsCfg *aws.Config) notify.Dispatcher {
	if cfg == nil || awsCfg == nil || strings.TrimSpace(cfg.EmergencyDispatchQueueURL) == "" {
		return nil
	}
	return notify.NewSQSDispatcher(sqs.NewFromConfig(*awsCfg), cfg.EmergencyDispatchQueueURL)
}

// NotifierDeps are the collaborators of the escalation notifier.
type NotifierDeps struct {
	Email      notify.EmailSender
	SMS        notify.SMSSender
	Contacts   contacts.Store
	Dispatcher notify.Dispatcher
	Metrics    *metrics.CrisisMetrics
}

// BuildNotifier wraps the contact fan-out service so deliveries run off the
// session lock and report into the notification counters.
func BuildNotifier(cfg *appconfig.Config, deps NotifierDeps, logger *logging.Logger) *escalation.AsyncNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	svc := notify.NewService(deps.Email, deps.SMS, deps.Contacts, deps.Dispatcher, logger)
	timeout := time.Duration(0)
	if cfg != nil {
		timeout = cfg.NotifyTimeout
	}
	return escalation.NewAsyncNotifier(svc, timeout, deps.Metrics.ObserveNotification, logger)
}

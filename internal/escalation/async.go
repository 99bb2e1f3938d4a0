package escalation

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// Notification kinds reported to DeliveryObserver.
const (
	KindCrisisTrigger   = "crisis_trigger"
	KindEscalated       = "escalated"
	KindSafetyConfirmed = "safety_confirmed"
)

// DeliveryObserver records the outcome of one notification.
type DeliveryObserver func(kind string, err error)

// AsyncNotifier runs every notification on its own goroutine with a timeout
// so state transitions never wait on the network. Failures are logged and
// reported to the observer; callers always see nil.
type AsyncNotifier struct {
	next    Notifier
	timeout time.Duration
	observe DeliveryObserver
	logger  *logging.Logger
	wg      sync.WaitGroup
}

// NewAsyncNotifier wraps next. A non-positive timeout defaults to 10s.
func NewAsyncNotifier(next Notifier, timeout time.Duration, observe DeliveryObserver, logger *logging.Logger) *AsyncNotifier {
	if next == nil {
		next = NopNotifier{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AsyncNotifier{next: next, timeout: timeout, observe: observe, logger: logger}
}

var _ Notifier = (*AsyncNotifier)(nil)

func (a *AsyncNotifier) NotifyCrisisTrigger(ctx context.Context, userID string, level emotion.CrisisLevel, snapshot []emotion.Reading) error {
	snap := make([]emotion.Reading, len(snapshot))
	for i, r := range snapshot {
		snap[i] = r.Clone()
	}
	a.dispatch(ctx, KindCrisisTrigger, userID, func(ctx context.Context) error {
		return a.next.NotifyCrisisTrigger(ctx, userID, level, snap)
	})
	return nil
}

func (a *AsyncNotifier) NotifyEscalated(ctx context.Context, userID string, level emotion.CrisisLevel) error {
	a.dispatch(ctx, KindEscalated, userID, func(ctx context.Context) error {
		return a.next.NotifyEscalated(ctx, userID, level)
	})
	return nil
}

func (a *AsyncNotifier) NotifySafetyConfirmed(ctx context.Context, userID string) error {
	a.dispatch(ctx, KindSafetyConfirmed, userID, func(ctx context.Context) error {
		return a.next.NotifySafetyConfirmed(ctx, userID)
	})
	return nil
}

// Wait blocks until every in-flight notification has finished.
func (a *AsyncNotifier) Wait() {
	a.wg.Wait()
}

func (a *AsyncNotifier) dispatch(ctx context.Context, kind, userID string, send func(context.Context) error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Detach from the caller: request contexts end before delivery does.
	base := context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(base, a.timeout)
		defer cancel()

		err := send(sendCtx)
		if err != nil {
			a.logger.Warn("notification delivery failed", "kind", kind, "user_id", userID, "error", err)
		} else {
			a.logger.Info("notification delivered", "kind", kind, "user_id", userID)
		}
		if a.observe != nil {
			a.observe(kind, err)
		}
	}()
}

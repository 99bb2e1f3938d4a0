package incidents

import (
	"context"
	"time"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/internal/escalation"
	"github.com/wolfman30/crisis-companion/internal/intent"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

// Recorder listens to session events and writes escalation incidents on a
// background worker.
type Recorder struct {
	store  Store
	queue  chan Incident
	now    func() time.Time
	logger *logging.Logger
	done   chan struct{}
}

func NewRecorder(store Store, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		store:  store,
		queue:  make(chan Incident, defaultQueueSize),
		now:    time.Now,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (r *Recorder) CrisisLevelChanged(string, emotion.CrisisLevel) {}

func (r *Recorder) Reply(string, intent.Reply) {}

// EscalationStateChanged enqueues an incident; when the queue is full the
// incident is dropped and logged.
func (r *Recorder) EscalationStateChanged(_ string, st escalation.Status) {
	inc, ok := FromStatus(st, r.now())
	if !ok {
		return
	}
	select {
	case r.queue <- inc:
	default:
		r.logger.Warn("incident queue full, dropping", "session_id", inc.SessionID, "kind", string(inc.Kind))
	}
}

// Run writes queued incidents until ctx is cancelled, then flushes what is
// left and returns.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			r.flush(context.WithoutCancel(ctx))
			return
		case inc := <-r.queue:
			r.write(ctx, inc)
		}
	}
}

// Done is closed once Run has returned.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func (r *Recorder) flush(ctx context.Context) {
	for {
		select {
		case inc := <-r.queue:
			r.write(ctx, inc)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, inc Incident) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()
	if err := r.store.Record(ctx, inc); err != nil {
		r.logger.Error("incident write failed", "error", err, "session_id", inc.SessionID, "kind", string(inc.Kind))
		return
	}
	r.logger.Debug("incident recorded", "session_id", inc.SessionID, "kind", string(inc.Kind))
}

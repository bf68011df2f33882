package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobboard/review-service/internal/metrics"
	"jobboard/review-service/internal/notify"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the status workflow. It has no dependency on a
// transport: the HTTP handler, the gRPC server and the scheduler all call it.
type Service struct {
	store    Store
	notifier notify.Notifier
	policy   Policy
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy replaces the default Permissive policy.
func WithPolicy(p Policy) Option { return func(s *Service) { s.policy = p } }

// WithClock sets the time source used for transition timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService returns a configured Service. A nil notifier discards
// notifications.
func NewService(store Store, notifier notify.Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Discard
	}
	s := &Service{
		store:    store,
		notifier: notifier,
		policy:   Permissive,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// ListApplications returns the applications matching f.
func (s *Service) ListApplications(ctx context.Context, f Filter) ([]Application, error) {
	apps, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listApplications: %w", err)
	}
	return apps, nil
}

// GetApplication returns a single application by id.
func (s *Service) GetApplication(ctx context.Context, id string) (Application, error) {
	return s.store.Get(ctx, id)
}

// History returns the effective status changes of an application, oldest
// first.
func (s *Service) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.History(ctx, id)
}

// Stats aggregates the applications matching f. Nothing is cached: every
// call lists the store and scans the result.
func (s *Service) Stats(ctx context.Context, f Filter) (Stats, error) {
	apps, err := s.ListApplications(ctx, f)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(apps), nil
}

// Recent returns the n most recently submitted applications matching f.
func (s *Service) Recent(ctx context.Context, f Filter, n int) ([]Application, error) {
	apps, err := s.ListApplications(ctx, f)
	if err != nil {
		return nil, err
	}
	return Recent(apps, n), nil
}

// ─── Transition ──────────────────────────────────────────────────────────────

// Transition overwrites the status of application id with to. to may use
// the legacy lowercase spelling; it is normalised before anything is read.
// Returns a *ValidationError if to is not a known status or the policy
// rejects the change, and ErrNotFound if id does not exist. On any failure
// the stored record is left untouched and an error notification is sent.
// Writing the current status again is a no-op that still reports success.
func (s *Service) Transition(ctx context.Context, id string, to Status) (Application, error) {
	to, err := NormalizeStatus(string(to))
	if err != nil {
		verr := &ValidationError{Msg: err.Error()}
		s.fail(ctx, id, "", verr)
		return Application{}, verr
	}

	app, from, err := s.store.UpdateStatus(ctx, id, to, s.now().UTC(), s.policy)
	if err != nil {
		s.fail(ctx, id, to, err)
		return Application{}, err
	}
	metrics.ObserveTransition(string(to), metrics.OutcomeOK)

	if from == to {
		s.notify(ctx, notify.New(notify.KindSuccess, id,
			fmt.Sprintf("Application already %s", to), nil, s.now().UTC()))
		return app, nil
	}

	ev := &notify.Event{
		Type:          notify.EventStatusChanged,
		ApplicationID: id,
		From:          string(from),
		To:            string(to),
		At:            app.UpdatedAt,
	}
	s.notify(ctx, notify.New(notify.KindSuccess, id,
		fmt.Sprintf("Application status updated to %s", to), ev, app.UpdatedAt))
	s.logger.Info("application status changed", "applicationId", id, "from", from, "to", to)
	return app, nil
}

// fail records a failed transition and surfaces it to the user. to is empty
// when the requested status could not be parsed.
func (s *Service) fail(ctx context.Context, id string, to Status, err error) {
	outcome := metrics.OutcomeError
	msg := "Failed to update application status"
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
		msg = "Application not found"
	case errors.As(err, &ve):
		outcome = metrics.OutcomeInvalid
		msg = ve.Msg
	default:
		s.logger.Error("transition failed", "applicationId", id, "to", to, "err", err)
	}
	label := string(to)
	if to == "" {
		label = metrics.LabelUnknown
	}
	metrics.ObserveTransition(label, outcome)
	s.notify(ctx, notify.New(notify.KindError, id, msg, nil, s.now().UTC()))
}

// notify delivers n. Delivery failures are logged, never returned.
func (s *Service) notify(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		metrics.NotifyFailed()
		s.logger.Warn("notification failed", "applicationId", n.ApplicationID, "err", err)
	}
}

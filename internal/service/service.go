// Package service implements the esplit Connect services on top of a
// storage.Store and the calculator.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/esplit/internal/calculator"
	"github.com/mmynk/esplit/internal/events"
	"github.com/mmynk/esplit/internal/metrics"
	"github.com/mmynk/esplit/internal/middleware"
	"github.com/mmynk/esplit/internal/models"
	"github.com/mmynk/esplit/internal/storage"
)

// Option configures a service.
type Option func(*deps)

// WithPublisher sends every recorded activity to p.
func WithPublisher(p events.Publisher) Option {
	return func(d *deps) { d.publisher = p }
}

// WithMetrics records ledger metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithClock overrides time.Now, for default dates and analytics windows.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// deps is what both services share.
type deps struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func newDeps(store storage.Store, opts []Option) deps {
	d := deps{store: store, publisher: events.NopPublisher{}, now: time.Now}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// today is the default date for new transactions.
func (d *deps) today() string {
	return d.now().Format("2006-01-02")
}

// loadLedger fetches a group's roster and transactions concurrently.
func (d *deps) loadLedger(ctx context.Context, groupID string) (*models.Group, []models.Transaction, error) {
	var group *models.Group
	var txns []models.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		group, err = d.store.GetGroup(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = d.store.ListTransactions(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return group, txns, nil
}

// recordActivity appends to the activity log and publishes the entry. The
// change it describes is already stored, so failures here are logged only.
func (d *deps) recordActivity(ctx context.Context, activity *models.Activity) {
	activity.ActorName = middleware.GetActor(ctx)
	if activity.Timestamp == 0 {
		activity.Timestamp = d.now().Unix()
	}

	if err := d.store.CreateActivity(ctx, activity); err != nil {
		slog.Error("Failed to record activity",
			"group_id", activity.GroupID,
			"target_id", activity.TargetID,
			"error", err,
		)
		return
	}

	if err := d.publisher.Publish(ctx, *activity); err != nil {
		slog.Warn("Failed to publish activity",
			"activity_id", activity.ID,
			"group_id", activity.GroupID,
			"error", err,
		)
	}
}

// toConnectError maps store and calculator errors to Connect codes. Errors
// that already carry a code pass through.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrNoParticipants),
		errors.Is(err, calculator.ErrInvalidAmount),
		errors.Is(err, calculator.ErrNegativeShare),
		errors.Is(err, calculator.ErrSharesMismatch),
		errors.Is(err, calculator.ErrUnknownSplitType):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

func failedPrecondition(format string, args ...any) error {
	return connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf(format, args...))
}

// rosterIndex maps participant ids to roster entries.
func rosterIndex(participants []models.Participant) map[models.ParticipantID]models.Participant {
	roster := make(map[models.ParticipantID]models.Participant, len(participants))
	for _, p := range participants {
		roster[p.ID] = p
	}
	return roster
}

// lookup returns the roster entry for id, or the Unknown placeholder.
func lookup(roster map[models.ParticipantID]models.Participant, id models.ParticipantID) models.Participant {
	if p, ok := roster[id]; ok {
		return p
	}
	return models.UnknownParticipant(id)
}

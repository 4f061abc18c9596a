package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/trypzy/backend/internal/storage/models"
)

// MaxAttempts is the number of failed deliveries after which an event is
// parked.
const MaxAttempts = 5

const batchSize = 50

// EventStore is the outbox the dispatcher drains.
type EventStore interface {
	ListPending(ctx context.Context, maxAttempts, limit int) ([]models.ScheduleEvent, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, deliveryErr error) error
}

// Dispatcher periodically delivers pending outbox events to every sink.
type Dispatcher struct {
	cron     *cron.Cron
	events   EventStore
	sinks    []Sink
	logger   *zap.Logger
	interval time.Duration

	// observe, if set, is called with each delivery outcome
	observe func(ok bool)

	// Serializes runs so a slow cycle is never overlapped
	running sync.Mutex
}

// NewDispatcher creates a new outbox dispatcher.
func NewDispatcher(events EventStore, sinks []Sink, interval time.Duration, logger *zap.Logger, observe func(ok bool)) *Dispatcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cron:     cron.New(),
		events:   events,
		sinks:    sinks,
		logger:   logger,
		interval: interval,
		observe:  observe,
	}
}

// Start schedules the delivery job.
func (d *Dispatcher) Start() error {
	cronSpec := "@every " + d.interval.String()
	if _, err := d.cron.AddFunc(cronSpec, func() {
		if _, err := d.DispatchPending(context.Background()); err != nil {
			d.logger.Error("outbox dispatch failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("scheduling outbox dispatch: %w", err)
	}
	d.cron.Start()
	d.logger.Info("notification dispatcher started", zap.Duration("interval", d.interval), zap.Int("sinks", len(d.sinks)))
	return nil
}

// Stop gracefully shuts down the dispatcher, waiting for a running cycle.
func (d *Dispatcher) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.logger.Info("notification dispatcher stopped")
}

// DispatchPending delivers one batch of pending events and returns how many
// were delivered. A cycle already in progress makes this a no-op.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	if !d.running.TryLock() {
		return 0, nil
	}
	defer d.running.Unlock()

	pending, err := d.events.ListPending(ctx, MaxAttempts, batchSize)
	if err != nil {
		return 0, fmt.Errorf("listing pending events: %w", err)
	}

	delivered := 0
	for _, ev := range pending {
		if err := d.deliver(ctx, ev); err != nil {
			d.record(false)
			level := d.logger.Warn
			if ev.Attempts+1 >= MaxAttempts {
				level = d.logger.Error
			}
			level("event delivery failed",
				zap.String("event_id", ev.ID),
				zap.String("trip_id", ev.TripID),
				zap.Int("attempt", ev.Attempts+1),
				zap.Error(err),
			)
			if markErr := d.events.MarkFailed(ctx, ev.ID, err); markErr != nil {
				return delivered, fmt.Errorf("recording failed delivery: %w", markErr)
			}
			continue
		}

		d.record(true)
		if err := d.events.MarkDelivered(ctx, ev.ID, time.Now().UTC()); err != nil {
			return delivered, fmt.Errorf("recording delivery: %w", err)
		}
		delivered++
	}
	return delivered, nil
}

func (d *Dispatcher) deliver(ctx context.Context, ev models.ScheduleEvent) error {
	n, err := Render(ev)
	if err != nil {
		return err
	}
	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) record(ok bool) {
	if d.observe != nil {
		d.observe(ok)
	}
}

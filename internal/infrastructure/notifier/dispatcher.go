package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/goroutine"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

const defaultTimeout = 10 * time.Second

// ErrSkipped lets a sink decline a notification it does not handle.
var ErrSkipped = errors.New("notification skipped by sink")

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

type guardedSink struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker[any]
}

// Dispatcher implements the transition notifier. Notify returns immediately; delivery runs
// on a background goroutine with a bounded timeout and every sink sits behind its own
// circuit breaker, so a failing sink neither blocks nor affects the others.
type Dispatcher struct {
	sinks    []guardedSink
	timeout  time.Duration
	recorder Recorder
	now      func() time.Time
	logger   logger.Interface

	// mu orders wg.Add against Close so no delivery is scheduled once draining starts.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sinks []Sink, timeout time.Duration, breaker BreakerSettings, logger logger.Interface) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if breaker.MaxFailures == 0 {
		breaker.MaxFailures = 5
	}

	d := &Dispatcher{
		timeout: timeout,
		now:     biztime.NowUTC,
		logger:  logger,
	}
	for _, sink := range sinks {
		d.sinks = append(d.sinks, guardedSink{sink: sink, breaker: d.newBreaker(sink.Name(), breaker)})
	}
	return d
}

func (d *Dispatcher) newBreaker(name string, settings BreakerSettings) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSkipped)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.logger.Warnw("notification sink circuit breaker state changed",
				"sink", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// SetRecorder sets the delivery metrics recorder (optional dependency injection)
func (d *Dispatcher) SetRecorder(recorder Recorder) {
	d.recorder = recorder
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.sink.Name())
	}
	return names
}

// Notify schedules delivery of one committed transition and returns without waiting.
func (d *Dispatcher) Notify(ctx context.Context, subscriptionID uint, previous, next vo.SubscriptionStatus, reason string) {
	if len(d.sinks) == 0 {
		return
	}

	n := Notification{
		ID:             uuid.NewString(),
		SubscriptionID: subscriptionID,
		Previous:       previous,
		Next:           next,
		Reason:         reason,
		OccurredAt:     d.now(),
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warnw("notification dropped, dispatcher closed",
			"subscription_id", subscriptionID, "from", previous, "to", next)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	goroutine.SafeGo(d.logger, "transition-notify", func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.deliver(sendCtx, n)
	})
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	for _, gs := range d.sinks {
		_, err := gs.breaker.Execute(func() (any, error) {
			return nil, gs.sink.Send(ctx, n)
		})

		result := ResultSent
		switch {
		case err == nil:
		case errors.Is(err, ErrSkipped):
			result = ResultSkipped
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			result = ResultOpen
			d.logger.Debugw("notification sink unavailable",
				"sink", gs.sink.Name(), "subscription_id", n.SubscriptionID)
		default:
			result = ResultFailed
			d.logger.Warnw("notification delivery failed",
				"sink", gs.sink.Name(),
				"subscription_id", n.SubscriptionID,
				"to", n.Next,
				"error", err,
			)
		}
		if d.recorder != nil {
			d.recorder.RecordNotification(gs.sink.Name(), result)
		}
	}
}

// Close stops scheduling new deliveries and waits for in-flight ones like Wait. Notify after
// Close drops the notification.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return d.Wait(ctx)
}

// Wait blocks until in-flight deliveries finish or ctx is done. It must not race with Notify;
// use Close when shutting down.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

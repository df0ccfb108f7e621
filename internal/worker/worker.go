// Package worker runs the background notification worker. It consumes order
// lifecycle events from the bus and hands them to the notification
// dispatcher, keeping slow SMTP and SMS round-trips out of request handlers.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/events"
	"github.com/elmalimarket/elmali/internal/notify"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// MaxConcurrency is the maximum number of events to process concurrently
	MaxConcurrency int

	// HandleTimeout bounds the processing of a single event
	HandleTimeout time.Duration
}

// Worker delivers notifications for order events
type Worker struct {
	config     Config
	bus        events.Bus
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

// NewWorker creates a notification worker
func NewWorker(bus events.Bus, dispatcher *notify.Dispatcher, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("notify-%s", uuid.New().String()[:8])
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 5
	}
	if config.HandleTimeout == 0 {
		config.HandleTimeout = 30 * time.Second
	}

	return &Worker{
		config:     config,
		bus:        bus,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start subscribes to the event bus and processes events until the context
// is cancelled, then waits for in-flight deliveries to finish.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("notification worker starting",
		"worker_id", w.config.WorkerID,
		"max_concurrency", w.config.MaxConcurrency,
	)

	sem := make(chan struct{}, w.config.MaxConcurrency)
	var wg sync.WaitGroup

	unsubscribe, err := w.bus.Subscribe(func(_ context.Context, ev events.OrderEvent) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			w.handle(ev)
		}()
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	<-ctx.Done()
	w.logger.Info("notification worker shutting down", "worker_id", w.config.WorkerID)
	unsubscribe()
	wg.Wait()
	return ctx.Err()
}

func (w *Worker) handle(ev events.OrderEvent) {
	// Delivery runs on background context: a cancelled server context must
	// not abort a notification already in flight.
	ctx, cancel := context.WithTimeout(context.Background(), w.config.HandleTimeout)
	defer cancel()

	w.logger.Info("processing order event",
		"worker_id", w.config.WorkerID,
		"type", string(ev.Type),
		"order_number", ev.OrderNumber,
	)

	w.dispatcher.Dispatch(ctx, ev)
}

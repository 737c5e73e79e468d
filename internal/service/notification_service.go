package service

import (
	"context"
	"errors"
	"log/slog"
	"retail_bank/internal/domain"
	"sync"
	"time"
)

var ErrServiceClosed = errors.New("notification service closed")

// Sink delivers an account event to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event domain.AccountEvent) error
}

type NotificationService struct {
	sinks        []Sink
	messageQueue chan domain.AccountEvent
	workers      int
	shutdownChan chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	logger       *slog.Logger
}

func NewNotificationService(sinks []Sink, workers, queueSize int, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	service := &NotificationService{
		sinks:        sinks,
		messageQueue: make(chan domain.AccountEvent, queueSize),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	service.startWorkers()

	return service
}

// Publish queues an event, blocking while the queue is full.
func (s *NotificationService) Publish(ctx context.Context, event domain.AccountEvent) error {
	select {
	case <-s.shutdownChan:
		return ErrServiceClosed
	default:
	}

	select {
	case s.messageQueue <- event:
		s.logger.DebugContext(ctx, "Notification queued",
			slog.String("event_id", event.ID),
			slog.String("type", string(event.Type)),
			slog.String("account", event.Account.String()))
		return nil
	case <-s.shutdownChan:
		return ErrServiceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *NotificationService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("Notification worker started", slog.Int("worker_id", id))

	for {
		select {
		case event := <-s.messageQueue:
			s.processNotification(event, id)
		case <-s.shutdownChan:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case event := <-s.messageQueue:
					s.processNotification(event, id)
				default:
					s.logger.Debug("Notification worker stopping", slog.Int("worker_id", id))
					return
				}
			}
		}
	}
}

func (s *NotificationService) processNotification(event domain.AccountEvent, workerID int) {
	for _, sink := range s.sinks {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := sink.Deliver(ctx, event)
		cancel()

		if err != nil {
			s.logger.Error("Failed to deliver notification",
				slog.String("sink", sink.Name()),
				slog.String("event_id", event.ID),
				slog.String("type", string(event.Type)),
				slog.String("error", err.Error()),
				slog.Int("worker_id", workerID),
				slog.Duration("duration", time.Since(startTime)))
		}
	}
}

func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.shutdownChan) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Deliver(ctx context.Context, event domain.AccountEvent) error {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID),
		slog.String("type", string(event.Type)),
		slog.String("account", event.Account.String()),
		slog.String("holder", event.Holder.String()),
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, event.Message, attrs...)
	return nil
}

// MemorySink keeps delivered events in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []domain.AccountEvent
}

func (m *MemorySink) Name() string { return "memory" }

func (m *MemorySink) Deliver(ctx context.Context, event domain.AccountEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemorySink) Events() []domain.AccountEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AccountEvent, len(m.events))
	copy(out, m.events)
	return out
}

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
)

// PGHandler is an slog.Handler that batches ERROR+ records into system_logs.
// Flush failures go to fallback, never back through slog's default logger.
type PGHandler struct {
	sink  *pgSink
	attrs []slog.Attr
}

type pgSink struct {
	db        *gorm.DB
	fallback  *slog.Logger
	batchSize int

	mu     sync.Mutex
	buffer []models.SystemLog

	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewPGHandler(db *gorm.DB, fallback slog.Handler) *PGHandler {
	return newPGHandler(db, fallback, defaultBatchSize, defaultFlushInterval)
}

func newPGHandler(db *gorm.DB, fallback slog.Handler, batchSize int, interval time.Duration) *PGHandler {
	s := &pgSink{
		db:        db,
		fallback:  slog.New(fallback),
		batchSize: batchSize,
		buffer:    make([]models.SystemLog, 0, batchSize),
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go s.flushLoop()
	return &PGHandler{sink: s}
}

func (s *pgSink) flushLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *pgSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, s.batchSize)
	s.mu.Unlock()

	if err := s.db.CreateInBatches(batch, s.batchSize).Error; err != nil {
		s.fallback.Error("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

func (s *pgSink) add(entry models.SystemLog) {
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	full := len(s.buffer) >= s.batchSize
	s.mu.Unlock()

	if full {
		go s.flush()
	}
}

// Stop flushes what is buffered and waits for it to be written.
func (h *PGHandler) Stop() {
	h.sink.stopOnce.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	<-h.sink.stopped
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]any)
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "correlation_id", "request_id":
			entry.CorrelationID = a.Value.String()
		case "user_id":
			if s := a.Value.String(); s != "" {
				entry.UserID = &s
			}
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.sink.add(entry)
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{sink: h.sink, attrs: merged}
}

// WithGroup is ignored: system_logs columns are flat.
func (h *PGHandler) WithGroup(string) slog.Handler {
	return h
}

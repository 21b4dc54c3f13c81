package tasks

import (
	"context"
	"log/slog"
	"time"

	"ground_ops/internal/database"
	"ground_ops/internal/metrics"
	"ground_ops/internal/models"
)

// JournalCollector receives registry changes and commits them to the journal in batches
type JournalCollector struct {
	repo          database.JournalRepository
	changeChan    chan models.Change
	batchSize     int           // maximum number of changes in a batch before committing to database
	flushInterval time.Duration // time to flush batch even if not full
	metrics       *metrics.Metrics
}

// Default buffer is 1000 changes, batch size is 100 and flush interval is 1 second
func NewJournalCollector(repo database.JournalRepository, m *metrics.Metrics) *JournalCollector {
	return NewJournalCollectorWithConfig(repo, 1000, 100, 1*time.Second, m)
}

// NewJournalCollectorWithConfig creates a collector with custom buffer and batch settings
func NewJournalCollectorWithConfig(repo database.JournalRepository, buffer, batchSize int, flushInterval time.Duration, m *metrics.Metrics) *JournalCollector {
	return &JournalCollector{
		repo:          repo,
		changeChan:    make(chan models.Change, buffer),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		metrics:       m,
	}
}

// Observe is the registry subscriber callback. It never blocks: when the
// buffer is full the change is dropped and counted.
func (c *JournalCollector) Observe(change models.Change) {
	select {
	case c.changeChan <- change:
	default:
		c.metrics.IncrementJournalDropped()
		slog.Warn("Journal buffer full, dropping change", "change", change)
	}
}

// Start collects changes and writes them to the journal in batches.
// It blocks until the context is cancelled. Batches are flushed when they
// reach batchSize or flushInterval has passed since the last write.
func (c *JournalCollector) Start(ctx context.Context) error {
	batch := make([]models.Change, 0, c.batchSize)

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.repo.InsertBatch(batch); err != nil {
			slog.Error("Error inserting batch of changes", "batch_size", len(batch), "error", err)
		} else {
			slog.Debug("Journaled registry changes", "batch_size", len(batch))
		}
		batch = batch[:0] // Reset slice but keep capacity
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Drain whatever the registries already handed over
			for {
				select {
				case change := <-c.changeChan:
					batch = append(batch, change)
					if len(batch) >= c.batchSize {
						flushBatch()
					}
				default:
					flushBatch()
					return ctx.Err()
				}
			}

		case change := <-c.changeChan:
			batch = append(batch, change)
			if len(batch) >= c.batchSize {
				flushBatch()
			}

		case <-ticker.C:
			flushBatch()
		}
	}
}

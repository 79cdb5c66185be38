package worker

import (
	"context"
	"fmt"
	"time"

	"ledgerview/internal/amqp"
	"ledgerview/internal/core"
	"ledgerview/internal/log"
	"ledgerview/internal/source"
	"ledgerview/internal/storage"
)

// Publisher announces that stored transactions changed.
type Publisher interface {
	PublishSnapshotChanged(ctx context.Context, msg *amqp.SnapshotChangedMessage) error
}

// RunRecorder keeps a history of imports.
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, run storage.SyncRun) error
}

// Result summarizes one import.
type Result struct {
	Read     int
	Upserted int
	Rejected []*core.RecordError
}

// SyncWorker imports transactions from a source into a store.
type SyncWorker struct {
	name      string
	from      source.TransactionReader
	to        source.TransactionWriter
	publisher Publisher
	runs      RunRecorder
	logger    *log.Logger
	now       func() time.Time
}

// NewSyncWorker wires a worker. publisher and runs may be nil.
func NewSyncWorker(name string, from source.TransactionReader, to source.TransactionWriter, publisher Publisher, runs RunRecorder, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		name:      name,
		from:      from,
		to:        to,
		publisher: publisher,
		runs:      runs,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// RunOnce reads the source, validates every record, upserts the valid ones
// and publishes a change message. Rejected records are logged and skipped.
func (w *SyncWorker) RunOnce(ctx context.Context) (Result, error) {
	raws, err := w.from.ReadTransactions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", w.name, err)
	}

	txs, rejects := core.ParseRecords(raws)
	for _, re := range rejects {
		w.logger.WarnContext(ctx, "Record rejected",
			log.NewFields().
				WithRecord(re.Index, re.Line, re.ID, re.Field).
				WithError(re.Err).
				With(log.FieldSource, w.name).
				ToSlice()...)
	}

	res := Result{Read: len(raws), Rejected: rejects}
	if len(txs) > 0 {
		n, err := w.to.UpsertTransactions(ctx, txs)
		if err != nil {
			return res, fmt.Errorf("upsert: %w", err)
		}
		res.Upserted = n
	}

	if w.runs != nil {
		run := storage.SyncRun{
			Source:     w.name,
			Read:       res.Read,
			Upserted:   res.Upserted,
			Rejected:   len(rejects),
			FinishedAt: w.now(),
		}
		if err := w.runs.RecordSyncRun(ctx, run); err != nil {
			w.logger.ErrorContext(ctx, "Failed to record sync run", log.FieldError, err)
		}
	}

	if w.publisher != nil && res.Upserted > 0 {
		msg := amqp.NewSnapshotChangedMessage(w.name, res.Upserted, len(rejects))
		// The import already succeeded; consumers fall back to the snapshot TTL.
		if err := w.publisher.PublishSnapshotChanged(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish snapshot changed message", log.FieldError, err)
		}
	}

	w.logger.InfoContext(ctx, "Sync completed",
		log.FieldSource, w.name,
		log.FieldCount, res.Read,
		"upserted", res.Upserted,
		log.FieldRejected, len(rejects))
	return res, nil
}

// Run imports once, then again on every tick of interval until ctx is done.
// A non-positive interval runs a single import.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.RunOnce(ctx); err != nil {
		if interval <= 0 {
			return err
		}
		w.logger.ErrorContext(ctx, "Sync failed", log.FieldError, err)
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Sync worker stopping", log.FieldOperation, log.OpShutdown)
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Sync failed", log.FieldError, err)
			}
		}
	}
}

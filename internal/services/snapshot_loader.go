package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ledgerview/internal/cache"
	"ledgerview/internal/core"
	"ledgerview/internal/log"
	"ledgerview/internal/source"
)

// Snapshot is the validated set of transactions a source held at LoadedAt,
// together with the records that failed validation.
type Snapshot struct {
	Source       string
	Transactions []core.Transaction
	Rejected     []*core.RecordError
	LoadedAt     time.Time
}

// SnapshotLoader reads a source, validates it and caches the result.
// Concurrent loads of a cold cache share one read.
type SnapshotLoader struct {
	reader source.TransactionReader
	name   string
	cache  cache.Cache[string, Snapshot]
	group  singleflight.Group
	// mu guards gen and orders cache writes against Invalidate.
	mu     sync.Mutex
	gen    uint64
	logger *log.Logger
	now    func() time.Time
}

func NewSnapshotLoader(name string, reader source.TransactionReader, c cache.Cache[string, Snapshot], logger *log.Logger) *SnapshotLoader {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SnapshotLoader{
		reader: reader,
		name:   name,
		cache:  c,
		logger: logger.WithComponent(log.ComponentSnapshot),
		now:    time.Now,
	}
}

// Name identifies the underlying source.
func (l *SnapshotLoader) Name() string {
	return l.name
}

// Load returns the cached snapshot or reads a fresh one.
func (l *SnapshotLoader) Load(ctx context.Context) (Snapshot, error) {
	if snap, ok := l.cache.Get(l.name); ok {
		return snap, nil
	}

	l.mu.Lock()
	gen := l.gen
	l.mu.Unlock()
	v, err, shared := l.group.Do(l.name, func() (any, error) {
		// Detached so one caller giving up does not fail the others.
		return l.read(context.WithoutCancel(ctx), gen)
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		l.logger.DebugContext(ctx, "Snapshot load shared", log.FieldSource, l.name)
	}
	return v.(Snapshot), nil
}

func (l *SnapshotLoader) read(ctx context.Context, gen uint64) (Snapshot, error) {
	start := l.now()
	raws, err := l.reader.ReadTransactions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", l.name, err)
	}

	txs, rejects := core.ParseRecords(raws)
	for _, re := range rejects {
		l.logger.WarnContext(ctx, "Record rejected",
			log.NewFields().
				WithRecord(re.Index, re.Line, re.ID, re.Field).
				WithError(re.Err).
				ToSlice()...)
	}

	snap := Snapshot{
		Source:       l.name,
		Transactions: txs,
		Rejected:     rejects,
		LoadedAt:     l.now(),
	}
	l.storeIfCurrent(gen, snap)

	l.logger.InfoContext(ctx, "Snapshot loaded",
		log.FieldSource, l.name,
		log.FieldCount, len(txs),
		log.FieldRejected, len(rejects),
		log.FieldDuration, l.now().Sub(start).Milliseconds())
	return snap, nil
}

// Invalidate drops the cached snapshot; the next Load reads the source again.
func (l *SnapshotLoader) Invalidate() {
	l.mu.Lock()
	l.gen++
	l.cache.Delete(l.name)
	l.group.Forget(l.name)
	l.mu.Unlock()
	l.logger.Info("Snapshot invalidated", log.FieldSource, l.name)
}

// storeIfCurrent caches snap unless Invalidate ran after the read started.
func (l *SnapshotLoader) storeIfCurrent(gen uint64, snap Snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return false
	}
	l.cache.Set(l.name, snap)
	return true
}

package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"purchases/internal/amqp"
	"purchases/internal/cache"
	"purchases/internal/core"
	"purchases/internal/sheets"
	"purchases/internal/storage"
)

// ReloadWorker keeps the table cache in step with dataset-changed
// notifications.
type ReloadWorker struct {
	cache  *cache.TableCache
	source sheets.TableSource
}

func NewReloadWorker(c *cache.TableCache, source sheets.TableSource) *ReloadWorker {
	return &ReloadWorker{cache: c, source: source}
}

// HandleDatasetChanged processes a single dataset-changed message from AMQP.
// Messages for other sources only drop their cache entry; a message for the
// served source also reloads it so the next request is warm.
func (w *ReloadWorker) HandleDatasetChanged(ctx context.Context, msg *amqp.DatasetChangedMessage) error {
	slog.InfoContext(ctx, "Processing dataset changed message",
		"source", msg.Source,
		"snapshot_id", msg.SnapshotID,
		"rows", msg.Rows)

	if msg.AllSources() {
		dropped := w.cache.InvalidateAll()
		slog.InfoContext(ctx, "Invalidated all cached tables", "dropped", dropped)
	} else {
		w.cache.Invalidate(msg.Source)
	}

	if w.source == nil || !(msg.AllSources() || msg.Source == w.source.SourceID()) {
		return nil
	}
	return w.warm(ctx)
}

func (w *ReloadWorker) warm(ctx context.Context) error {
	t, err := w.cache.Get(ctx, w.source)
	if err != nil {
		// The entry stays invalidated and the next request retries the load.
		// Redelivering the message would not help a broken source.
		slog.ErrorContext(ctx, "Failed to reload dataset", "source", w.source.SourceID(), "error", err)
		return nil
	}
	slog.InfoContext(ctx, "Dataset reloaded", "source", t.Source(), "rows", t.Len())
	return nil
}

// SnapshotReader reports the most recent stored snapshot.
type SnapshotReader interface {
	SourceID() string
	LatestSnapshot(ctx context.Context) (storage.Snapshot, error)
}

// SnapshotWatcher polls a snapshot store and invalidates its cache entry when
// a new snapshot appears. It covers notifications lost while no consumer
// was connected.
type SnapshotWatcher struct {
	cache    *cache.TableCache
	store    SnapshotReader
	interval time.Duration
	lastID   string
}

func NewSnapshotWatcher(c *cache.TableCache, store SnapshotReader, interval time.Duration) *SnapshotWatcher {
	return &SnapshotWatcher{cache: c, store: store, interval: interval}
}

// Check compares the latest snapshot with the last one seen and reports
// whether the cache was invalidated.
func (w *SnapshotWatcher) Check(ctx context.Context) (bool, error) {
	snap, err := w.store.LatestSnapshot(ctx)
	if errors.Is(err, core.ErrSourceMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if w.lastID == "" {
		w.lastID = snap.ID
		return false, nil
	}
	if snap.ID == w.lastID {
		return false, nil
	}

	slog.InfoContext(ctx, "New snapshot detected",
		"source", w.store.SourceID(),
		"snapshot_id", snap.ID,
		"rows", snap.RowCount)
	w.lastID = snap.ID
	w.cache.Invalidate(w.store.SourceID())
	return true, nil
}

// Run polls until ctx is done.
func (w *SnapshotWatcher) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.Check(ctx); err != nil {
		slog.WarnContext(ctx, "Snapshot check failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				slog.WarnContext(ctx, "Snapshot check failed", "error", err)
			}
		}
	}
}

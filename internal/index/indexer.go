package index

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zrl37/crystallize/internal/apperr"
	"github.com/zrl37/crystallize/internal/store"
)

// DefaultDebounce is the quiet period before pending notes are reindexed.
const DefaultDebounce = 200 * time.Millisecond

// EventCallback is invoked after a note has been reindexed or removed.
// kind is "upsert" or "delete".
type EventCallback func(kind, noteID string)

// Indexer keeps the index in step with the store. Note events are collected
// and flushed after the debounce period so bursts of edits cost one write.
type Indexer struct {
	db       *DB
	src      NoteSource
	logger   *slog.Logger
	debounce time.Duration
	onChange EventCallback

	mu      sync.Mutex
	pending map[string]struct{}
	kick    chan struct{}
}

// NewIndexer returns an Indexer over db fed by src.
func NewIndexer(db *DB, src NoteSource, logger *slog.Logger, onChange EventCallback) *Indexer {
	return &Indexer{
		db:       db,
		src:      src,
		logger:   logger,
		debounce: DefaultDebounce,
		onChange: onChange,
		pending:  make(map[string]struct{}),
		kick:     make(chan struct{}, 1),
	}
}

// SetDebounce overrides DefaultDebounce. It must be called before Run.
func (ix *Indexer) SetDebounce(d time.Duration) {
	if d > 0 {
		ix.debounce = d
	}
}

// Observe is a store.Observer. It never blocks.
func (ix *Indexer) Observe(ev store.Event) {
	if ev.Entity != store.EntityNote || ev.ID == "" {
		return
	}
	ix.mu.Lock()
	ix.pending[ev.ID] = struct{}{}
	ix.mu.Unlock()
	select {
	case ix.kick <- struct{}{}:
	default:
	}
}

// Run flushes pending notes until ctx is cancelled. Remaining work is flushed
// before it returns.
func (ix *Indexer) Run(ctx context.Context) error {
	timer := time.NewTimer(ix.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			ix.Flush()
			return nil
		case <-ix.kick:
			timer.Reset(ix.debounce)
		case <-timer.C:
			ix.Flush()
		}
	}
}

// Flush reindexes every pending note now.
func (ix *Indexer) Flush() {
	ix.mu.Lock()
	ids := make([]string, 0, len(ix.pending))
	for id := range ix.pending {
		ids = append(ids, id)
	}
	ix.pending = make(map[string]struct{})
	ix.mu.Unlock()

	for _, id := range ids {
		ix.apply(id)
	}
}

func (ix *Indexer) apply(id string) {
	n, err := ix.src.Note(id)
	if errors.Is(err, apperr.ErrNotFound) {
		if err := ix.db.DeleteNote(id); err != nil {
			ix.logger.Warn("indexer: delete failed", slog.String("note", id), slog.String("error", err.Error()))
			return
		}
		ix.logger.Debug("indexer: removed", slog.String("note", id))
		if ix.onChange != nil {
			ix.onChange("delete", id)
		}
		return
	}
	if err != nil {
		ix.logger.Warn("indexer: read failed", slog.String("note", id), slog.String("error", err.Error()))
		return
	}

	prev, err := ix.db.GetChecksum(id)
	if err != nil {
		ix.logger.Warn("indexer: checksum failed", slog.String("note", id), slog.String("error", err.Error()))
		return
	}
	if prev == noteChecksum(*n) {
		return
	}
	if err := indexNote(ix.db, *n, prev); err != nil {
		ix.logger.Warn("indexer: index failed", slog.String("note", id), slog.String("error", err.Error()))
		return
	}
	ix.logger.Debug("indexer: indexed", slog.String("note", id))
	if ix.onChange != nil {
		ix.onChange("upsert", id)
	}
}

package api

import (
	"context"

	"reservpark/internal/liveactivity"
	"reservpark/internal/model"
	"reservpark/internal/mw"
)

// historyArchive writes through to the archive and drops cached history
// responses, so a new start, extension or end shows up immediately.
type historyArchive struct {
	next  liveactivity.Archive
	cache *mw.ResponseCache
}

// NewHistoryArchive wraps next so every write flushes the history cache.
func NewHistoryArchive(next liveactivity.Archive, cache *mw.ResponseCache) liveactivity.Archive {
	return &historyArchive{next: next, cache: cache}
}

func (a *historyArchive) RecordActivity(ctx context.Context, rec *model.ActivityRecord) error {
	defer a.cache.Flush()
	return a.next.RecordActivity(ctx, rec)
}

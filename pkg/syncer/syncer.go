package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"roundbuy/pkg/logger"
	"roundbuy/pkg/messaging"
	"roundbuy/pkg/models"
	"roundbuy/pkg/telemetry"
)

// FetchFunc returns the viewer's full conversation list; the syncer
// re-fetches rather than merging, so last fetch wins.
type FetchFunc func(ctx context.Context) ([]models.Conversation, error)

// Snapshot is the result of the most recent completed run.
type Snapshot struct {
	Conversations []models.Conversation
	UnreadCount   int
	LastSync      time.Time
}

// Syncer refreshes the inbox on a cron schedule in the background.
// Runs never overlap: a tick that fires while a fetch is still in
// flight is skipped.
type Syncer struct {
	schedule string
	fetch    FetchFunc
	viewerID string
	onUpdate func(Snapshot)

	mu      sync.Mutex
	running bool
	snap    Snapshot
}

// New validates the cron expression up front. onUpdate may be nil.
func New(schedule string, viewerID string, fetch FetchFunc, onUpdate func(Snapshot)) (*Syncer, error) {
	if !gronx.IsValid(schedule) {
		return nil, fmt.Errorf("invalid sync schedule %q", schedule)
	}
	return &Syncer{schedule: schedule, fetch: fetch, viewerID: viewerID, onUpdate: onUpdate}, nil
}

// Start launches the scheduler loop. The returned cancel func stops
// it; the context cancels it too.
func (s *Syncer) Start(ctx context.Context) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go s.loop(ctx)
	logger.Info("inbox_sync_started", "schedule", s.schedule)
	return cancel
}

func (s *Syncer) loop(ctx context.Context) {
	for {
		now := time.Now()
		next, err := gronx.NextTickAfter(s.schedule, now, false)
		if err != nil {
			logger.Error("inbox_sync_schedule_failed", "error", err)
			return
		}
		select {
		case <-ctx.Done():
			logger.Info("inbox_sync_stopped")
			return
		case <-time.After(time.Until(next)):
			if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("inbox_sync_failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single refresh. A run already in flight makes it
// a no-op.
func (s *Syncer) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Debug("inbox_sync_skipped_overlap")
		return nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	convs, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	telemetry.IncSyncRun()

	unread := messaging.UnreadCount(convs, s.viewerID)

	snap := Snapshot{Conversations: convs, UnreadCount: unread, LastSync: time.Now()}
	s.mu.Lock()
	s.snap = snap
	cb := s.onUpdate
	s.mu.Unlock()

	logger.Debug("inbox_synced", "conversations", len(convs), "unread", unread)
	if cb != nil {
		cb(snap)
	}
	return nil
}

// Snapshot returns the last completed run's result.
func (s *Syncer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tradepit/arena/internal/model"
)

// endedRetention is how long an ended room stays resolvable before the
// sweep reclaims it.
const endedRetention = 10 * time.Minute

// ResultArchiver persists finished-game results. The live game never
// depends on it succeeding.
type ResultArchiver interface {
	SaveResult(ctx context.Context, result *model.GameResult) error
}

// Scheduler drives every active session from a single 1 Hz loop: the
// pre-game countdown, the live price ticks and the end-of-game transition
// all run through Session.Advance. One session per room replaces per-room
// timer closures, so timer lifecycle is explicit and a panic in one room's
// tick cannot take down the others.
type Scheduler struct {
	dir      *Directory
	archiver ResultArchiver // optional

	mu     sync.Mutex
	active map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler over the directory. archiver may be nil.
func NewScheduler(dir *Directory, archiver ResultArchiver) *Scheduler {
	return &Scheduler{
		dir:      dir,
		archiver: archiver,
		active:   make(map[string]*Session),
		stop:     make(chan struct{}),
	}
}

// Register adds a session to the tick loop. Called when its game starts.
func (sch *Scheduler) Register(sess *Session) {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	sch.active[sess.ID()] = sess
}

// Run blocks, ticking all active sessions once per second until Stop.
func (sch *Scheduler) Run() {
	ticker := time.NewTicker(model.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sch.stop:
			return
		case now := <-ticker.C:
			sch.TickAll(now)
		}
	}
}

// Stop halts the tick loop. Safe to call more than once.
func (sch *Scheduler) Stop() {
	sch.stopOnce.Do(func() { close(sch.stop) })
}

// TickAll advances every active session once and sweeps expired rooms.
// Exposed for tests that drive time by hand.
func (sch *Scheduler) TickAll(now time.Time) {
	sch.mu.Lock()
	sessions := make([]*Session, 0, len(sch.active))
	for _, s := range sch.active {
		sessions = append(sessions, s)
	}
	sch.mu.Unlock()

	for _, sess := range sessions {
		if sch.advance(sess, now) {
			sch.mu.Lock()
			delete(sch.active, sess.ID())
			sch.mu.Unlock()
			sch.archive(sess)
		}
	}

	sch.dir.Sweep(now, endedRetention)
}

// advance ticks one session, containing any panic so the remaining rooms
// keep ticking.
func (sch *Scheduler) advance(sess *Session, now time.Time) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session tick panicked", "room", sess.Code(), "panic", r)
			done = false
		}
	}()
	return sess.Advance(now)
}

// archive persists the finished game off the tick loop.
func (sch *Scheduler) archive(sess *Session) {
	if sch.archiver == nil {
		return
	}
	result := sess.Result()
	if result == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sch.archiver.SaveResult(ctx, result); err != nil {
			slog.Error("archiving game result failed", "room", result.RoomCode, "err", err)
		}
	}()
}

package room

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/tradepit/arena/internal/model"
)

type captureArchiver struct {
	results chan *model.GameResult
}

func (a *captureArchiver) SaveResult(_ context.Context, r *model.GameResult) error {
	a.results <- r
	return nil
}

func TestScheduler_DrivesGameToArchivedEnd(t *testing.T) {
	rec := newRecorder()
	dir := NewDirectory(rec, rand.New(rand.NewSource(3)))
	arch := &captureArchiver{results: make(chan *model.GameResult, 1)}
	sch := NewScheduler(dir, arch)

	start := time.Unix(9000, 0)
	sess, err := dir.CreateRoom("conn-1", "alice", "HDFCBANK", "range", start)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := dir.JoinRoom("conn-2", sess.Code(), "bob", start); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := sess.Start("conn-1", start); err != nil {
		t.Fatalf("start: %v", err)
	}
	sch.Register(sess)

	now := start
	deadline := start.Add(model.GameDuration + time.Minute)
	for sess.Status() != model.StatusEnded && now.Before(deadline) {
		now = now.Add(time.Second)
		sch.TickAll(now)
	}
	if sess.Status() != model.StatusEnded {
		t.Fatal("scheduler never ended the game")
	}

	select {
	case res := <-arch.results:
		if res.RoomCode != sess.Code() || len(res.Leaderboard) != 2 {
			t.Errorf("unexpected archived result %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("result was never archived")
	}

	// The ended session is deregistered: further ticks emit nothing.
	before := rec.roomCount(EventPriceTick)
	sch.TickAll(now.Add(time.Second))
	if got := rec.roomCount(EventPriceTick); got != before {
		t.Errorf("deregistered session still ticking: %d -> %d", before, got)
	}
}

func TestScheduler_SweepsEndedRooms(t *testing.T) {
	dir := NewDirectory(NopBroadcaster{}, rand.New(rand.NewSource(4)))
	sch := NewScheduler(dir, nil)

	start := time.Unix(9000, 0)
	sess, _ := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", start)
	dir.JoinRoom("conn-2", sess.Code(), "bob", start)
	sess.Start("conn-1", start)
	sess.End("conn-1", start.Add(time.Minute))

	sch.TickAll(start.Add(2 * time.Minute))
	if _, ok := dir.Lookup(sess.ID()); !ok {
		t.Fatal("room swept inside retention window")
	}

	sch.TickAll(start.Add(time.Minute + endedRetention + time.Second))
	if _, ok := dir.Lookup(sess.ID()); ok {
		t.Errorf("ended room survived past retention")
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	dir := NewDirectory(NopBroadcaster{}, rand.New(rand.NewSource(5)))
	sch := NewScheduler(dir, nil)

	done := make(chan struct{})
	go func() {
		sch.Run()
		close(done)
	}()

	sch.Stop()
	sch.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

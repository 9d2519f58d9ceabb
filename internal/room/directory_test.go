package room

import (
	"errors"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var codePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{6}$`)

func testDirectory() *Directory {
	return NewDirectory(NopBroadcaster{}, rand.New(rand.NewSource(42)))
}

func TestGenerateCode_AlphabetAndLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		code := generateCode(rng)
		if !codePattern.MatchString(code) {
			t.Fatalf("code %q violates alphabet or length", code)
		}
	}
}

func TestCreateRoom_BindsAdmin(t *testing.T) {
	dir := testDirectory()
	now := time.Unix(1000, 0)

	sess, err := dir.CreateRoom("conn-1", "alice", "RELIANCE", "volatile", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !codePattern.MatchString(sess.Code()) {
		t.Errorf("room code %q invalid", sess.Code())
	}
	if sess.ID() != "room-"+sess.Code() {
		t.Errorf("room id %q not derived from code %q", sess.ID(), sess.Code())
	}

	b, ok := dir.Binding("conn-1")
	if !ok || !b.IsAdmin || b.PlayerID != "conn-1" || b.RoomID != sess.ID() {
		t.Errorf("unexpected admin binding %+v ok=%v", b, ok)
	}

	snap := sess.Snapshot()
	if len(snap.Players) != 1 || snap.AdminID != "conn-1" {
		t.Errorf("admin not seated: %+v", snap)
	}
	if !snap.Players[0].Balance.Equal(decimal.NewFromInt(500_000)) {
		t.Errorf("starting balance %s", snap.Players[0].Balance)
	}
	if snap.Stock.Symbol != "RELIANCE" || snap.Scenario != "volatile" {
		t.Errorf("room bound to %s/%s", snap.Stock.Symbol, snap.Scenario)
	}
}

func TestCreateRoom_UnknownCatalogFallsBack(t *testing.T) {
	dir := testDirectory()

	sess, err := dir.CreateRoom("conn-1", "alice", "NOSUCH", "nope", time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snap := sess.Snapshot()
	if snap.Stock.Symbol == "" || snap.Scenario == "" {
		t.Errorf("fallback left room unconfigured: %+v", snap)
	}
}

func TestCreateRoom_WhileBound(t *testing.T) {
	dir := testDirectory()
	if _, err := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Now()); !errors.Is(err, ErrAlreadyInRoom) {
		t.Errorf("expected ErrAlreadyInRoom, got %v", err)
	}
}

func TestJoinRoom_ByCode(t *testing.T) {
	dir := testDirectory()
	sess, _ := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Now())

	joined, player, err := dir.JoinRoom("conn-2", sess.Code(), "bob", time.Now())
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.ID() != sess.ID() {
		t.Errorf("joined wrong room %s", joined.ID())
	}
	if player.ID != "conn-2" || player.Name != "bob" {
		t.Errorf("unexpected player %+v", player)
	}
	b, ok := dir.Binding("conn-2")
	if !ok || b.IsAdmin || b.RoomID != sess.ID() {
		t.Errorf("unexpected binding %+v ok=%v", b, ok)
	}
}

func TestJoinRoom_UnknownCode(t *testing.T) {
	dir := testDirectory()
	if _, _, err := dir.JoinRoom("conn-1", "ZZZZZZ", "bob", time.Now()); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinRoom_WhileBound(t *testing.T) {
	dir := testDirectory()
	a, _ := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Now())
	dir.CreateRoom("conn-2", "carol", "INFY", "bearish", time.Now())

	if _, _, err := dir.JoinRoom("conn-2", a.Code(), "carol", time.Now()); !errors.Is(err, ErrAlreadyInRoom) {
		t.Errorf("expected ErrAlreadyInRoom, got %v", err)
	}
}

func TestJoinRoom_AdmissionErrorDoesNotBind(t *testing.T) {
	dir := testDirectory()
	sess, _ := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Now())
	sess.ToggleLock("conn-1")

	if _, _, err := dir.JoinRoom("conn-2", sess.Code(), "bob", time.Now()); !errors.Is(err, ErrRoomLocked) {
		t.Fatalf("expected ErrRoomLocked, got %v", err)
	}
	if _, ok := dir.Binding("conn-2"); ok {
		t.Errorf("rejected join left a binding behind")
	}
}

func TestDisconnect_UnbindsAndFlags(t *testing.T) {
	dir := testDirectory()
	sess, _ := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Now())
	dir.JoinRoom("conn-2", sess.Code(), "bob", time.Now())

	dir.Disconnect("conn-2")

	if _, ok := dir.Binding("conn-2"); ok {
		t.Errorf("binding survived disconnect")
	}
	for _, p := range sess.Snapshot().Players {
		if p.ID == "conn-2" && p.IsConnected {
			t.Errorf("player still flagged connected")
		}
	}

	// The identity is not re-bound: a reconnect joins as a new player.
	dir.Disconnect("conn-unknown") // no-op
}

func TestSweep_RemovesExpiredRooms(t *testing.T) {
	dir := testDirectory()
	start := time.Unix(1000, 0)
	sess, _ := dir.CreateRoom("conn-1", "alice", "TCS", "bullish", start)
	dir.JoinRoom("conn-2", sess.Code(), "bob", start)
	if err := sess.Start("conn-1", start); err != nil {
		t.Fatalf("start: %v", err)
	}
	sess.End("conn-1", start.Add(time.Minute))

	if n := dir.Sweep(start.Add(5*time.Minute), 10*time.Minute); n != 0 {
		t.Errorf("sweep reclaimed a room inside retention: %d", n)
	}
	if _, ok := dir.Lookup(sess.ID()); !ok {
		t.Fatal("room vanished before retention elapsed")
	}

	if n := dir.Sweep(start.Add(12*time.Minute), 10*time.Minute); n != 1 {
		t.Errorf("sweep removed %d rooms, want 1", n)
	}
	if _, ok := dir.Lookup(sess.ID()); ok {
		t.Errorf("ended room still resolvable after sweep")
	}
	if _, ok := dir.Binding("conn-1"); ok {
		t.Errorf("binding survived room sweep")
	}
	if _, _, err := dir.JoinRoom("conn-3", sess.Code(), "carl", start); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("swept code still joinable: %v", err)
	}
}

func TestSweep_IgnoresLiveRooms(t *testing.T) {
	dir := testDirectory()
	dir.CreateRoom("conn-1", "alice", "TCS", "bullish", time.Unix(1000, 0))

	if n := dir.Sweep(time.Unix(1000, 0).Add(time.Hour), time.Minute); n != 0 {
		t.Errorf("sweep reclaimed a waiting room: %d", n)
	}
}

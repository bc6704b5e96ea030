package battle

import (
	"errors"
	"testing"
	"time"

	"github.com/ohmynofan/tipverse/internal/domain/model"
)

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-5 * time.Second, "00:00:00"},
		{1500 * time.Millisecond, "00:00:01"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tc := range cases {
		if got := FormatCountdown(tc.in); got != tc.want {
			t.Fatalf("FormatCountdown(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWindowPhases(t *testing.T) {
	start := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	w := Window{Start: start}

	if w.TippingStart() != start.Add(-24*time.Hour) || w.End() != start.Add(24*time.Hour) {
		t.Fatal("default duration should be 24h")
	}
	if p := w.Phase(start.Add(-time.Minute)); p != PhaseTipping {
		t.Fatalf("phase = %s", p)
	}
	if got := w.Remaining(start.Add(-time.Minute)); got != time.Minute {
		t.Fatalf("remaining = %v", got)
	}
	if p := w.Phase(start); p != PhaseBattle {
		t.Fatalf("phase at start = %s", p)
	}
	if got := w.Remaining(start.Add(time.Hour)); got != 23*time.Hour {
		t.Fatalf("remaining = %v", got)
	}
	if p := w.Phase(start.Add(24 * time.Hour)); p != PhaseEnded {
		t.Fatalf("phase at end = %s", p)
	}
	if got := w.Remaining(start.Add(48 * time.Hour)); got != 0 {
		t.Fatalf("remaining after end = %v", got)
	}
}

type fakeLedger struct {
	since, until time.Time
	tippers      []model.LeaderboardEntry
	posts        []model.PostRanking
	err          error
}

func (f *fakeLedger) Leaderboard(since, until time.Time, limit int) ([]model.LeaderboardEntry, error) {
	f.since, f.until = since, until
	if f.err != nil {
		return nil, f.err
	}
	if len(f.tippers) > limit {
		return f.tippers[:limit], nil
	}
	return f.tippers, nil
}

func (f *fakeLedger) TopPosts(since, until time.Time, limit int) ([]model.PostRanking, error) {
	if len(f.posts) > limit {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

func TestStandings(t *testing.T) {
	start := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{
		tippers: []model.LeaderboardEntry{
			{Rank: 1, Address: "0xa", XP: 30},
			{Rank: 2, Address: "0xb", XP: 20},
			{Rank: 3, Address: "0xc", XP: 10},
		},
		posts: []model.PostRanking{{Rank: 1, PostID: "p1"}, {Rank: 2, PostID: "p2"}, {Rank: 3, PostID: "p3"}, {Rank: 4, PostID: "p4"}},
	}
	board := NewBoard(ledger, Window{Start: start, Duration: 24 * time.Hour}, 2, 3)

	now := start.Add(-2 * time.Hour)
	s, err := board.Standings(now, 10)
	if err != nil {
		t.Fatalf("Standings: %v", err)
	}
	if s.Phase != PhaseTipping || s.Countdown != "02:00:00" {
		t.Fatalf("phase/countdown = %s %s", s.Phase, s.Countdown)
	}
	if len(s.Tippers) != 3 || len(s.Winners) != 2 || s.Winners[1].Address != "0xb" {
		t.Fatalf("tippers=%d winners=%+v", len(s.Tippers), s.Winners)
	}
	if len(s.Creators) != 3 {
		t.Fatalf("creators = %d, want 3", len(s.Creators))
	}
	if !ledger.since.Equal(start.Add(-24*time.Hour)) || !ledger.until.Equal(now) {
		t.Fatalf("queried window %s..%s", ledger.since, ledger.until)
	}

	if _, err := board.Standings(start.Add(time.Hour), 10); err != nil {
		t.Fatalf("Standings: %v", err)
	}
	if !ledger.until.Equal(start) {
		t.Fatalf("tipping window must close at start, got %s", ledger.until)
	}
}

func TestStandingsError(t *testing.T) {
	board := NewBoard(&fakeLedger{err: errors.New("db locked")}, Window{Start: time.Now()}, 0, 0)
	if _, err := board.Standings(time.Now(), 5); err == nil {
		t.Fatal("expected ledger error")
	}
}

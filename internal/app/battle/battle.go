package battle

import (
	"fmt"
	"time"

	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
)

const (
	DefaultDuration   = 24 * time.Hour
	DefaultWinners    = 2
	DefaultCreatorCut = 3
)

type Phase string

const (
	PhaseTipping Phase = "tipping"
	PhaseBattle  Phase = "battle"
	PhaseEnded   Phase = "ended"
)

// Window is one battle round. Tips are collected during the Duration before
// Start; the most-tipped posts then compete from Start until End.
type Window struct {
	Start    time.Time
	Duration time.Duration
}

func (w Window) duration() time.Duration {
	if w.Duration <= 0 {
		return DefaultDuration
	}
	return w.Duration
}

func (w Window) TippingStart() time.Time { return w.Start.Add(-w.duration()) }
func (w Window) End() time.Time          { return w.Start.Add(w.duration()) }

func (w Window) Phase(now time.Time) Phase {
	switch {
	case now.Before(w.Start):
		return PhaseTipping
	case now.Before(w.End()):
		return PhaseBattle
	default:
		return PhaseEnded
	}
}

// Remaining is the time until the next phase change, zero once ended.
func (w Window) Remaining(now time.Time) time.Duration {
	switch w.Phase(now) {
	case PhaseTipping:
		return w.Start.Sub(now)
	case PhaseBattle:
		return w.End().Sub(now)
	}
	return 0
}

// FormatCountdown renders d as HH:MM:SS, dropping fractions of a second.
// Negative durations render as zero; hours may exceed 99.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

type Ledger interface {
	Leaderboard(since, until time.Time, limit int) ([]model.LeaderboardEntry, error)
	TopPosts(since, until time.Time, limit int) ([]model.PostRanking, error)
}

type Standings struct {
	Phase     Phase
	Countdown string
	Tippers   []model.LeaderboardEntry
	Winners   []model.LeaderboardEntry
	Creators  []model.PostRanking
}

type Board struct {
	ledger   Ledger
	window   Window
	winners  int
	creators int
	log      *logger.ClassLogger
}

func NewBoard(ledger Ledger, window Window, winners, creators int) *Board {
	if winners <= 0 {
		winners = DefaultWinners
	}
	if creators <= 0 {
		creators = DefaultCreatorCut
	}
	b := &Board{ledger: ledger, window: window, winners: winners, creators: creators}
	b.log = logger.NewLogger(b, nil)
	return b
}

func (b *Board) Window() Window { return b.window }

// Standings ranks tippers and posts over the tipping window as of now.
func (b *Board) Standings(now time.Time, limit int) (Standings, error) {
	scope := "[Standings] Error :"
	if limit < b.winners {
		limit = b.winners
	}

	since := b.window.TippingStart()
	until := b.window.Start
	if now.Before(until) {
		until = now
	}

	tippers, err := b.ledger.Leaderboard(since, until, limit)
	if err != nil {
		return Standings{}, fmt.Errorf("%s failed to load tippers: %w", scope, err)
	}
	creators, err := b.ledger.TopPosts(since, until, b.creators)
	if err != nil {
		return Standings{}, fmt.Errorf("%s failed to load posts: %w", scope, err)
	}

	winners := tippers
	if len(winners) > b.winners {
		winners = winners[:b.winners]
	}

	s := Standings{
		Phase:     b.window.Phase(now),
		Countdown: FormatCountdown(b.window.Remaining(now)),
		Tippers:   tippers,
		Winners:   winners,
		Creators:  creators,
	}
	b.log.JustLog(fmt.Sprintf("Standings at %s: phase=%s tippers=%d posts=%d", now.Format(time.RFC3339), s.Phase, len(tippers), len(creators)))
	return s, nil
}

package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ohmynofan/tipverse/internal/app/tipping"
	"github.com/ohmynofan/tipverse/internal/config"
	"github.com/ohmynofan/tipverse/internal/domain/model"
)

const watchAddress = "0x000000000000000000000000000000000000dEaD"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *recordingNotifier) Notify(note model.Notification) {
	n.mu.Lock()
	n.sent = append(n.sent, note)
	n.mu.Unlock()
}

func portfolioServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tokens":
			_, _ = w.Write([]byte(`[{"symbol":"USDC","address":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","decimals":6,"name":"USD Coin","price":1}]`))
		case "/balances":
			_, _ = w.Write([]byte(`{"balances":[{"balance":"10000000","value":10,"token":{"symbol":"USDC","address":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","decimals":6,"price":1}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *recordingNotifier) {
	t.Helper()
	srv := portfolioServer(t)
	cfg := config.Config{
		PortfolioAPIURL:   srv.URL,
		PortfolioAPIKey:   "key",
		WalletAddress:     watchAddress,
		ChainID:           1,
		RefreshInterval:   time.Minute,
		SettlementMode:    config.SettlementSimulated,
		DBPath:            filepath.Join(t.TempDir(), "tipverse.db"),
		BattleStart:       time.Now().Add(2 * time.Hour),
		BattleDuration:    24 * time.Hour,
		BattleWinnerCount: 2,
	}
	app := New(cfg)
	out := &bytes.Buffer{}
	notifier := &recordingNotifier{}
	app.out = out
	app.notifier = notifier
	return app, out, notifier
}

func TestRunPostTipAndLeaderboard(t *testing.T) {
	app, out, notifier := newTestApp(t)
	ctx := context.Background()

	if err := app.Run(ctx, []string{"post", "-content", "gm tipverse"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	line := strings.TrimSpace(out.String())
	id := strings.TrimPrefix(line, "Post published: ")
	if id == line || id == "" {
		t.Fatalf("unexpected post output %q", line)
	}

	out.Reset()
	if err := app.Run(ctx, []string{"tip", "-post", id, "-amount", "5"}); err != nil {
		t.Fatalf("tip: %v", err)
	}
	if !strings.Contains(out.String(), "Settled 0x") {
		t.Fatalf("tip output:\n%s", out.String())
	}
	if len(notifier.sent) == 0 || !strings.Contains(notifier.sent[len(notifier.sent)-1].Description, "You tipped 5 USDC to @user") {
		t.Fatalf("notifications = %+v", notifier.sent)
	}

	out.Reset()
	if err := app.Run(ctx, []string{"leaderboard"}); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if !strings.Contains(out.String(), strings.ToLower(watchAddress)) {
		t.Fatalf("leaderboard output:\n%s", out.String())
	}

	out.Reset()
	if err := app.Run(ctx, []string{"feed"}); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !strings.Contains(out.String(), "gm tipverse") {
		t.Fatalf("feed output:\n%s", out.String())
	}

	out.Reset()
	if err := app.Run(ctx, []string{"battle"}); err != nil {
		t.Fatalf("battle: %v", err)
	}
	if !strings.Contains(out.String(), "Battle starts in: 01:59:") {
		t.Fatalf("battle output:\n%s", out.String())
	}
}

func TestRunTipRejectsInsufficientBalance(t *testing.T) {
	app, out, _ := newTestApp(t)
	ctx := context.Background()
	if err := app.Run(ctx, []string{"post", "-content", "hello"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	id := strings.TrimPrefix(strings.TrimSpace(out.String()), "Post published: ")

	if err := app.Run(ctx, []string{"tip", "-post", id, "-amount", "15"}); !errors.Is(err, tipping.ErrInsufficientBalance) {
		t.Fatalf("tip = %v, want ErrInsufficientBalance", err)
	}

	app.cfg.WalletAddress = ""
	if err := app.Run(ctx, []string{"tip", "-post", id, "-amount", "1"}); !errors.Is(err, tipping.ErrNoWallet) {
		t.Fatalf("tip = %v, want ErrNoWallet", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	app, out, _ := newTestApp(t)
	if err := app.Run(context.Background(), []string{"dance"}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("Run = %v, want ErrUnknownCommand", err)
	}
	if !strings.Contains(out.String(), "usage: tipverse") {
		t.Fatal("usage not printed")
	}
}

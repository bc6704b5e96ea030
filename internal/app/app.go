package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ohmynofan/tipverse/internal/adapters/chain"
	adhttp "github.com/ohmynofan/tipverse/internal/adapters/http"
	"github.com/ohmynofan/tipverse/internal/adapters/portfolio"
	"github.com/ohmynofan/tipverse/internal/adapters/settlement"
	"github.com/ohmynofan/tipverse/internal/app/tipping"
	"github.com/ohmynofan/tipverse/internal/config"
	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
	"github.com/ohmynofan/tipverse/internal/storage/postdb"
	"github.com/ohmynofan/tipverse/internal/storage/tiplog"
)

var ErrUnknownCommand = errors.New("unknown command")

const usage = `usage: tipverse <command> [flags]

commands:
  post         publish a post (-content, -type, -image, -token)
  feed         list posts (-limit, -mine)
  profile      show the signed-in profile, wallet and XP
  tip          tip a post (-post, -token, -amount, -to)
  watch        open a tip dialog and follow balance refreshes (-post)
  leaderboard  top tippers over the last 24h (-limit)
  battle       tippers' and creator battle standings`

type App struct {
	cfg config.Config
	out io.Writer

	session  *model.Session
	wallet   *model.WalletContext
	posts    *postdb.Store
	tips     *tiplog.Store
	gateway  tipping.Gateway
	settler  tipping.Settler
	notifier tipping.Notifier
	closers  []func()
	log      *logger.ClassLogger
}

func New(cfg config.Config) *App {
	app := &App{cfg: cfg, out: os.Stdout}
	app.log = logger.NewNamed("App", nil)
	return app
}

// Run executes one CLI command and releases every resource it opened.
func (app *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(app.out, usage)
		return nil
	}

	cmd, rest := strings.ToLower(args[0]), args[1:]
	handler, ok := app.commands()[cmd]
	if !ok {
		fmt.Fprintln(app.out, usage)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}

	if err := app.setup(); err != nil {
		return err
	}
	defer app.close()

	app.log.JustLog(fmt.Sprintf("Running %s %v", cmd, rest))
	return handler(ctx, rest)
}

func (app *App) commands() map[string]func(context.Context, []string) error {
	return map[string]func(context.Context, []string) error{
		"post":        app.runPost,
		"feed":        app.runFeed,
		"profile":     app.runProfile,
		"tip":         app.runTip,
		"watch":       app.runWatch,
		"leaderboard": app.runLeaderboard,
		"battle":      app.runBattle,
	}
}

func (app *App) setup() error {
	scope := "[Setup] Error :"

	session, err := app.resolveSession()
	if err != nil {
		return err
	}
	app.session = session

	address := ""
	if session != nil {
		address = session.Address
	}
	app.wallet = model.NewWalletContext(address, app.cfg.ChainID)
	app.log = logger.NewNamed("App", session)

	posts, err := postdb.NewStore(app.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("%s %w", scope, err)
	}
	app.posts = posts
	app.closers = append(app.closers, func() { posts.Close() })

	tips, err := tiplog.NewStore(app.cfg.DBPath)
	if err != nil {
		app.close()
		return fmt.Errorf("%s %w", scope, err)
	}
	app.tips = tips
	app.closers = append(app.closers, func() { tips.Close() })

	if app.gateway == nil {
		api, err := adhttp.NewAPIClient(app.cfg.PortfolioAPIURL, app.cfg.PortfolioAPIKey, app.cfg.ProxyURL, session)
		if err != nil {
			app.close()
			return fmt.Errorf("%s %w", scope, err)
		}
		app.gateway = portfolio.NewOneInch(api, session)
	}

	if app.settler == nil {
		settler, err := app.newSettler(session)
		if err != nil {
			app.close()
			return fmt.Errorf("%s %w", scope, err)
		}
		app.settler = settler
	}

	if app.notifier == nil {
		app.notifier = uiNotifier()
	}
	return nil
}

// resolveSession prefers a signing secret and falls back to a watch-only
// address. With neither the app runs without a wallet.
func (app *App) resolveSession() (*model.Session, error) {
	switch {
	case app.cfg.WalletSecret != "":
		session := &model.Session{Account: app.cfg.WalletSecret, ChainID: app.cfg.ChainID}
		if err := chain.ConnectWallet(session); err != nil {
			return nil, err
		}
		return session, nil
	case app.cfg.WalletAddress != "":
		return chain.WatchOnly(app.cfg.WalletAddress, app.cfg.ChainID)
	}
	return nil, nil
}

func (app *App) network() config.Network {
	network, ok := config.NetworkByChainID(app.cfg.ChainID)
	if !ok {
		network = config.Network{
			Name:     fmt.Sprintf("Chain %d", app.cfg.ChainID),
			ChainID:  app.cfg.ChainID,
			Symbol:   "ETH",
			Decimals: 18,
		}
	}
	if app.cfg.RPCURL != "" {
		network.RPCURL = app.cfg.RPCURL
	}
	return network
}

func (app *App) newSettler(session *model.Session) (tipping.Settler, error) {
	if app.cfg.SettlementMode != config.SettlementOnchain {
		return settlement.NewSimulated(app.cfg.SettlementDelay, session), nil
	}
	client, err := chain.New(session, app.network())
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() {
		client.Close()
		app.settler = nil
	})
	return client, nil
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

func (app *App) profile() *model.Profile {
	if !app.cfg.HasProfile() {
		return nil
	}
	return &model.Profile{
		UID:         app.cfg.ProfileUID,
		DisplayName: app.cfg.ProfileName,
		PhotoURL:    app.cfg.ProfilePhoto,
	}
}

// ledgerRecorder writes settled tips to the tip ledger and bumps the tipped
// post's counter.
type ledgerRecorder struct {
	tips  *tiplog.Store
	posts *postdb.Store
	log   *logger.ClassLogger
}

func (r ledgerRecorder) RecordTip(sub model.TipSubmission, receipt model.TipReceipt) error {
	if err := r.tips.RecordTip(sub, receipt); err != nil {
		return err
	}
	if sub.Content.PostID == "" {
		return nil
	}
	if err := r.posts.AddTip(sub.Content.PostID); err != nil {
		if errors.Is(err, postdb.ErrNotFound) {
			r.log.JustLog(fmt.Sprintf("tipped post %s is not stored locally", sub.Content.PostID))
			return nil
		}
		return err
	}
	return nil
}

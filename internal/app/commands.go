package app

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ohmynofan/tipverse/internal/adapters/chain"
	"github.com/ohmynofan/tipverse/internal/app/battle"
	"github.com/ohmynofan/tipverse/internal/app/tipping"
	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/ui"
	"github.com/ohmynofan/tipverse/internal/storage/postdb"
	"github.com/ohmynofan/tipverse/pkg/utils"
)

const (
	emptyFeedMessage = "No posts yet. Be the first to create content!"
	leaderboardSpan  = 24 * time.Hour
)

func uiNotifier() tipping.Notifier { return ui.Notifier{} }

func (app *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(app.out)
	return fs
}

func (app *App) runPost(_ context.Context, args []string) error {
	fs := app.flags("post")
	content := fs.String("content", "", "post text")
	kind := fs.String("type", "text", "post type: text or image")
	image := fs.String("image", "", "image URL for image posts")
	token := fs.String("token", "USDC", "preferred tip token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*content) == "" && *image == "" {
		return fmt.Errorf("[Post] Error : a post needs -content or -image")
	}

	record := model.NewPostRecord(app.profile(), *content, *kind, *token, *image, time.Now())
	id, err := app.posts.Create(record)
	if err != nil {
		return err
	}
	app.log.JustLog(fmt.Sprintf("Created post %s", id))
	fmt.Fprintf(app.out, "Post published: %s\n", id)
	return nil
}

func (app *App) runFeed(_ context.Context, args []string) error {
	fs := app.flags("feed")
	limit := fs.Int("limit", 20, "number of posts")
	mine := fs.Bool("mine", false, "only posts by the signed-in profile")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profile := app.profile()
	var posts []model.DisplayPost
	if *mine {
		if profile == nil {
			return fmt.Errorf("[Feed] Error : -mine needs PROFILE_UID")
		}
		records, err := app.posts.ListByUser(profile.UID, *limit)
		if err != nil {
			return err
		}
		posts = toDisplayPosts(records, profile)
	} else {
		records, err := app.posts.List(*limit)
		if err != nil {
			return err
		}
		posts = toDisplayPosts(records, profile)
	}

	fmt.Fprintln(app.out, ui.RenderFeed(posts, emptyFeedMessage))
	return nil
}

func (app *App) runProfile(ctx context.Context, _ []string) error {
	data := pterm.TableData{{"Field", "Value"}}

	if profile := app.profile(); profile != nil {
		data = append(data,
			[]string{"Name", profile.DisplayName},
			[]string{"Username", "@" + profile.Username()},
		)
		mine, err := app.posts.ListByUser(profile.UID, 0)
		if err != nil {
			return err
		}
		data = append(data, []string{"Posts", fmt.Sprintf("%d", len(mine))})
	} else {
		data = append(data, []string{"Name", "Not signed in"})
	}

	address, chainID := app.wallet.Identity()
	if address == "" {
		data = append(data, []string{"Wallet", "No wallet connected"})
	} else {
		data = append(data,
			[]string{"Wallet", utils.ShortenAddress(address)},
			[]string{"Network", fmt.Sprintf("%s (%d)", app.network().Name, chainID)},
		)
		xp, tips, err := app.tips.TotalXP(address)
		if err != nil {
			return err
		}
		data = append(data, []string{"XP", fmt.Sprintf("%d XP from %d tips", xp, tips)})

		if client, ok := app.settler.(*chain.EthersClient); ok {
			balance, err := client.NativeBalance(ctx)
			if err != nil {
				app.log.JustLog(err.Error())
			} else {
				data = append(data, []string{"Balance", fmt.Sprintf("%s %s", balance, app.network().Symbol)})
			}
		}
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, out)
	return nil
}

func (app *App) runTip(ctx context.Context, args []string) error {
	fs := app.flags("tip")
	postID := fs.String("post", "", "post ID to tip")
	token := fs.String("token", "", "token symbol; defaults to the highest-value holding")
	amount := fs.String("amount", "", "amount in whole tokens")
	to := fs.String("to", "", "creator wallet address, needed for on-chain settlement")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dialog, err := app.openDialog(ctx, *postID, *to)
	if err != nil {
		return err
	}
	defer dialog.Close()

	if *token != "" {
		if err := dialog.SelectToken(*token); err != nil {
			return err
		}
	}
	if err := dialog.SetAmount(*amount); err != nil {
		return err
	}
	fmt.Fprintln(app.out, ui.RenderTipView(dialog.View()))

	receipt, err := dialog.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Settled %s\n", receipt.TxHash)
	return nil
}

// runWatch keeps a tip dialog open and redraws it after every refresh
// interval until ctx is cancelled.
func (app *App) runWatch(ctx context.Context, args []string) error {
	fs := app.flags("watch")
	postID := fs.String("post", "", "post ID to tip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dialog, err := app.openDialog(ctx, *postID, "")
	if err != nil {
		return err
	}
	defer dialog.Close()
	fmt.Fprintln(app.out, ui.RenderTipView(dialog.View()))

	interval := app.cfg.RefreshInterval
	if interval <= 0 {
		interval = tipping.DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprintln(app.out, ui.RenderTipView(dialog.View()))
		}
	}
}

func (app *App) runLeaderboard(_ context.Context, args []string) error {
	fs := app.flags("leaderboard")
	limit := fs.Int("limit", 10, "number of tippers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := time.Now()
	entries, err := app.tips.Leaderboard(now.Add(-leaderboardSpan), now, *limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, ui.RenderLeaderboard("Top tippers (24h)", entries))
	return nil
}

func (app *App) runBattle(_ context.Context, args []string) error {
	fs := app.flags("battle")
	limit := fs.Int("limit", 10, "number of tippers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	board := battle.NewBoard(app.tips, battle.Window{
		Start:    app.cfg.BattleStart,
		Duration: app.cfg.BattleDuration,
	}, app.cfg.BattleWinnerCount, battle.DefaultCreatorCut)

	standings, err := board.Standings(time.Now(), *limit)
	if err != nil {
		return err
	}

	switch standings.Phase {
	case battle.PhaseTipping:
		fmt.Fprintf(app.out, "Battle starts in: %s\n", standings.Countdown)
	case battle.PhaseBattle:
		fmt.Fprintf(app.out, "Creator battle ends in: %s\n", standings.Countdown)
	default:
		fmt.Fprintln(app.out, "Battle ended")
	}
	fmt.Fprintln(app.out, ui.RenderLeaderboard("Tippers' Battle", standings.Tippers))
	fmt.Fprintln(app.out, ui.RenderLeaderboard(fmt.Sprintf("Top %d prize winners", len(standings.Winners)), standings.Winners))
	fmt.Fprintln(app.out, ui.RenderPostRanking("Creator Battle", standings.Creators))
	return nil
}

func (app *App) openDialog(ctx context.Context, postID, creatorWallet string) (*tipping.Dialog, error) {
	scope := "[OpenDialog] Error :"
	if postID == "" {
		return nil, fmt.Errorf("%s -post is required", scope)
	}
	if !app.wallet.Connected() {
		return nil, fmt.Errorf("%s %w (set WALLET_SECRET or WALLET_ADDRESS)", scope, tipping.ErrNoWallet)
	}

	record, err := app.posts.Get(postID)
	if err != nil {
		return nil, fmt.Errorf("%s %w", scope, err)
	}
	post := model.DisplayPostFromRecord(record.ID, record.Data, app.profile())

	dialog := tipping.NewDialog(app.wallet, tipping.Options{
		Gateway:  app.gateway,
		Settler:  app.settler,
		Notifier: app.notifier,
		Recorder: ledgerRecorder{tips: app.tips, posts: app.posts, log: app.log},
		Interval: app.cfg.RefreshInterval,
		Session:  app.session,
	})

	recipient := post.Recipient()
	recipient.WalletAddress = creatorWallet
	if err := dialog.Open(ctx, recipient, post.ContentRef()); err != nil {
		return nil, err
	}
	return dialog, nil
}

func toDisplayPosts(records []postdb.Record, profile *model.Profile) []model.DisplayPost {
	out := make([]model.DisplayPost, 0, len(records))
	for _, r := range records {
		out = append(out, model.DisplayPostFromRecord(r.ID, r.Data, profile))
	}
	return out
}

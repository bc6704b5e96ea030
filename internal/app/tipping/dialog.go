package tipping

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
	"github.com/ohmynofan/tipverse/pkg/utils"
)

var (
	ErrNoWallet            = errors.New("no wallet connected")
	ErrNotReady            = errors.New("tip dialog is not ready")
	ErrInvalidAmount       = errors.New("enter a valid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownToken        = errors.New("unknown token")
	ErrClosed              = errors.New("tip dialog closed")
)

type Gateway interface {
	Tokens(ctx context.Context, chainID int) ([]model.Token, error)
	Balances(ctx context.Context, walletAddress string, chainID int) ([]model.Balance, error)
}

type Settler interface {
	Settle(ctx context.Context, sub model.TipSubmission) (model.TipReceipt, error)
}

type Notifier interface {
	Notify(n model.Notification)
}

type TipRecorder interface {
	RecordTip(sub model.TipSubmission, receipt model.TipReceipt) error
}

type Options struct {
	Gateway   Gateway
	Settler   Settler
	Notifier  Notifier
	Recorder  TipRecorder
	Interval  time.Duration
	NewTicker TickerFunc
	Session   *model.Session
}

// Dialog is one tip session against the shared wallet context.
//
// Fetches started under an older gen are dropped. seq orders fetches within
// a generation so a slow response never overwrites a newer one.
type Dialog struct {
	gateway   Gateway
	settler   Settler
	notifier  Notifier
	recorder  TipRecorder
	wallet    *model.WalletContext
	interval  time.Duration
	newTicker TickerFunc
	log       *logger.ClassLogger

	mu          sync.Mutex
	state       model.DialogState
	recipient   model.Recipient
	content     model.ContentRef
	tokens      []model.Token
	balanceList []model.Balance
	balances    model.Balances
	selection   model.Selection
	refreshing  int

	session uint64
	gen     uint64
	seq     uint64
	applied uint64

	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	refresher     *Refresher
	unsubscribe   func()
}

func NewDialog(wallet *model.WalletContext, opts Options) *Dialog {
	d := &Dialog{
		gateway:   opts.Gateway,
		settler:   opts.Settler,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		wallet:    wallet,
		interval:  opts.Interval,
		newTicker: opts.NewTicker,
		state:     model.DialogClosed,
		balances:  model.Balances{},
	}
	d.log = logger.NewLogger(d, opts.Session)
	return d
}

func (d *Dialog) State() model.DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Open starts a session for recipient. Without a connected wallet it does
// nothing. The call blocks for the initial token and balance fetch and then
// starts the background refresh loop.
func (d *Dialog) Open(ctx context.Context, recipient model.Recipient, content model.ContentRef) error {
	if !d.wallet.Connected() {
		d.log.JustLog("Open ignored, no wallet connected")
		return nil
	}

	d.mu.Lock()
	if d.state != model.DialogClosed {
		d.mu.Unlock()
		return nil
	}
	d.session++
	d.gen++
	gen := d.gen
	d.state = model.DialogLoading
	d.recipient = recipient
	d.content = content
	d.selection = model.Selection{}
	d.clearDataLocked()
	d.sessionCtx, d.sessionCancel = context.WithCancel(context.Background())
	d.unsubscribe = d.wallet.Subscribe(d.onWalletChange)
	d.mu.Unlock()

	d.log.Log(fmt.Sprintf("Opening tip dialog for @%s", recipient.Username))
	d.startSession(ctx, gen)
	return nil
}

// Close ends the session from any state. Pending fetches and settlements
// finish without touching dialog state.
func (d *Dialog) Close() {
	d.mu.Lock()
	if d.state == model.DialogClosed {
		d.mu.Unlock()
		return
	}
	d.state = model.DialogClosed
	d.session++
	d.gen++
	d.selection = model.Selection{}
	d.recipient = model.Recipient{}
	d.content = model.ContentRef{}
	d.clearDataLocked()
	d.refreshing = 0

	refresher, unsubscribe, cancel := d.refresher, d.unsubscribe, d.sessionCancel
	d.refresher, d.unsubscribe, d.sessionCancel = nil, nil, nil
	d.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	if refresher != nil {
		refresher.Stop()
	}
	d.log.JustLog("Tip dialog closed")
}

func (d *Dialog) SelectToken(symbol string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != model.DialogLoading && d.state != model.DialogReady {
		return ErrNotReady
	}
	if symbol != "" {
		if _, ok := FindToken(d.tokens, symbol); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
		}
	}
	d.selection.TokenSymbol = symbol
	return nil
}

func (d *Dialog) SetAmount(amount string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != model.DialogLoading && d.state != model.DialogReady {
		return ErrNotReady
	}
	if !ValidAmountInput(amount) {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	d.selection.Amount = amount
	return nil
}

// Refresh reloads tokens and balances on the background path. Selection and
// amount are left alone and failures keep the previous data.
func (d *Dialog) Refresh(ctx context.Context) error {
	d.mu.Lock()
	if d.state == model.DialogClosed {
		d.mu.Unlock()
		return ErrNotReady
	}
	gen := d.gen
	d.mu.Unlock()
	return d.backgroundRefresh(ctx, gen)
}

// Submit validates the selection and hands the tip to the settler.
func (d *Dialog) Submit(ctx context.Context) (model.TipReceipt, error) {
	scope := "[Submit] Error :"

	d.mu.Lock()
	if d.state != model.DialogReady {
		d.mu.Unlock()
		return model.TipReceipt{}, ErrNotReady
	}

	token, hasToken := FindToken(d.tokens, d.selection.TokenSymbol)
	var tokenRef *model.Token
	if hasToken {
		tokenRef = &token
	}
	available := AvailableBalance(tokenRef, d.balances)
	amount := ParseAmount(d.selection.Amount)
	insufficient := IsInsufficient(d.selection.Amount, available)

	if !hasToken || !amount.IsPositive() || insufficient {
		d.mu.Unlock()
		description := "Enter a valid amount"
		err := ErrInvalidAmount
		if insufficient {
			description = "Insufficient balance"
			err = ErrInsufficientBalance
		}
		d.notify(model.Notification{Title: "Invalid amount", Description: description, Variant: model.NotifyDestructive})
		return model.TipReceipt{}, err
	}

	from, chainID := d.wallet.Identity()
	bonus := EarlyBonusMultiplier(d.content.TimeRemaining)
	id, err := utils.GenerateRandomHex(8)
	if err != nil {
		d.mu.Unlock()
		return model.TipReceipt{}, fmt.Errorf("%s failed to generate submission id: %w", scope, err)
	}
	sub := model.TipSubmission{
		ID:          id,
		From:        from,
		ChainID:     chainID,
		Amount:      d.selection.Amount,
		Token:       token,
		Recipient:   d.recipient,
		Content:     d.content,
		EarlyBonus:  bonus.InexactFloat64(),
		ProjectedXP: ProjectedXP(amount, bonus),
	}
	session := d.session
	d.state = model.DialogSubmitting
	d.mu.Unlock()

	d.log.Log(fmt.Sprintf("Sending %s %s to @%s", sub.Amount, token.Symbol, sub.Recipient.Username))
	receipt, err := d.settler.Settle(ctx, sub)
	if err == nil {
		receipt.SubmissionID = sub.ID
		receipt.XP = sub.ProjectedXP
		d.record(sub, receipt)
	}

	d.mu.Lock()
	if d.session != session {
		d.mu.Unlock()
		if err != nil {
			return model.TipReceipt{}, fmt.Errorf("%s settlement failed: %w", scope, err)
		}
		return receipt, nil
	}
	if err != nil {
		d.state = model.DialogReady
		d.mu.Unlock()
		d.log.Log(fmt.Sprintf("Tip failed: %v", err))
		d.notify(model.Notification{Title: "Tip failed", Description: err.Error(), Variant: model.NotifyDestructive})
		return model.TipReceipt{}, fmt.Errorf("%s settlement failed: %w", scope, err)
	}
	d.mu.Unlock()

	d.Close()
	d.log.Log(fmt.Sprintf("Tip settled %s", receipt.TxHash))
	d.notify(model.Notification{
		Title: "Tip sent successfully! 🎉",
		Description: fmt.Sprintf("You tipped %s %s to @%s and earned %d XP!",
			sub.Amount, token.Symbol, sub.Recipient.Username, sub.ProjectedXP),
		Variant: model.NotifyDefault,
	})
	return receipt, nil
}

func (d *Dialog) View() model.TipView {
	d.mu.Lock()
	defer d.mu.Unlock()

	view := model.TipView{
		State:         d.state,
		Recipient:     d.recipient,
		Content:       d.content,
		SelectedToken: d.selection.TokenSymbol,
		Amount:        d.selection.Amount,
		Refreshing:    d.refreshing > 0,
		QuickAmounts:  QuickAmounts,
	}

	for _, t := range d.tokens {
		t := t
		view.Tokens = append(view.Tokens, model.TokenOption{
			Symbol:  t.Symbol,
			Name:    t.Name,
			LogoURI: t.LogoURI,
			Balance: FormatBalance(AvailableBalance(&t, d.balances)),
		})
	}

	var tokenRef *model.Token
	if token, ok := FindToken(d.tokens, d.selection.TokenSymbol); ok {
		tokenRef = &token
	}
	available := AvailableBalance(tokenRef, d.balances)
	amount := ParseAmount(d.selection.Amount)
	bonus := EarlyBonusMultiplier(d.content.TimeRemaining)

	view.AvailableBalance = FormatBalance(available)
	view.USDValue = USDValue(d.selection.Amount, tokenRef)
	view.EarlyBonus = bonus.InexactFloat64()
	view.BonusPercent = BonusPercent(bonus)
	view.ProjectedXP = ProjectedXP(amount, bonus)
	view.Insufficient = IsInsufficient(d.selection.Amount, available)
	view.CanSubmit = d.state == model.DialogReady && tokenRef != nil && amount.IsPositive() && !view.Insufficient
	return view
}

func (d *Dialog) startSession(ctx context.Context, gen uint64) {
	_ = d.load(ctx, gen, true)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return
	}
	if d.state == model.DialogLoading {
		d.state = model.DialogReady
		if symbol, ok := AutoSelectToken(d.selection.TokenSymbol, d.tokens, d.balanceList); ok {
			d.selection.TokenSymbol = symbol
		}
	}
	d.refresher = NewRefresher(d.interval, d.newTicker, func(tickCtx context.Context) {
		_ = d.backgroundRefresh(tickCtx, gen)
	})
	d.refresher.Start(d.sessionCtx)
}

func (d *Dialog) backgroundRefresh(ctx context.Context, gen uint64) error {
	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return ErrClosed
	}
	d.refreshing++
	d.mu.Unlock()

	err := d.load(ctx, gen, false)

	d.mu.Lock()
	if d.gen == gen && d.refreshing > 0 {
		d.refreshing--
	}
	d.mu.Unlock()
	return err
}

// load fetches tokens and balances for the current wallet and applies them if
// gen is still current and nothing newer has landed in the meantime. The
// initial load clears the lists and notifies the user on failure.
func (d *Dialog) load(ctx context.Context, gen uint64, initial bool) error {
	address, chainID := d.wallet.Identity()
	if address == "" {
		return nil
	}

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return ErrClosed
	}
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	tokens, balances, err := d.fetch(ctx, address, chainID)

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if initial {
			d.clearDataLocked()
		}
		d.mu.Unlock()
		d.log.JustLog(fmt.Sprintf("Failed to fetch data: %v", err))
		if initial {
			d.notify(model.Notification{
				Title:       "Error",
				Description: "Failed to fetch token list or balances.",
				Variant:     model.NotifyDestructive,
			})
		}
		return err
	}
	if seq <= d.applied {
		d.mu.Unlock()
		d.log.JustLog(fmt.Sprintf("Dropping stale response #%d", seq))
		return nil
	}
	d.applied = seq
	d.tokens = tokens
	d.balanceList = balances
	d.balances = model.NewBalances(balances)
	d.mu.Unlock()
	return nil
}

func (d *Dialog) fetch(ctx context.Context, address string, chainID int) ([]model.Token, []model.Balance, error) {
	var (
		tokens   []model.Token
		balances []model.Balance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tokens, err = d.gateway.Tokens(gctx, chainID)
		return err
	})
	g.Go(func() error {
		var err error
		balances, err = d.gateway.Balances(gctx, address, chainID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tokens, balances, nil
}

// onWalletChange stops the running loop and, for a still-connected wallet,
// reloads from scratch and starts a fresh loop.
func (d *Dialog) onWalletChange(address string, chainID int) {
	d.mu.Lock()
	if d.state == model.DialogClosed {
		d.mu.Unlock()
		return
	}
	d.gen++
	gen := d.gen
	d.refreshing = 0
	refresher := d.refresher
	d.refresher = nil
	reload := address != ""
	if reload {
		d.clearDataLocked()
		if d.state == model.DialogReady {
			d.state = model.DialogLoading
		}
	} else if d.state == model.DialogLoading {
		// the pending load will be discarded, nothing else would leave loading
		d.state = model.DialogReady
	}
	d.mu.Unlock()

	if refresher != nil {
		refresher.Stop()
	}
	d.log.JustLog(fmt.Sprintf("Wallet changed to %s on chain %d", utils.ShortenAddress(address), chainID))
	if reload {
		go d.startSession(context.Background(), gen)
	}
}

func (d *Dialog) clearDataLocked() {
	d.tokens = nil
	d.balanceList = nil
	d.balances = model.Balances{}
}

func (d *Dialog) notify(n model.Notification) {
	if d.notifier != nil {
		d.notifier.Notify(n)
	}
}

func (d *Dialog) record(sub model.TipSubmission, receipt model.TipReceipt) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordTip(sub, receipt); err != nil {
		d.log.JustLog(fmt.Sprintf("Failed to record tip %s: %v", sub.ID, err))
	}
}

package model

import "time"

type DialogState string

const (
	DialogClosed     DialogState = "closed"
	DialogLoading    DialogState = "loading"
	DialogReady      DialogState = "ready"
	DialogSubmitting DialogState = "submitting"
)

type Recipient struct {
	Username      string
	Name          string
	WalletAddress string
}

// ContentRef points at the tipped post. TimeRemaining is the raw label shown
// on the card, e.g. "18h left".
type ContentRef struct {
	PostID        string
	Text          string
	TimeRemaining string
}

type Selection struct {
	TokenSymbol string
	Amount      string
}

type TipSubmission struct {
	ID          string
	From        string
	ChainID     int
	Amount      string
	Token       Token
	Recipient   Recipient
	Content     ContentRef
	EarlyBonus  float64
	ProjectedXP int64
}

type TipReceipt struct {
	SubmissionID string
	TxHash       string
	SettledAt    time.Time
	XP           int64
}

type NotificationVariant string

const (
	NotifyDefault     NotificationVariant = "default"
	NotifyDestructive NotificationVariant = "destructive"
)

type Notification struct {
	Title       string
	Description string
	Variant     NotificationVariant
}

type TokenOption struct {
	Symbol  string
	Name    string
	LogoURI string
	Balance string
}

// TipView is a render snapshot of an open tip dialog.
type TipView struct {
	State            DialogState
	Recipient        Recipient
	Content          ContentRef
	Tokens           []TokenOption
	SelectedToken    string
	Amount           string
	AvailableBalance string
	USDValue         string
	EarlyBonus       float64
	BonusPercent     string
	ProjectedXP      int64
	Insufficient     bool
	Refreshing       bool
	CanSubmit        bool
	QuickAmounts     []string
}

type LeaderboardEntry struct {
	Rank    int
	Address string
	XP      int64
	Tips    int
}

type PostRanking struct {
	Rank      int
	PostID    string
	Recipient string
	Tips      int
	XP        int64
}

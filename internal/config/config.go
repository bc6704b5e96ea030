package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SettlementSimulated = "simulated"
	SettlementOnchain   = "onchain"

	DefaultPortfolioAPIURL = "https://api.1inch.dev/portfolio/v4"
)

type Config struct {
	PortfolioAPIURL   string
	PortfolioAPIKey   string
	ProxyURL          string
	WalletSecret      string
	WalletAddress     string
	ChainID           int
	RPCURL            string
	RefreshInterval   time.Duration
	SettlementMode    string
	SettlementDelay   time.Duration
	DBPath            string
	LogPath           string
	ProfileUID        string
	ProfileName       string
	ProfilePhoto      string
	BattleStart       time.Time
	BattleDuration    time.Duration
	BattleWinnerCount int
}

func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using default values")
	}

	apiURL := strings.TrimRight(strings.TrimSpace(os.Getenv("ONEINCH_API_URL")), "/")
	if apiURL == "" {
		apiURL = DefaultPortfolioAPIURL
	}

	mode := strings.ToLower(strings.TrimSpace(os.Getenv("SETTLEMENT_MODE")))
	if mode == "" {
		mode = SettlementSimulated
	}

	dbPath := strings.TrimSpace(os.Getenv("DB_PATH"))
	if dbPath == "" {
		dbPath = "data/tipverse.db"
	}

	chainID := parseIntWithDefault(os.Getenv("CHAIN_ID"), 1)
	if chainID == 0 {
		chainID = 1
	}

	refresh := parseIntWithDefault(os.Getenv("REFRESH_INTERVAL_SECONDS"), 30)
	if refresh == 0 {
		refresh = 30
	}

	rpcURL := strings.TrimSpace(os.Getenv("RPC_URL"))
	if rpcURL == "" {
		if network, ok := NetworkByChainID(chainID); ok {
			rpcURL = network.RPCURL
		}
	}

	return Config{
		PortfolioAPIURL:   apiURL,
		PortfolioAPIKey:   strings.TrimSpace(os.Getenv("ONEINCH_API_KEY")),
		ProxyURL:          strings.TrimSpace(os.Getenv("PROXY_URL")),
		WalletSecret:      strings.TrimSpace(os.Getenv("WALLET_SECRET")),
		WalletAddress:     strings.TrimSpace(os.Getenv("WALLET_ADDRESS")),
		ChainID:           chainID,
		RPCURL:            rpcURL,
		RefreshInterval:   time.Duration(refresh) * time.Second,
		SettlementMode:    mode,
		SettlementDelay:   time.Duration(parseIntWithDefault(os.Getenv("SETTLEMENT_DELAY_MS"), 2000)) * time.Millisecond,
		DBPath:            dbPath,
		LogPath:           "logs/app.log",
		ProfileUID:        strings.TrimSpace(os.Getenv("PROFILE_UID")),
		ProfileName:       strings.TrimSpace(os.Getenv("PROFILE_NAME")),
		ProfilePhoto:      strings.TrimSpace(os.Getenv("PROFILE_PHOTO")),
		BattleStart:       parseTimeWithDefault(os.Getenv("BATTLE_START"), time.Now().Add(2*time.Hour)),
		BattleDuration:    time.Duration(parseIntWithDefault(os.Getenv("BATTLE_DURATION_HOURS"), 24)) * time.Hour,
		BattleWinnerCount: parseIntWithDefault(os.Getenv("BATTLE_WINNERS"), 2),
	}
}

func parseIntWithDefault(value string, defaultVal int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(value); err == nil && v >= 0 {
		return v
	}
	return defaultVal
}

func parseTimeWithDefault(value string, defaultVal time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultVal
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return defaultVal
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.PortfolioAPIKey) == "" {
		return errors.New("portfolio API key required (provide ONEINCH_API_KEY)")
	}
	if c.ProxyURL != "" {
		if u, err := url.Parse(c.ProxyURL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid PROXY_URL %q (use scheme://[user:pass@]host:port)", c.ProxyURL)
		}
	}
	switch c.SettlementMode {
	case SettlementSimulated:
	case SettlementOnchain:
		if c.WalletSecret == "" {
			return errors.New("on-chain settlement requires WALLET_SECRET (private key or secret phrase)")
		}
		if c.RPCURL == "" {
			return fmt.Errorf("no RPC endpoint known for chain %d (provide RPC_URL)", c.ChainID)
		}
	default:
		return fmt.Errorf("unknown SETTLEMENT_MODE %q (use %s or %s)", c.SettlementMode, SettlementSimulated, SettlementOnchain)
	}
	return nil
}

// HasProfile reports whether a signed-in feed identity is configured.
func (c Config) HasProfile() bool {
	return c.ProfileUID != ""
}

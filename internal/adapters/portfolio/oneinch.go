package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	adhttp "github.com/ohmynofan/tipverse/internal/adapters/http"
	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
)

// OneInch reads the token list and wallet balances from the 1inch portfolio
// API. Both calls return an error on failure; callers decide whether to show
// it or keep stale data.
type OneInch struct {
	api *adhttp.APIClient
	log *logger.ClassLogger
}

type tokensQuery struct {
	ChainID int `url:"chain_id"`
}

type balancesQuery struct {
	ChainID int    `url:"chain_id"`
	Address string `url:"address"`
}

type balancesResponse struct {
	Balances []model.Balance `json:"balances"`
}

func NewOneInch(api *adhttp.APIClient, session *model.Session) *OneInch {
	o := &OneInch{api: api}
	o.log = logger.NewLogger(o, session)
	return o
}

func (o *OneInch) Tokens(ctx context.Context, chainID int) ([]model.Token, error) {
	scope := "[Tokens] Error :"

	var tokens []model.Token
	if err := o.api.FetchJSON(ctx, "/tokens", &adhttp.FetchOptions{Query: tokensQuery{ChainID: chainID}}, &tokens); err != nil {
		return nil, fmt.Errorf("%s failed to fetch token list for chain %d: %w", scope, chainID, err)
	}

	out := make([]model.Token, 0, len(tokens))
	for _, t := range tokens {
		if !validTokenAddress(t.Address) || strings.TrimSpace(t.Symbol) == "" {
			o.log.JustLog(fmt.Sprintf("skipping malformed token entry %q (%s)", t.Symbol, t.Address))
			continue
		}
		t.Address = model.NormalizeAddress(t.Address)
		out = append(out, t)
	}
	o.log.JustLog(fmt.Sprintf("fetched %d tokens for chain %d", len(out), chainID))
	return out, nil
}

func (o *OneInch) Balances(ctx context.Context, walletAddress string, chainID int) ([]model.Balance, error) {
	scope := "[Balances] Error :"
	if !common.IsHexAddress(walletAddress) {
		return nil, fmt.Errorf("%s invalid wallet address %q", scope, walletAddress)
	}

	var resp balancesResponse
	query := balancesQuery{ChainID: chainID, Address: common.HexToAddress(walletAddress).Hex()}
	if err := o.api.FetchJSON(ctx, "/balances", &adhttp.FetchOptions{Query: query}, &resp); err != nil {
		return nil, fmt.Errorf("%s failed to fetch balances for %s: %w", scope, walletAddress, err)
	}

	out := make([]model.Balance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		if !validTokenAddress(b.Token.Address) {
			continue
		}
		b.Token.Address = model.NormalizeAddress(b.Token.Address)
		if strings.TrimSpace(b.Raw) == "" {
			b.Raw = "0"
		}
		out = append(out, b)
	}
	o.log.JustLog(fmt.Sprintf("fetched %d balances for %s on chain %d", len(out), walletAddress, chainID))
	return out, nil
}

func validTokenAddress(address string) bool {
	return common.IsHexAddress(strings.TrimSpace(address))
}

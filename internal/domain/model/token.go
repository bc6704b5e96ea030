package model

import "strings"

// NativeTokenAddress is the placeholder address the portfolio API uses for a
// chain's gas token.
const NativeTokenAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

type Token struct {
	Symbol   string  `json:"symbol"`
	Address  string  `json:"address"`
	Decimals int     `json:"decimals"`
	LogoURI  string  `json:"logoURI"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
}

func (t Token) IsNative() bool {
	return NormalizeAddress(t.Address) == NativeTokenAddress
}

// Balance is one holding of the wallet. Raw is the integer amount in the
// token's smallest unit.
type Balance struct {
	Raw   string  `json:"balance"`
	Value float64 `json:"value"`
	Token Token   `json:"token"`
}

// Balances maps a normalized token address to the wallet's holding.
type Balances map[string]Balance

func NewBalances(list []Balance) Balances {
	out := make(Balances, len(list))
	for _, b := range list {
		out[NormalizeAddress(b.Token.Address)] = b
	}
	return out
}

func (b Balances) Lookup(address string) (Balance, bool) {
	entry, ok := b[NormalizeAddress(address)]
	return entry, ok
}

func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

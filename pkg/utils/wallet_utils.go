package utils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	bip32 "github.com/tyler-smith/go-bip32"
	bip39 "github.com/tyler-smith/go-bip39"
)

var pkRegex = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

func ShortenAddress(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

func DetermineType(input string) string {
	if IsMnemonic(input) {
		return "Secret Phrase"
	}
	if IsPrivateKey(input) {
		return "Private Key"
	}
	return "Unknown"
}
func IsMnemonic(input string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(input))
}
func IsPrivateKey(input string) bool {
	data := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return pkRegex.MatchString(data)
}
func PrivateKeyFromHex(input string) (*ecdsa.PrivateKey, error) {
	data := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return crypto.HexToECDSA(data)
}

// AddressFromMnemonic derives the first account on m/44'/60'/0'/0/0.
func AddressFromMnemonic(mnemonic, passphrase string) (common.Address, *ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return common.Address{}, nil, errors.New("invalid BIP-39 mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return common.Address{}, nil, err
	}
	h := func(i uint32) uint32 { return i + bip32.FirstHardenedChild }
	purpose, err := master.NewChildKey(h(44))
	if err != nil {
		return common.Address{}, nil, err
	}
	coin, err := purpose.NewChildKey(h(60))
	if err != nil {
		return common.Address{}, nil, err
	}
	acct, err := coin.NewChildKey(h(0))
	if err != nil {
		return common.Address{}, nil, err
	}
	change, err := acct.NewChildKey(0)
	if err != nil {
		return common.Address{}, nil, err
	}
	index0, err := change.NewChildKey(0)
	if err != nil {
		return common.Address{}, nil, err
	}
	pk, err := crypto.ToECDSA(index0.Key)
	if err != nil {
		return common.Address{}, nil, err
	}
	return crypto.PubkeyToAddress(pk.PublicKey), pk, nil
}

func pow10(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// ParseUnits converts a non-negative decimal string into base units,
// truncating digits beyond the token's precision.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if decimals < 0 {
		decimals = 0
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}
	value := new(big.Float).SetPrec(256).SetInt(amount)
	divisor := new(big.Float).SetPrec(256).SetInt(pow10(decimals))
	result := new(big.Float).SetPrec(256).Quo(value, divisor)

	return result.Text('f', -1)
}

package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ohmynofan/tipverse/internal/config"
	"github.com/ohmynofan/tipverse/internal/domain/model"
)

const (
	testKey       = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testKeyAddr   = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	testMnemonic  = "test test test test test test test test test test test junk"
	mnemonicAddr  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	recipientAddr = "0x00000000000000000000000000000000000000aa"
)

func TestConnectWallet(t *testing.T) {
	cases := []struct {
		name    string
		account string
		want    string
	}{
		{"private key", testKey, testKeyAddr},
		{"private key without prefix", testKey[2:], testKeyAddr},
		{"secret phrase", testMnemonic, mnemonicAddr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := &model.Session{Account: tc.account}
			if err := ConnectWallet(session); err != nil {
				t.Fatalf("ConnectWallet: %v", err)
			}
			if session.Address != tc.want {
				t.Fatalf("address = %s, want %s", session.Address, tc.want)
			}
			if !session.CanSign() {
				t.Fatal("session should be able to sign")
			}
		})
	}

	bad := &model.Session{Account: "not a key"}
	if err := ConnectWallet(bad); err == nil {
		t.Fatal("expected error for garbage input")
	}
	if bad.Address != "" {
		t.Fatal("address must stay empty on failure")
	}
}

func TestWatchOnly(t *testing.T) {
	session, err := WatchOnly("0x2c7536e3605d9c16a7a3d7b1898e529396a65c23", 137)
	if err != nil {
		t.Fatalf("WatchOnly: %v", err)
	}
	if session.Address != testKeyAddr || session.CanSign() || session.ChainID != 137 {
		t.Fatalf("unexpected session %+v", session)
	}
	if _, err := WatchOnly("0x123", 1); err == nil {
		t.Fatal("expected error for short address")
	}
}

func TestEncodeTransfer(t *testing.T) {
	data := EncodeTransfer(common.HexToAddress(recipientAddr), big.NewInt(1_000_000))
	if len(data) != 68 {
		t.Fatalf("calldata length = %d", len(data))
	}
	if got := hex.EncodeToString(data[:4]); got != "a9059cbb" {
		t.Fatalf("selector = %s", got)
	}
	if data[35] != 0xaa {
		t.Fatalf("recipient not right-aligned: %x", data[4:36])
	}
	if new(big.Int).SetBytes(data[36:]).Int64() != 1_000_000 {
		t.Fatalf("amount word = %x", data[36:])
	}
}

type fakeBackend struct {
	mu       sync.Mutex
	sent     []*types.Transaction
	status   uint64
	gas      uint64
	pending  int
	receipts int
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }
func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error)              { return big.NewInt(1_000_000_000), nil }
func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error)  { return f.gas, nil }

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts++
	if f.receipts <= f.pending {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: f.status}, nil
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(1_500_000_000_000_000_000), nil
}

func newTestClient(t *testing.T, backend *fakeBackend) *EthersClient {
	t.Helper()
	session := &model.Session{Account: testKey}
	if err := ConnectWallet(session); err != nil {
		t.Fatalf("ConnectWallet: %v", err)
	}
	network, _ := config.NetworkByChainID(137)
	return NewWithBackend(session, network, backend)
}

func tipTo(token model.Token, amount string) model.TipSubmission {
	return model.TipSubmission{
		ID:          "sub-1",
		Amount:      amount,
		Token:       token,
		Recipient:   model.Recipient{Username: "alice", WalletAddress: recipientAddr},
		ProjectedXP: 12,
	}
}

func TestSettleNativeTransfer(t *testing.T) {
	backend := &fakeBackend{status: types.ReceiptStatusSuccessful}
	client := newTestClient(t, backend)
	native := model.Token{Symbol: "POL", Address: model.NativeTokenAddress, Decimals: 18}

	receipt, err := client.Settle(context.Background(), tipTo(native, "0.5"))
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("sent %d transactions", len(backend.sent))
	}
	tx := backend.sent[0]
	if *tx.To() != common.HexToAddress(recipientAddr) || tx.Gas() != nativeTransferGas || tx.Nonce() != 7 {
		t.Fatalf("unexpected tx to=%s gas=%d nonce=%d", tx.To().Hex(), tx.Gas(), tx.Nonce())
	}
	if tx.Value().String() != "500000000000000000" {
		t.Fatalf("value = %s", tx.Value())
	}
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(137)), tx)
	if err != nil || sender.Hex() != testKeyAddr {
		t.Fatalf("sender = %s, %v", sender.Hex(), err)
	}
	if receipt.TxHash != tx.Hash().Hex() || receipt.XP != 12 || receipt.SubmissionID != "sub-1" {
		t.Fatalf("receipt = %+v", receipt)
	}
}

func TestSettleERC20Transfer(t *testing.T) {
	backend := &fakeBackend{status: types.ReceiptStatusSuccessful, gas: 52000}
	client := newTestClient(t, backend)
	usdc := model.Token{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6}

	if _, err := client.Settle(context.Background(), tipTo(usdc, "2.5")); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	tx := backend.sent[0]
	if *tx.To() != common.HexToAddress(usdc.Address) || tx.Value().Sign() != 0 || tx.Gas() != 52000 {
		t.Fatalf("unexpected tx to=%s value=%s gas=%d", tx.To().Hex(), tx.Value(), tx.Gas())
	}
	want := EncodeTransfer(common.HexToAddress(recipientAddr), big.NewInt(2_500_000))
	if hex.EncodeToString(tx.Data()) != hex.EncodeToString(want) {
		t.Fatalf("calldata = %x", tx.Data())
	}
}

func TestSettleFailures(t *testing.T) {
	usdc := model.Token{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6}

	reverted := newTestClient(t, &fakeBackend{status: types.ReceiptStatusFailed, gas: 52000})
	if _, err := reverted.Settle(context.Background(), tipTo(usdc, "1")); !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("Settle = %v, want ErrTransactionFailed", err)
	}

	client := newTestClient(t, &fakeBackend{status: types.ReceiptStatusSuccessful})
	sub := tipTo(usdc, "1")
	sub.Recipient.WalletAddress = ""
	if _, err := client.Settle(context.Background(), sub); !errors.Is(err, ErrNoRecipientWallet) {
		t.Fatalf("Settle = %v, want ErrNoRecipientWallet", err)
	}

	watch, _ := WatchOnly(testKeyAddr, 137)
	network, _ := config.NetworkByChainID(137)
	readOnly := NewWithBackend(watch, network, &fakeBackend{})
	if _, err := readOnly.Settle(context.Background(), tipTo(usdc, "1")); !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("Settle = %v, want ErrWalletNotConnected", err)
	}
}

func TestSettleWaitsForReceipt(t *testing.T) {
	backend := &fakeBackend{status: types.ReceiptStatusSuccessful, pending: 1}
	client := newTestClient(t, backend)
	native := model.Token{Symbol: "POL", Address: model.NativeTokenAddress, Decimals: 18}

	if _, err := client.Settle(context.Background(), tipTo(native, "0.5")); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.receipts != 2 {
		t.Fatalf("receipt lookups = %d, want 2", backend.receipts)
	}
}

func TestSettleStopsWaitingOnCancel(t *testing.T) {
	backend := &fakeBackend{status: types.ReceiptStatusSuccessful, pending: 1 << 30}
	client := newTestClient(t, backend)
	native := model.Token{Symbol: "POL", Address: model.NativeTokenAddress, Decimals: 18}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Settle(ctx, tipTo(native, "0.5")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Settle = %v, want deadline exceeded", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("sent %d transactions", len(backend.sent))
	}
}

func TestNativeBalance(t *testing.T) {
	client := newTestClient(t, &fakeBackend{})
	got, err := client.NativeBalance(context.Background())
	if err != nil {
		t.Fatalf("NativeBalance: %v", err)
	}
	if got != "1.5" {
		t.Fatalf("balance = %s", got)
	}
}

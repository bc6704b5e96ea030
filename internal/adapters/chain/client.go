package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ohmynofan/tipverse/internal/config"
	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
	"github.com/ohmynofan/tipverse/pkg/utils"
)

const nativeTransferGas = 21000

var (
	ErrWalletNotConnected = errors.New("wallet is not connected")
	ErrNoRecipientWallet  = errors.New("recipient has no wallet address")
	ErrTransactionFailed  = errors.New("transaction reverted")

	transferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
)

// Backend is the part of ethclient.Client that settlement needs.
type Backend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type EthersClient struct {
	backend Backend
	closer  func()
	network config.Network
	session *model.Session
	log     *logger.ClassLogger
}

func New(session *model.Session, network config.Network) (*EthersClient, error) {
	scope := "[New EtherClient] Error :"
	ec := &EthersClient{network: network, session: session}
	ec.log = logger.NewLogger(ec, session)
	ec.log.Log(fmt.Sprintf("Initializing Ethers Client on %s...", network.Name))

	client, err := ethclient.Dial(network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%s failed to connect RPC (%s): %w", scope, network.Name, err)
	}
	ec.backend = client
	ec.closer = client.Close
	return ec, nil
}

// NewWithBackend wraps an existing backend, mostly for tests.
func NewWithBackend(session *model.Session, network config.Network, backend Backend) *EthersClient {
	ec := &EthersClient{backend: backend, network: network, session: session}
	ec.log = logger.NewLogger(ec, session)
	return ec
}

func (e *EthersClient) Close() {
	if e.closer != nil {
		e.closer()
	}
}

// ConnectWallet resolves session.Account, a private key or a secret phrase,
// into the signing identity.
func ConnectWallet(session *model.Session) error {
	scope := "[ConnectWallet] Error :"
	if session == nil {
		return fmt.Errorf("%s no session", scope)
	}
	data := strings.TrimSpace(session.Account)
	if data == "" {
		session.Address = ""
		return fmt.Errorf("%s invalid account input (seed or private key)", scope)
	}

	var addr common.Address
	var privateKey *ecdsa.PrivateKey

	switch utils.DetermineType(data) {
	case "Secret Phrase":
		a, pk, err := utils.AddressFromMnemonic(data, "")
		if err != nil {
			session.Address = ""
			return fmt.Errorf("%s failed to read from seed phrase: %w", scope, err)
		}
		addr = a
		privateKey = pk
	case "Private Key":
		pk, err := utils.PrivateKeyFromHex(data)
		if err != nil {
			session.Address = ""
			return fmt.Errorf("%s invalid private key: %w", scope, err)
		}
		addr = crypto.PubkeyToAddress(pk.PublicKey)
		privateKey = pk
	default:
		session.Address = ""
		return fmt.Errorf("%s invalid account: Secret Phrase or Private Key required", scope)
	}

	session.Address = addr.Hex()
	session.PublicKey = addr
	session.PrivateKey = privateKey
	return nil
}

// WatchOnly builds a session that can read balances but never sign.
func WatchOnly(address string, chainID int) (*model.Session, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("[WatchOnly] Error : invalid wallet address %q", address)
	}
	addr := common.HexToAddress(address)
	return &model.Session{Address: addr.Hex(), PublicKey: addr, ChainID: chainID}, nil
}

func (e *EthersClient) NativeBalance(ctx context.Context) (string, error) {
	scope := "[NativeBalance] Error :"
	if e.session == nil || (e.session.PublicKey == common.Address{}) {
		return "", fmt.Errorf("%s %w", scope, ErrWalletNotConnected)
	}
	balance, err := e.backend.BalanceAt(ctx, e.session.PublicKey, nil)
	if err != nil {
		return "", fmt.Errorf("%s failed to fetch wallet balance: %w", scope, err)
	}
	formatted := utils.FormatUnits(balance, e.network.Decimals)
	e.log.JustLog(fmt.Sprintf("Wallet balance fetched: %s %s", formatted, e.network.Symbol))
	return formatted, nil
}

// EncodeTransfer builds ERC-20 transfer(address,uint256) calldata.
func EncodeTransfer(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// Settle sends the tip on chain: a plain value transfer for the native token,
// an ERC-20 transfer call otherwise. It blocks until the transaction is mined.
func (e *EthersClient) Settle(ctx context.Context, sub model.TipSubmission) (model.TipReceipt, error) {
	scope := "[Settle] Error :"
	if !e.session.CanSign() {
		return model.TipReceipt{}, fmt.Errorf("%s %w", scope, ErrWalletNotConnected)
	}
	if !common.IsHexAddress(sub.Recipient.WalletAddress) {
		return model.TipReceipt{}, fmt.Errorf("%s %w: @%s", scope, ErrNoRecipientWallet, sub.Recipient.Username)
	}
	recipient := common.HexToAddress(sub.Recipient.WalletAddress)

	amount, err := utils.ParseUnits(sub.Amount, sub.Token.Decimals)
	if err != nil {
		return model.TipReceipt{}, fmt.Errorf("%s %w", scope, err)
	}
	if amount.Sign() <= 0 {
		return model.TipReceipt{}, fmt.Errorf("%s amount %s rounds to zero", scope, sub.Amount)
	}

	from := e.session.PublicKey
	msg := ethereum.CallMsg{From: from}
	if sub.Token.IsNative() {
		msg.To = &recipient
		msg.Value = amount
	} else {
		token := common.HexToAddress(sub.Token.Address)
		msg.To = &token
		msg.Value = big.NewInt(0)
		msg.Data = EncodeTransfer(recipient, amount)
	}

	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return model.TipReceipt{}, fmt.Errorf("%s failed to get nonce: %w", scope, err)
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return model.TipReceipt{}, fmt.Errorf("%s failed to get gas price: %w", scope, err)
	}
	gas := uint64(nativeTransferGas)
	if len(msg.Data) > 0 {
		gas, err = e.backend.EstimateGas(ctx, msg)
		if err != nil {
			return model.TipReceipt{}, fmt.Errorf("%s failed to estimate gas: %w", scope, err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       msg.To,
		Value:    msg.Value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     msg.Data,
	})
	signer := types.LatestSignerForChainID(big.NewInt(int64(e.network.ChainID)))
	signed, err := types.SignTx(tx, signer, e.session.PrivateKey)
	if err != nil {
		return model.TipReceipt{}, fmt.Errorf("%s failed to sign transaction: %w", scope, err)
	}

	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return model.TipReceipt{}, fmt.Errorf("%s failed to send transaction: %w", scope, err)
	}
	e.log.Log(fmt.Sprintf("Tip tx sent %s%s", e.network.Explorer, "tx/"+signed.Hash().Hex()))

	receipt, err := bind.WaitMined(ctx, e.backend, signed)
	if err != nil {
		return model.TipReceipt{}, fmt.Errorf("%s failed waiting for %s: %w", scope, signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return model.TipReceipt{}, fmt.Errorf("%s %w: %s", scope, ErrTransactionFailed, signed.Hash().Hex())
	}

	return model.TipReceipt{
		SubmissionID: sub.ID,
		TxHash:       signed.Hash().Hex(),
		SettledAt:    time.Now().UTC(),
		XP:           sub.ProjectedXP,
	}, nil
}

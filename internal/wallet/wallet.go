package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/haodong0616/velocity-client/internal/domain"
)

// erc20ABIJSON covers the token surface the client needs: transfer for
// deposits, balanceOf/decimals for pre-flight checks.
const erc20ABIJSON = `[
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"who","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

const transferGasLimit = 100_000

// EthWallet is a local-key signer. Its active RPC endpoint plays the role of
// the wallet's selected chain: operations are refused when the endpoint's
// chain id differs from the chain config a transfer targets.
type EthWallet struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	erc20ABI abi.ABI
	logger   *slog.Logger

	mu        sync.RWMutex
	activeRPC string
}

// New creates a wallet from a hex-encoded private key and an initial RPC
// endpoint.
func New(privateKeyHex, rpcURL string) (*EthWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	return &EthWallet{
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		erc20ABI:  parsed,
		logger:    slog.Default().With("module", "wallet"),
		activeRPC: rpcURL,
	}, nil
}

// Address returns the wallet's checksummed address.
func (w *EthWallet) Address() string {
	return w.address.Hex()
}

// SwitchChain points the wallet at a different RPC endpoint, the headless
// equivalent of switching networks in a browser wallet.
func (w *EthWallet) SwitchChain(rpcURL string) {
	w.mu.Lock()
	w.activeRPC = rpcURL
	w.mu.Unlock()
}

func (w *EthWallet) dial(ctx context.Context) (*ethclient.Client, error) {
	w.mu.RLock()
	rpcURL := w.activeRPC
	w.mu.RUnlock()
	if rpcURL == "" {
		return nil, domain.ErrWalletNotConnected
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, domain.NewNetworkError("dial_rpc", err)
	}
	return client, nil
}

// ChainID returns the chain id of the wallet's active endpoint.
func (w *EthWallet) ChainID(ctx context.Context) (int64, error) {
	client, err := w.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, domain.NewNetworkError("chain_id", err)
	}
	return id.Int64(), nil
}

// SignLoginMessage produces an EIP-191 personal signature over the login
// payload, hex-encoded with 0x prefix.
func (w *EthWallet) SignLoginMessage(message string) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	// Wallets report V as 27/28.
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// TokenBalance reads the wallet's balance of the chain's configured token,
// scaled to a human-readable decimal.
func (w *EthWallet) TokenBalance(ctx context.Context, cfg domain.ChainConfig) (decimal.Decimal, error) {
	client, err := w.dial(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer client.Close()

	data, err := w.erc20ABI.Pack("balanceOf", w.address)
	if err != nil {
		return decimal.Zero, err
	}

	token := common.HexToAddress(cfg.ContractAddress)
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return decimal.Zero, domain.NewNetworkError("balance_of", err)
	}

	out, err := w.erc20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return decimal.Zero, err
	}
	units, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected balanceOf result")
	}

	return decimal.NewFromBigInt(units, 0).Shift(int32(-cfg.Decimals)), nil
}

// TransferToken sends amount of the configured token to the platform deposit
// address and waits for the receipt. Returns the transaction hash.
func (w *EthWallet) TransferToken(ctx context.Context, cfg domain.ChainConfig, amount decimal.Decimal) (string, error) {
	client, err := w.dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	units := amount.Shift(int32(cfg.Decimals)).BigInt()
	data, err := w.erc20ABI.Pack("transfer", common.HexToAddress(cfg.PlatformAddress), units)
	if err != nil {
		return "", err
	}

	nonce, err := client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", domain.NewNetworkError("nonce", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", domain.NewNetworkError("gas_price", err)
	}

	token := common.HexToAddress(cfg.ContractAddress)
	tx := types.NewTransaction(nonce, token, big.NewInt(0), transferGasLimit, gasPrice, data)

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(cfg.ChainID)), w.key)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", domain.NewNetworkError("send_tx", err)
	}

	txHash := signed.Hash().Hex()
	w.logger.Info("transfer sent", slog.String("tx", txHash), slog.String("amount", amount.String()))

	receipt, err := bind.WaitMined(ctx, client, signed)
	if err != nil {
		return "", domain.NewNetworkError("wait_mined", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return txHash, fmt.Errorf("transfer %s reverted", txHash)
	}

	return txHash, nil
}

// TokenDecimals reads decimals() from the token contract. Chain configs
// carry the value too; this is the cross-check when a config looks off.
func (w *EthWallet) TokenDecimals(ctx context.Context, cfg domain.ChainConfig) (int, error) {
	client, err := w.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	data, err := w.erc20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}

	token := common.HexToAddress(cfg.ContractAddress)
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, domain.NewNetworkError("decimals", err)
	}

	out, err := w.erc20ABI.Unpack("decimals", raw)
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result")
	}
	return int(d), nil
}

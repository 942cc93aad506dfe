package services

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/anurag-05-cmd/StakeInNature/pkg/crypto"
	"github.com/anurag-05-cmd/StakeInNature/pkg/units"
)

// Protocol constants, denominated in base units (18 decimals).
var (
	// MinimumStake is the smallest actionable stake. Requests below it are
	// rejected before any ledger call.
	MinimumStake = units.MustParse("900")

	// ClaimAmount is the one-time airdrop granted per address.
	ClaimAmount = units.MustParse("5000")
)

// RewardPercent is the staked-balance increase granted by validateUser.
// The increase happens ledger-side; the constant exists for reconciliation.
const RewardPercent = 8

// Ledger is the typed surface of the SIN token/stake contract. All balances
// are base units. Mutating calls block until the ledger confirms finality;
// confirmed effects are authoritative and irreversible.
type Ledger interface {
	GetStakedBalance(ctx context.Context, user common.Address) (*big.Int, error)
	GetTokenBalance(ctx context.Context, user common.Address) (*big.Int, error)
	IsValidated(ctx context.Context, user common.Address) (bool, error)

	Stake(ctx context.Context, amount *big.Int) (common.Hash, error)
	Unstake(ctx context.Context, amount *big.Int) (common.Hash, error)
	UnstakeAll(ctx context.Context) (common.Hash, error)
	ValidateUser(ctx context.Context, user common.Address) (common.Hash, error)
	SlashUser(ctx context.Context, user common.Address) (common.Hash, error)
	Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error)
}

// contractABI covers the functions this service touches on the SIN contract.
const contractABIJSON = `[
	{"type":"function","name":"stake","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"unstake","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"unstakeAll","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"validateUser","inputs":[{"name":"user","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"slashUser","inputs":[{"name":"user","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"getStakedBalance","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"isValidated","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"}
]`

// EthereumLedger implements Ledger against the SIN contract over JSON-RPC.
type EthereumLedger struct {
	client          *ethclient.Client
	contractAddress common.Address
	contractABI     abi.ABI
	contract        *bind.BoundContract
	confirmTimeout  time.Duration

	// Operator signing state, built lazily so a missing credential is a
	// request-time error, not a startup one.
	operatorKeyHex string
	operatorMu     sync.Mutex
	operator       *bind.TransactOpts

	// txMu serializes transactions through the single operator signer so
	// nonces are assigned in dispatch order.
	txMu sync.Mutex
}

// NewEthereumLedger connects to the ledger RPC endpoint and binds the SIN
// contract. The operator key may be empty; operations that need it fail
// with ErrOperatorUnavailable when called.
func NewEthereumLedger(rpcURL, contractAddr, operatorKeyHex string, confirmTimeout time.Duration) (*EthereumLedger, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("ledger RPC URL is required")
	}
	if contractAddr == "" {
		return nil, fmt.Errorf("ledger contract address is required")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger RPC: %v", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(contractABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %v", err)
	}

	address := common.HexToAddress(contractAddr)
	ledger := &EthereumLedger{
		client:          client,
		contractAddress: address,
		contractABI:     parsedABI,
		contract:        bind.NewBoundContract(address, parsedABI, client, client, client),
		confirmTimeout:  confirmTimeout,
		operatorKeyHex:  operatorKeyHex,
	}

	return ledger, nil
}

// Ping verifies the RPC link is alive.
func (l *EthereumLedger) Ping(ctx context.Context) error {
	if _, err := l.client.ChainID(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}

// GetStakedBalance reads the staked balance for a user.
func (l *EthereumLedger) GetStakedBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := l.callView(ctx, "getStakedBalance", &balance, user); err != nil {
		return nil, err
	}
	return balance, nil
}

// GetTokenBalance reads the liquid token balance for a user.
func (l *EthereumLedger) GetTokenBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := l.callView(ctx, "balanceOf", &balance, user); err != nil {
		return nil, err
	}
	return balance, nil
}

// IsValidated reads the ledger's validated flag for a user.
func (l *EthereumLedger) IsValidated(ctx context.Context, user common.Address) (bool, error) {
	var validated bool
	if err := l.callView(ctx, "isValidated", &validated, user); err != nil {
		return false, err
	}
	return validated, nil
}

// Stake locks tokens as collateral. Minimum-stake gating happens in the
// caller; the adapter forwards any positive amount.
func (l *EthereumLedger) Stake(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return l.transact(ctx, "stake", amount)
}

// Unstake releases part of the staked balance.
func (l *EthereumLedger) Unstake(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return l.transact(ctx, "unstake", amount)
}

// UnstakeAll releases the full staked balance and clears the validated flag.
func (l *EthereumLedger) UnstakeAll(ctx context.Context) (common.Hash, error) {
	return l.transact(ctx, "unstakeAll")
}

// ValidateUser marks the user validated and grants the 8% staking reward.
// Irreversible once confirmed.
func (l *EthereumLedger) ValidateUser(ctx context.Context, user common.Address) (common.Hash, error) {
	return l.transact(ctx, "validateUser", user)
}

// SlashUser zeroes the user's staked balance. Irreversible once confirmed.
func (l *EthereumLedger) SlashUser(ctx context.Context, user common.Address) (common.Hash, error) {
	return l.transact(ctx, "slashUser", user)
}

// Mint credits freshly minted tokens to an address.
func (l *EthereumLedger) Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	return l.transact(ctx, "mint", to, amount)
}

// Close closes the RPC connection.
func (l *EthereumLedger) Close() {
	if l.client != nil {
		l.client.Close()
	}
}

// callView executes a read-only contract call and unpacks the single result.
func (l *EthereumLedger) callView(ctx context.Context, method string, result interface{}, args ...interface{}) error {
	input, err := l.contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %v", method, err)
	}

	output, err := l.client.CallContract(ctx, ethereum.CallMsg{
		To:   &l.contractAddress,
		Data: input,
	}, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLedgerUnavailable, method, err)
	}

	if err := l.contractABI.UnpackIntoInterface(result, method, output); err != nil {
		return fmt.Errorf("failed to unpack %s result: %v", method, err)
	}
	return nil
}

// transact sends a mutating contract call signed by the operator and waits
// for confirmation within the adapter's wait window. On timeout the outcome
// is unknown; callers must re-poll balances rather than assume either way.
func (l *EthereumLedger) transact(ctx context.Context, method string, args ...interface{}) (common.Hash, error) {
	auth, err := l.operatorAuth(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	l.txMu.Lock()
	opts := &bind.TransactOpts{
		From:    auth.From,
		Signer:  auth.Signer,
		Context: ctx,
	}
	tx, err := l.contract.Transact(opts, method, args...)
	l.txMu.Unlock()
	if err != nil {
		if strings.Contains(err.Error(), "revert") || strings.Contains(err.Error(), "insufficient") {
			return common.Hash{}, fmt.Errorf("%w: %s: %v", ErrLedgerRejected, method, err)
		}
		return common.Hash{}, fmt.Errorf("%w: %s: %v", ErrLedgerUnavailable, method, err)
	}

	log.Printf("Ledger %s transaction sent: %s", method, tx.Hash().Hex())

	waitCtx, cancel := context.WithTimeout(ctx, l.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, l.client, tx)
	if err != nil {
		if waitCtx.Err() != nil {
			return tx.Hash(), fmt.Errorf("%w: %s: %s", ErrLedgerTimeout, method, tx.Hash().Hex())
		}
		return tx.Hash(), fmt.Errorf("%w: %s: %v", ErrLedgerUnavailable, method, err)
	}

	if receipt.Status != 1 {
		return tx.Hash(), fmt.Errorf("%w: %s reverted in transaction %s", ErrLedgerRejected, method, tx.Hash().Hex())
	}

	return tx.Hash(), nil
}

// operatorAuth builds the operator transactor on first use.
func (l *EthereumLedger) operatorAuth(ctx context.Context) (*bind.TransactOpts, error) {
	l.operatorMu.Lock()
	defer l.operatorMu.Unlock()

	if l.operator != nil {
		return l.operator, nil
	}
	if l.operatorKeyHex == "" {
		return nil, fmt.Errorf("%w: no operator key configured", ErrOperatorUnavailable)
	}

	privateKey, err := crypto.LoadPrivateKeyFromHex(l.operatorKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperatorUnavailable, err)
	}

	chainID, err := l.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get chain ID: %v", ErrLedgerUnavailable, err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperatorUnavailable, err)
	}

	log.Printf("Operator signer configured: %s (Chain ID: %s)", crypto.AddressOf(privateKey).Hex(), chainID.String())
	l.operator = auth
	return auth, nil
}

package services

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// fakeLedger is an in-memory Ledger for tests. Validate applies the 8%
// reward and slash zeroes the stake, mirroring the contract's behavior.
type fakeLedger struct {
	mu        sync.Mutex
	token     map[common.Address]*big.Int
	staked    map[common.Address]*big.Int
	validated map[common.Address]bool

	mintCalls     int
	validateCalls int
	slashCalls    int
	stakeCalls    int

	readErr     error
	mintErr     error
	validateErr error
	slashErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		token:     make(map[common.Address]*big.Int),
		staked:    make(map[common.Address]*big.Int),
		validated: make(map[common.Address]bool),
	}
}

func (f *fakeLedger) setStaked(user common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staked[user] = new(big.Int).Set(amount)
}

func (f *fakeLedger) setToken(user common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token[user] = new(big.Int).Set(amount)
}

func (f *fakeLedger) balanceOf(m map[common.Address]*big.Int, user common.Address) *big.Int {
	if v, exists := m[user]; exists {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func (f *fakeLedger) GetStakedBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.balanceOf(f.staked, user), nil
}

func (f *fakeLedger) GetTokenBalance(ctx context.Context, user common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.balanceOf(f.token, user), nil
}

func (f *fakeLedger) IsValidated(ctx context.Context, user common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return false, f.readErr
	}
	return f.validated[user], nil
}

func (f *fakeLedger) Stake(ctx context.Context, amount *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stakeCalls++
	return common.HexToHash("0x01"), nil
}

func (f *fakeLedger) Unstake(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return common.HexToHash("0x02"), nil
}

func (f *fakeLedger) UnstakeAll(ctx context.Context) (common.Hash, error) {
	return common.HexToHash("0x03"), nil
}

func (f *fakeLedger) ValidateUser(ctx context.Context, user common.Address) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls++
	if f.validateErr != nil {
		return common.Hash{}, f.validateErr
	}
	staked := f.balanceOf(f.staked, user)
	reward := new(big.Int).Div(new(big.Int).Mul(staked, big.NewInt(RewardPercent)), big.NewInt(100))
	f.staked[user] = staked.Add(staked, reward)
	f.validated[user] = true
	return common.HexToHash("0x04"), nil
}

func (f *fakeLedger) SlashUser(ctx context.Context, user common.Address) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slashCalls++
	if f.slashErr != nil {
		return common.Hash{}, f.slashErr
	}
	f.staked[user] = big.NewInt(0)
	return common.HexToHash("0x05"), nil
}

func (f *fakeLedger) Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mintCalls++
	if f.mintErr != nil {
		return common.Hash{}, f.mintErr
	}
	balance := f.balanceOf(f.token, to)
	f.token[to] = balance.Add(balance, amount)
	return common.HexToHash("0x06"), nil
}

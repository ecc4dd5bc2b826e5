package staking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"frizo/argencoin_engine/internal/common"
	"frizo/argencoin_engine/internal/token"
)

var (
	ErrUnauthorized            = errors.New("caller is not the owner")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidParameter        = errors.New("reward rate must be greater than zero")
	ErrRewardNotFinished       = errors.New("previous reward has not finished")
	ErrInsufficientRewardFunds = errors.New("reward token balance does not cover the reward")
	ErrNoRewardToken           = errors.New("reward token is not configured")
)

// Staking streams a reward budget linearly over a fixed window to
// argencoin stakers, proportional to stake-time. The reward-per-token
// accumulator makes every action O(1) in the number of stakers.
type Staking struct {
	address string
	owner   string

	argencoin    *token.Token
	rewardToken  *token.Token
	rewardTokens map[string]*token.Token

	// reward window
	rewardRate           decimal.Decimal // reward units per second
	finishAt             int64           // unix seconds
	updatedAt            int64           // unix seconds of last checkpoint
	rewardPerTokenStored decimal.Decimal // monotonically non-decreasing

	totalStaked            decimal.Decimal
	balances               map[string]decimal.Decimal
	userRewardPerTokenPaid map[string]decimal.Decimal
	rewards                map[string]decimal.Decimal

	now func() time.Time

	mu sync.RWMutex
}

// New creates a staking engine for the given argencoin token. The
// clock may be nil, in which case time.Now is used; tests inject a
// fake one.
func New(owner string, argencoin *token.Token, now func() time.Time) *Staking {
	if now == nil {
		now = time.Now
	}
	return &Staking{
		address:                common.GenerateAccountID("staking"),
		owner:                  owner,
		argencoin:              argencoin,
		rewardTokens:           make(map[string]*token.Token),
		rewardRate:             decimal.Zero,
		rewardPerTokenStored:   decimal.Zero,
		totalStaked:            decimal.Zero,
		balances:               make(map[string]decimal.Decimal),
		userRewardPerTokenPaid: make(map[string]decimal.Decimal),
		rewards:                make(map[string]decimal.Decimal),
		now:                    now,
	}
}

// Address is the engine's account on the token ledgers; minting fees
// accumulate here and stakes are held here.
func (s *Staking) Address() string { return s.address }

func (s *Staking) Owner() string { return s.owner }

// =====================================================
// Configuration setters
// =====================================================

// AddRewardToken registers a token the engine may pay rewards in.
func (s *Staking) AddRewardToken(caller, symbol string, tok *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assertOwner(caller); err != nil {
		return err
	}
	s.rewardTokens[symbol] = tok
	return nil
}

// RewardTokenContract returns the registered reward token for symbol.
func (s *Staking) RewardTokenContract(symbol string) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tok, ok := s.rewardTokens[symbol]; ok {
		return tok, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoRewardToken, symbol)
}

// EditRewardToken sets the token used for subsequent reward payouts.
func (s *Staking) EditRewardToken(caller string, tok *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assertOwner(caller); err != nil {
		return err
	}
	s.rewardToken = tok
	return nil
}

// EditArgencoinToken swaps the stake token handle.
func (s *Staking) EditArgencoinToken(caller string, tok *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assertOwner(caller); err != nil {
		return err
	}
	s.argencoin = tok
	return nil
}

// ArgencoinToken returns the stake token handle.
func (s *Staking) ArgencoinToken() *token.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.argencoin
}

// =====================================================
// Reward window
// =====================================================

// SetNextReward starts a new distribution window paying rewardAmount
// over durationSeconds. Owner only; the previous window must have
// finished and the engine's reward token balance must cover the
// budget.
func (s *Staking) SetNextReward(caller string, rewardAmount decimal.Decimal, durationSeconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assertOwner(caller); err != nil {
		return err
	}

	s.checkpoint("")

	now := s.now().Unix()
	if now < s.finishAt {
		return ErrRewardNotFinished
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: duration must be greater than zero", ErrInvalidParameter)
	}
	rate := common.Div(rewardAmount, decimal.NewFromInt(durationSeconds))
	if !rate.IsPositive() {
		return ErrInvalidParameter
	}
	if s.rewardToken == nil {
		return ErrNoRewardToken
	}
	if s.rewardToken.BalanceOf(s.address).LessThan(rewardAmount) {
		return ErrInsufficientRewardFunds
	}

	s.rewardRate = rate
	s.finishAt = now + durationSeconds
	s.updatedAt = now
	return nil
}

// LastApplicableRewardTime returns min(now, finishAt): rewards never
// accrue past the end of the window.
func (s *Staking) LastApplicableRewardTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastApplicable()
}

// RewardPerToken returns the accumulator as of now: cumulative reward
// per staked unit since inception.
func (s *Staking) RewardPerToken() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rewardPerToken()
}

// FinishAt returns the end of the current reward window.
func (s *Staking) FinishAt() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finishAt
}

// =====================================================
// Staking
// =====================================================

// Stake pulls amount argencoin from the caller (pre-approved) into
// the engine and starts accruing rewards on it.
func (s *Staking) Stake(caller string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	s.checkpoint(caller)

	if err := s.argencoin.TransferFrom(s.address, caller, s.address, amount); err != nil {
		return err
	}

	s.balances[caller] = s.balance(caller).Add(amount)
	s.totalStaked = s.totalStaked.Add(amount)
	return nil
}

// Withdraw returns amount of the caller's staked argencoin. Accrued
// rewards stay claimable.
func (s *Staking) Withdraw(caller string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	balance := s.balance(caller)
	if amount.GreaterThan(balance) {
		return fmt.Errorf("%w: amount exceeds staked balance", ErrInvalidAmount)
	}

	s.checkpoint(caller)

	// commit the decrement before the outbound transfer
	s.balances[caller] = balance.Sub(amount)
	s.totalStaked = s.totalStaked.Sub(amount)

	return s.argencoin.Transfer(s.address, caller, amount)
}

// CollectReward pays out everything the caller has accrued so far and
// returns the amount. Paying zero is a no-op.
func (s *Staking) CollectReward(caller string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoint(caller)

	owed := s.rewards[caller]
	if !owed.IsPositive() {
		return decimal.Zero, nil
	}
	if s.rewardToken == nil {
		return decimal.Zero, ErrNoRewardToken
	}

	// zero the debt before the outbound transfer; restore it if the
	// payout fails so an over-committed pool cannot destroy accruals
	delete(s.rewards, caller)

	if err := s.rewardToken.Transfer(s.address, caller, owed); err != nil {
		s.rewards[caller] = owed
		return decimal.Zero, err
	}
	return owed, nil
}

// Earned returns what account would be owed after a checkpoint,
// without mutating state.
func (s *Staking) Earned(account string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.earned(account)
}

// StakedBalance returns account's staked argencoin.
func (s *Staking) StakedBalance(account string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance(account)
}

// TotalStaked returns the sum of all staked balances.
func (s *Staking) TotalStaked() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalStaked
}

// =====================================================
// private func (caller must hold s.mu)
// =====================================================

func (s *Staking) assertOwner(caller string) error {
	if caller != s.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

func (s *Staking) lastApplicable() int64 {
	now := s.now().Unix()
	if now < s.finishAt {
		return now
	}
	return s.finishAt
}

func (s *Staking) rewardPerToken() decimal.Decimal {
	if s.totalStaked.IsZero() {
		return s.rewardPerTokenStored
	}
	elapsed := decimal.NewFromInt(s.lastApplicable() - s.updatedAt)
	accrued := common.Div(s.rewardRate.Mul(elapsed), s.totalStaked)
	return s.rewardPerTokenStored.Add(accrued)
}

func (s *Staking) earned(account string) decimal.Decimal {
	pending := s.rewardPerToken().Sub(s.userRewardPerTokenPaid[account])
	return s.rewards[account].Add(s.balance(account).Mul(pending))
}

// checkpoint folds elapsed time into the global accumulator and, when
// an account is involved, settles its accrued reward against it. Runs
// first in every mutating call.
func (s *Staking) checkpoint(account string) {
	s.rewardPerTokenStored = s.rewardPerToken()
	s.updatedAt = s.lastApplicable()

	if account != "" {
		s.rewards[account] = s.earned(account)
		s.userRewardPerTokenPaid[account] = s.rewardPerTokenStored
	}
}

func (s *Staking) balance(account string) decimal.Decimal {
	if balance, ok := s.balances[account]; ok {
		return balance
	}
	return decimal.Zero
}

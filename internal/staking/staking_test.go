package staking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/argencoin_engine/internal/token"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(seconds int64) {
	c.t = c.t.Add(time.Duration(seconds) * time.Second)
}

type stakingBench struct {
	owner     string
	argencoin *token.Token
	dai       *token.Token
	clock     *fakeClock
	staking   *Staking
}

func newStakingBench(t *testing.T) *stakingBench {
	t.Helper()

	sb := &stakingBench{
		owner:     "staking_owner",
		argencoin: token.New("Argencoin", "ARGC", "argc_admin"),
		dai:       token.New("Dai", "dai", "dai_admin"),
		clock:     &fakeClock{t: time.Unix(1_700_000_000, 0)},
	}
	sb.staking = New(sb.owner, sb.argencoin, sb.clock.now)

	require.NoError(t, sb.argencoin.GrantMinter("argc_admin", "argc_admin"))
	require.NoError(t, sb.dai.GrantMinter("dai_admin", "dai_admin"))

	require.NoError(t, sb.staking.AddRewardToken(sb.owner, "dai", sb.dai))
	require.NoError(t, sb.staking.EditRewardToken(sb.owner, sb.dai))
	return sb
}

// fundRewards simulates minting fees landing on the engine's address.
func (sb *stakingBench) fundRewards(t *testing.T, amount string) {
	t.Helper()
	require.NoError(t, sb.dai.Mint("dai_admin", sb.staking.Address(), dec(amount)))
}

// fundStaker mints argencoin to account and approves the engine.
func (sb *stakingBench) fundStaker(t *testing.T, account, amount string) {
	t.Helper()
	require.NoError(t, sb.argencoin.Mint("argc_admin", account, dec(amount)))
	require.NoError(t, sb.argencoin.Approve(account, sb.staking.Address(), dec(amount)))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestNew(t *testing.T) {
	sb := newStakingBench(t)

	assert.Equal(t, sb.owner, sb.staking.Owner())
	assert.NotEmpty(t, sb.staking.Address())
	assert.Same(t, sb.argencoin, sb.staking.ArgencoinToken())
	assert.True(t, sb.staking.TotalStaked().IsZero())
}

func TestConfigurationSetters(t *testing.T) {
	t.Run("AddRewardTokenNotOwner", func(t *testing.T) {
		sb := newStakingBench(t)

		err := sb.staking.AddRewardToken("strange", "usdc", sb.dai)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("RegistersRewardToken", func(t *testing.T) {
		sb := newStakingBench(t)

		tok, err := sb.staking.RewardTokenContract("dai")
		require.NoError(t, err)
		assert.Same(t, sb.dai, tok)
	})

	t.Run("UnknownRewardToken", func(t *testing.T) {
		sb := newStakingBench(t)

		_, err := sb.staking.RewardTokenContract("usdc")
		assert.ErrorIs(t, err, ErrNoRewardToken)
	})

	t.Run("EditArgencoinToken", func(t *testing.T) {
		sb := newStakingBench(t)
		replacement := token.New("Argencoin", "ARGC", "argc_admin")

		assert.ErrorIs(t, sb.staking.EditArgencoinToken("strange", replacement), ErrUnauthorized)

		require.NoError(t, sb.staking.EditArgencoinToken(sb.owner, replacement))
		assert.Same(t, replacement, sb.staking.ArgencoinToken())
	})
}

func TestRewardPerToken(t *testing.T) {
	t.Run("ZeroWithNoSupply", func(t *testing.T) {
		sb := newStakingBench(t)

		assert.True(t, sb.staking.RewardPerToken().IsZero())
	})
}

func TestLastApplicableRewardTime(t *testing.T) {
	t.Run("ZeroBeforeAnyWindow", func(t *testing.T) {
		sb := newStakingBench(t)

		assert.Equal(t, int64(0), sb.staking.LastApplicableRewardTime())
	})

	t.Run("CappedAtFinish", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")
		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))

		start := sb.clock.now().Unix()
		assert.Equal(t, start, sb.staking.LastApplicableRewardTime())

		sb.clock.advance(500)
		assert.Equal(t, start+500, sb.staking.LastApplicableRewardTime())

		sb.clock.advance(5000)
		assert.Equal(t, start+1000, sb.staking.LastApplicableRewardTime())
	})
}

func TestSetNextReward(t *testing.T) {
	t.Run("NotOwner", func(t *testing.T) {
		sb := newStakingBench(t)

		err := sb.staking.SetNextReward("strange", dec("10"), 1000)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("RejectsZeroDuration", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")

		err := sb.staking.SetNextReward(sb.owner, dec("10"), 0)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("RejectsZeroRate", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")

		err := sb.staking.SetNextReward(sb.owner, decimal.Zero, 1000)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("RejectsUnderfundedBudget", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "9")

		err := sb.staking.SetNextReward(sb.owner, dec("10"), 1000)
		assert.ErrorIs(t, err, ErrInsufficientRewardFunds)
	})

	t.Run("StartsWindow", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")

		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))
		assert.Equal(t, sb.clock.now().Unix()+1000, sb.staking.FinishAt())
	})

	t.Run("RejectsOverlappingWindow", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "20")
		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))

		sb.clock.advance(999)
		err := sb.staking.SetNextReward(sb.owner, dec("10"), 1000)
		assert.ErrorIs(t, err, ErrRewardNotFinished)

		// once finishAt passes a new window may start
		sb.clock.advance(1)
		assert.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))
	})
}

func TestStake(t *testing.T) {
	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		sb := newStakingBench(t)

		assert.ErrorIs(t, sb.staking.Stake("alice", decimal.Zero), ErrInvalidAmount)
		assert.ErrorIs(t, sb.staking.Stake("alice", dec("-1")), ErrInvalidAmount)
	})

	t.Run("RequiresApproval", func(t *testing.T) {
		sb := newStakingBench(t)

		err := sb.staking.Stake("alice", dec("10"))
		assert.ErrorIs(t, err, token.ErrInsufficientAllowance)
	})

	t.Run("MovesStakeIntoEngine", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundStaker(t, "alice", "10")

		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		assertDec(t, "10", sb.staking.StakedBalance("alice"))
		assertDec(t, "10", sb.staking.TotalStaked())
		assertDec(t, "10", sb.argencoin.BalanceOf(sb.staking.Address()))
		assert.True(t, sb.argencoin.BalanceOf("alice").IsZero())
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		sb := newStakingBench(t)

		assert.ErrorIs(t, sb.staking.Withdraw("alice", decimal.Zero), ErrInvalidAmount)
	})

	t.Run("RejectsMoreThanStaked", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundStaker(t, "alice", "10")
		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		err := sb.staking.Withdraw("alice", dec("11"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("ReturnsStake", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundStaker(t, "alice", "10")
		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		require.NoError(t, sb.staking.Withdraw("alice", dec("4")))

		assertDec(t, "6", sb.staking.StakedBalance("alice"))
		assertDec(t, "6", sb.staking.TotalStaked())
		assertDec(t, "4", sb.argencoin.BalanceOf("alice"))
	})
}

func TestRewardAccrual(t *testing.T) {
	t.Run("LateStakerForfeitsIdlePeriod", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")
		sb.fundStaker(t, "alice", "10")

		// 10 dai over 1000s; nobody staked for the first 100s
		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))
		sb.clock.advance(100)
		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		sb.clock.advance(2000) // well past finishAt

		assertDec(t, "9", sb.staking.Earned("alice"))

		collected, err := sb.staking.CollectReward("alice")
		require.NoError(t, err)
		assertDec(t, "9", collected)
		assertDec(t, "9", sb.dai.BalanceOf("alice"))

		// nothing left to collect
		collected, err = sb.staking.CollectReward("alice")
		require.NoError(t, err)
		assert.True(t, collected.IsZero())
		assert.True(t, sb.staking.Earned("alice").IsZero())
	})

	t.Run("AccrualStopsAfterWithdraw", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")
		sb.fundStaker(t, "alice", "10")

		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))
		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		sb.clock.advance(500)
		require.NoError(t, sb.staking.Withdraw("alice", dec("10")))
		assertDec(t, "5", sb.staking.Earned("alice"))

		sb.clock.advance(500)
		assertDec(t, "5", sb.staking.Earned("alice"))
	})

	t.Run("SplitsProportionallyToStakeTime", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "100")
		sb.fundStaker(t, "alice", "10")
		sb.fundStaker(t, "bob", "30")

		// 100 dai over 1000s; alice alone for 500s, then bob joins
		// with 3x her stake.
		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("100"), 1000))
		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		sb.clock.advance(500)
		require.NoError(t, sb.staking.Stake("bob", dec("30")))

		sb.clock.advance(1000)

		// alice: 50 alone + 12.5 shared; bob: 37.5
		assertDec(t, "62.5", sb.staking.Earned("alice"))
		assertDec(t, "37.5", sb.staking.Earned("bob"))

		// full budget distributed, no truncation loss on these numbers
		total := sb.staking.Earned("alice").Add(sb.staking.Earned("bob"))
		assertDec(t, "100", total)
	})

	t.Run("RewardPerTokenIsMonotonic", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")
		sb.fundStaker(t, "alice", "10")

		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))

		last := sb.staking.RewardPerToken()
		step := func() {
			current := sb.staking.RewardPerToken()
			assert.False(t, current.LessThan(last), "accumulator decreased: %s -> %s", last, current)
			last = current
		}

		require.NoError(t, sb.staking.Stake("alice", dec("10")))
		step()
		sb.clock.advance(250)
		step()
		require.NoError(t, sb.staking.Withdraw("alice", dec("5")))
		step()
		sb.clock.advance(250)
		step()
		_, err := sb.staking.CollectReward("alice")
		require.NoError(t, err)
		step()
		sb.clock.advance(5000)
		step()
	})

	t.Run("EarnedSurvivesRestaking", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")
		sb.fundStaker(t, "alice", "10")

		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))
		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		sb.clock.advance(200)
		require.NoError(t, sb.staking.Withdraw("alice", dec("10")))

		// restake later in the same window
		require.NoError(t, sb.argencoin.Approve("alice", sb.staking.Address(), dec("10")))
		sb.clock.advance(300)
		require.NoError(t, sb.staking.Stake("alice", dec("10")))

		sb.clock.advance(1000)

		// 200s + final 500s of the window at 0.01/s
		assertDec(t, "7", sb.staking.Earned("alice"))
	})
}

func TestCollectReward(t *testing.T) {
	t.Run("NoRewardIsNoOp", func(t *testing.T) {
		sb := newStakingBench(t)

		collected, err := sb.staking.CollectReward("alice")
		require.NoError(t, err)
		assert.True(t, collected.IsZero())
	})

	t.Run("FailedPayoutKeepsAccrual", func(t *testing.T) {
		sb := newStakingBench(t)
		sb.fundRewards(t, "10")
		sb.fundStaker(t, "alice", "10")

		// two fully-accrued 10-dai windows against a 10-dai pool:
		// the engine now owes 20 but holds 10.
		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))
		require.NoError(t, sb.staking.Stake("alice", dec("10")))
		sb.clock.advance(1000)
		require.NoError(t, sb.staking.SetNextReward(sb.owner, dec("10"), 1000))
		sb.clock.advance(1000)

		assertDec(t, "20", sb.staking.Earned("alice"))

		collected, err := sb.staking.CollectReward("alice")
		assert.ErrorIs(t, err, token.ErrInsufficientBalance)
		assert.True(t, collected.IsZero())

		// the debt survives the failed payout
		assertDec(t, "20", sb.staking.Earned("alice"))

		// topping the pool up makes the full amount collectable
		sb.fundRewards(t, "10")
		collected, err = sb.staking.CollectReward("alice")
		require.NoError(t, err)
		assertDec(t, "20", collected)
		assertDec(t, "20", sb.dai.BalanceOf("alice"))
	})
}

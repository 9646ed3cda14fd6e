package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLedgerConfig() LedgerConfig {
	return LedgerConfig{
		InputRatePerMTok:  0.80,
		OutputRatePerMTok: 4.00,
		Budgets: map[Horizon]HorizonBudget{
			HorizonDaily:   {BudgetUSD: 1.00, AlertThreshold: 0.80},
			HorizonMonthly: {BudgetUSD: 10.00, AlertThreshold: 0.80},
		},
	}
}

func TestCostLedgerCostDerivation(t *testing.T) {
	ctx := context.Background()
	l := NewCostLedger(ctx, nil, testLedgerConfig(), nil)

	l.Record(ctx, 1_000_000, 500_000)

	totals := l.Totals(ctx)
	lifetime := totals[HorizonLifetime]
	assert.Equal(t, uint64(1_000_000), lifetime.InputTokens)
	assert.Equal(t, uint64(500_000), lifetime.OutputTokens)
	assert.Equal(t, uint32(1), lifetime.Calls)
	// 1M input at $0.80/MTok plus 0.5M output at $4.00/MTok.
	assert.InDelta(t, 2.80, lifetime.CostUSD, 1e-9)

	// Every horizon accumulates the same call.
	assert.Equal(t, lifetime, totals[HorizonDaily])
	assert.Equal(t, lifetime, totals[HorizonMonthly])
}

func TestCostLedgerStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("within budget", func(t *testing.T) {
		l := NewCostLedger(ctx, nil, testLedgerConfig(), nil)
		l.Record(ctx, 100_000, 10_000) // $0.12
		status := l.Status(ctx)
		assert.Equal(t, WithinBudget, status.State)
	})

	t.Run("approaching daily threshold", func(t *testing.T) {
		l := NewCostLedger(ctx, nil, testLedgerConfig(), nil)
		l.Record(ctx, 1_000_000, 0) // $0.80, exactly the 80% alert line
		status := l.Status(ctx)
		assert.Equal(t, Approaching, status.State)
		assert.Equal(t, HorizonDaily, status.Horizon)
		assert.InDelta(t, 0.80, status.CurrentUSD, 1e-9)
		assert.InDelta(t, 1.00, status.BudgetUSD, 1e-9)
	})

	t.Run("exceeded wins over approaching", func(t *testing.T) {
		l := NewCostLedger(ctx, nil, testLedgerConfig(), nil)
		l.Record(ctx, 1_500_000, 0) // $1.20: daily exceeded, monthly within
		status := l.Status(ctx)
		assert.Equal(t, Exceeded, status.State)
		assert.Equal(t, HorizonDaily, status.Horizon)
	})

	t.Run("no budgets configured", func(t *testing.T) {
		l := NewCostLedger(ctx, nil, LedgerConfig{InputRatePerMTok: 0.80, OutputRatePerMTok: 4.00}, nil)
		l.Record(ctx, 50_000_000, 50_000_000)
		status := l.Status(ctx)
		assert.Equal(t, WithinBudget, status.State)
	})
}

func TestCostLedgerDailyRollover(t *testing.T) {
	ctx := context.Background()
	l := NewCostLedger(ctx, newMemStore(), testLedgerConfig(), nil)

	day1 := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	current := day1
	l.now = func() time.Time { return current }
	for _, tally := range l.tallies {
		tally.windowStart = day1
	}

	l.Record(ctx, 2_000_000, 0) // $1.60, over the daily dollar
	require.Equal(t, Exceeded, l.Status(ctx).State)

	// Crossing midnight resets the daily tally but not monthly or lifetime.
	current = time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC)
	totals := l.Totals(ctx)
	assert.Zero(t, totals[HorizonDaily].InputTokens)
	assert.Equal(t, uint64(2_000_000), totals[HorizonMonthly].InputTokens)
	assert.Equal(t, uint64(2_000_000), totals[HorizonLifetime].InputTokens)
	assert.Equal(t, WithinBudget, l.Status(ctx).State)

	// Crossing into the next month resets the monthly tally too.
	current = time.Date(2025, 7, 1, 0, 5, 0, 0, time.UTC)
	totals = l.Totals(ctx)
	assert.Zero(t, totals[HorizonMonthly].InputTokens)
	assert.Equal(t, uint64(2_000_000), totals[HorizonLifetime].InputTokens)
}

func TestCostLedgerPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	l := NewCostLedger(ctx, store, testLedgerConfig(), nil)
	l.Record(ctx, 300_000, 40_000)

	reborn := NewCostLedger(ctx, store, testLedgerConfig(), nil)
	totals := reborn.Totals(ctx)
	assert.Equal(t, uint64(300_000), totals[HorizonLifetime].InputTokens)
	assert.Equal(t, uint64(40_000), totals[HorizonLifetime].OutputTokens)
	assert.Equal(t, uint32(1), totals[HorizonLifetime].Calls)
}

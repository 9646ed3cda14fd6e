package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/penfold-notes/penfold/internal/service"
)

// Horizon identifies one cost accounting window.
type Horizon string

// Cost horizons. Lifetime never resets; daily and monthly reset lazily
// when the calendar date or month rolls over.
const (
	HorizonLifetime Horizon = "lifetime"
	HorizonDaily    Horizon = "daily"
	HorizonMonthly  Horizon = "monthly"
)

// BudgetState classifies a horizon's spend relative to its budget.
type BudgetState int

// Budget states in increasing severity.
const (
	WithinBudget BudgetState = iota
	Approaching
	Exceeded
)

func (s BudgetState) String() string {
	switch s {
	case Approaching:
		return "approaching"
	case Exceeded:
		return "exceeded"
	default:
		return "within budget"
	}
}

// BudgetStatus is the ledger's verdict: the worst horizon and its numbers.
type BudgetStatus struct {
	Horizon    Horizon
	State      BudgetState
	CurrentUSD float64
	BudgetUSD  float64
}

// HorizonBudget configures the spend guard for one horizon. A zero
// BudgetUSD disables the guard for that horizon.
type HorizonBudget struct {
	BudgetUSD      float64
	AlertThreshold float64
}

// LedgerConfig holds pricing and per-horizon budgets. Rates are flat
// dollars per million tokens.
type LedgerConfig struct {
	InputRatePerMTok  float64
	OutputRatePerMTok float64
	Budgets           map[Horizon]HorizonBudget
}

// horizonTally is the running token count for one horizon.
type horizonTally struct {
	horizon      Horizon
	inputTokens  uint64
	outputTokens uint64
	calls        uint32
	windowStart  time.Time
}

// CostLedger tracks remote-call token spend across lifetime, daily, and
// monthly horizons, persisting every tally through the key-value store.
type CostLedger struct {
	store   service.KVStore
	logger  *slog.Logger
	now     func() time.Time
	cfg     LedgerConfig
	tallies []*horizonTally
	mu      sync.Mutex
}

// NewCostLedger creates a ledger and loads any persisted tallies.
func NewCostLedger(ctx context.Context, store service.KVStore, cfg LedgerConfig, logger *slog.Logger) *CostLedger {
	if logger == nil {
		logger = slog.Default()
	}

	l := &CostLedger{
		store:  store,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
		tallies: []*horizonTally{
			{horizon: HorizonLifetime},
			{horizon: HorizonDaily},
			{horizon: HorizonMonthly},
		},
	}

	start := l.now()
	for _, t := range l.tallies {
		t.windowStart = start
		l.loadTally(ctx, t)
	}
	return l
}

// Record adds one successful call's token usage to every horizon.
func (l *CostLedger) Record(ctx context.Context, inputTokens, outputTokens uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetExpired(ctx)

	for _, t := range l.tallies {
		t.inputTokens += inputTokens
		t.outputTokens += outputTokens
		t.calls++
		l.persistTally(ctx, t)
	}
}

// Status recomputes spend from the current tallies and reports the worst
// horizon. Exceeded on any horizon wins over Approaching on any other.
func (l *CostLedger) Status(ctx context.Context) BudgetStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetExpired(ctx)

	var approaching *BudgetStatus
	for _, t := range l.tallies {
		hb, ok := l.cfg.Budgets[t.horizon]
		if !ok || hb.BudgetUSD <= 0 {
			continue
		}

		cost := l.cost(t)
		if cost >= hb.BudgetUSD {
			return BudgetStatus{
				Horizon:    t.horizon,
				State:      Exceeded,
				CurrentUSD: cost,
				BudgetUSD:  hb.BudgetUSD,
			}
		}
		if approaching == nil && hb.AlertThreshold > 0 && cost >= hb.BudgetUSD*hb.AlertThreshold {
			approaching = &BudgetStatus{
				Horizon:    t.horizon,
				State:      Approaching,
				CurrentUSD: cost,
				BudgetUSD:  hb.BudgetUSD,
			}
		}
	}

	if approaching != nil {
		return *approaching
	}
	return BudgetStatus{State: WithinBudget}
}

// Totals returns the current tallies per horizon with derived cost, for
// the budget status command.
func (l *CostLedger) Totals(ctx context.Context) map[Horizon]LedgerTotals {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetExpired(ctx)

	totals := make(map[Horizon]LedgerTotals, len(l.tallies))
	for _, t := range l.tallies {
		totals[t.horizon] = LedgerTotals{
			InputTokens:  t.inputTokens,
			OutputTokens: t.outputTokens,
			Calls:        t.calls,
			CostUSD:      l.cost(t),
		}
	}
	return totals
}

// LedgerTotals is one horizon's accumulated usage.
type LedgerTotals struct {
	InputTokens  uint64
	OutputTokens uint64
	Calls        uint32
	CostUSD      float64
}

// cost derives dollars from token counts at the flat per-million rates.
// No rounding beyond IEEE double precision.
func (l *CostLedger) cost(t *horizonTally) float64 {
	return float64(t.inputTokens)/1e6*l.cfg.InputRatePerMTok +
		float64(t.outputTokens)/1e6*l.cfg.OutputRatePerMTok
}

// resetExpired zeroes daily and monthly tallies whose calendar window has
// rolled over. Lifetime never resets. Caller holds the lock.
func (l *CostLedger) resetExpired(ctx context.Context) {
	now := l.now()
	for _, t := range l.tallies {
		if !horizonExpired(t.horizon, t.windowStart, now) {
			continue
		}
		t.inputTokens = 0
		t.outputTokens = 0
		t.calls = 0
		t.windowStart = now
		l.persistTally(ctx, t)
	}
}

func horizonExpired(h Horizon, start, now time.Time) bool {
	switch h {
	case HorizonDaily:
		sy, sm, sd := start.Date()
		ny, nm, nd := now.Date()
		return sy != ny || sm != nm || sd != nd
	case HorizonMonthly:
		sy, sm, _ := start.Date()
		ny, nm, _ := now.Date()
		return sy != ny || sm != nm
	default:
		return false
	}
}

func ledgerKey(h Horizon, metric string) string {
	return fmt.Sprintf("costledger.%s.%s", h, metric)
}

func (l *CostLedger) loadTally(ctx context.Context, t *horizonTally) {
	if l.store == nil {
		return
	}

	loadUint := func(metric string, dst *uint64) {
		raw, ok, err := l.store.Get(ctx, ledgerKey(t.horizon, metric))
		if err != nil {
			l.logger.Warn("failed to load ledger tally", "horizon", t.horizon, "metric", metric, "error", err)
			return
		}
		if !ok {
			return
		}
		if v, convErr := strconv.ParseUint(raw, 10, 64); convErr == nil {
			*dst = v
		}
	}

	loadUint("input_tokens", &t.inputTokens)
	loadUint("output_tokens", &t.outputTokens)

	var calls uint64
	loadUint("calls", &calls)
	t.calls = uint32(calls)

	if raw, ok, err := l.store.Get(ctx, ledgerKey(t.horizon, "window_start")); err == nil && ok {
		if start, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			t.windowStart = start
		}
	} else if err != nil {
		l.logger.Warn("failed to load ledger window start", "horizon", t.horizon, "error", err)
	}
}

func (l *CostLedger) persistTally(ctx context.Context, t *horizonTally) {
	if l.store == nil {
		return
	}

	set := func(metric, value string) {
		if err := l.store.Set(ctx, ledgerKey(t.horizon, metric), value); err != nil {
			l.logger.Warn("failed to persist ledger tally", "horizon", t.horizon, "metric", metric, "error", err)
		}
	}

	set("input_tokens", strconv.FormatUint(t.inputTokens, 10))
	set("output_tokens", strconv.FormatUint(t.outputTokens, 10))
	set("calls", strconv.FormatUint(uint64(t.calls), 10))
	set("window_start", t.windowStart.Format(time.RFC3339Nano))
}

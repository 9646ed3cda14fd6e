package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/penfold-notes/penfold/internal/budget"
	"github.com/penfold-notes/penfold/internal/common"
	"github.com/penfold-notes/penfold/internal/detect"
	"github.com/penfold-notes/penfold/internal/engine"
	"github.com/penfold-notes/penfold/internal/llm"
	"github.com/penfold-notes/penfold/internal/service"
	"github.com/penfold-notes/penfold/internal/storage"
)

// app bundles the wired engine for the CLI commands.
type app struct {
	store        *storage.SQLiteStorage
	limiter      *budget.RateLimiter
	ledger       *budget.CostLedger
	remote       *llm.RemoteClassifier
	orchestrator *engine.Orchestrator
	splitter     *engine.SectionSplitter
	settings     service.StaticSettings
}

// newApp constructs every component from viper configuration. The remote
// stage is wired only when a credential is present; everything else works
// without one.
func newApp(ctx context.Context) (*app, error) {
	logger := slog.Default()

	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate storage: %w", err)
	}

	limiter := budget.NewRateLimiter(ctx, store, budget.RateLimitConfig{
		PerMinute: viper.GetInt("limits.per_minute"),
		PerHour:   viper.GetInt("limits.per_hour"),
		PerDay:    viper.GetInt("limits.per_day"),
	}, logger)

	ledger := budget.NewCostLedger(ctx, store, ledgerConfig(), logger)

	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	settings := service.StaticSettings{
		RemoteEnabled: remoteEnabled(),
		HasCredential: apiKey != "",
		AlwaysAsk:     viper.GetBool("classification.always_ask"),
		Threshold:     confidenceThreshold(),
	}

	var remote *llm.RemoteClassifier
	if apiKey != "" {
		client, clientErr := llm.NewAnthropicClient(llm.ClientConfig{
			APIKey: apiKey,
			Model:  viper.GetString("anthropic.model"),
		})
		if clientErr != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create model client: %w", clientErr)
		}
		remote = llm.NewRemoteClassifier(client, settings, llm.NewDialProbe(), limiter, ledger, logger)
	}

	triggers := detect.NewTriggerDetector()
	orchestrator := engine.NewOrchestrator(triggers, remote, settings, logger)
	splitter := engine.NewSectionSplitter(triggers, remote, orchestrator, settings, logger)

	return &app{
		store:        store,
		limiter:      limiter,
		ledger:       ledger,
		remote:       remote,
		orchestrator: orchestrator,
		splitter:     splitter,
		settings:     settings,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() error {
	return a.store.Close()
}

func databasePath() string {
	if path := viper.GetString("database.path"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "penfold.db"
	}
	return filepath.Join(home, ".local", "share", "penfold", "penfold.db")
}

func remoteEnabled() bool {
	if !viper.IsSet("classification.remote_enabled") {
		return true
	}
	return viper.GetBool("classification.remote_enabled")
}

func confidenceThreshold() float64 {
	if threshold := viper.GetFloat64("classification.confidence_threshold"); threshold > 0 {
		return threshold
	}
	return 0.70
}

func ledgerConfig() budget.LedgerConfig {
	inputRate := viper.GetFloat64("pricing.input_per_mtok")
	if inputRate == 0 {
		inputRate = 0.80
	}
	outputRate := viper.GetFloat64("pricing.output_per_mtok")
	if outputRate == 0 {
		outputRate = 4.00
	}

	alertThreshold := viper.GetFloat64("budgets.alert_threshold")
	if alertThreshold == 0 {
		alertThreshold = 0.80
	}

	budgets := make(map[budget.Horizon]budget.HorizonBudget)
	for horizon, key := range map[budget.Horizon]string{
		budget.HorizonDaily:    "budgets.daily_usd",
		budget.HorizonMonthly:  "budgets.monthly_usd",
		budget.HorizonLifetime: "budgets.lifetime_usd",
	} {
		if amount := viper.GetFloat64(key); amount > 0 {
			budgets[horizon] = budget.HorizonBudget{
				BudgetUSD:      amount,
				AlertThreshold: alertThreshold,
			}
		}
	}

	return budget.LedgerConfig{
		InputRatePerMTok:  inputRate,
		OutputRatePerMTok: outputRate,
		Budgets:           budgets,
	}
}

// readInput returns the note text from args or from --file.
func readInput(args []string, filePath string) (string, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath) // #nosec G304 -- user-supplied path is the point
		if err != nil {
			return "", common.NewUserError("failed to read input file", err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return "", common.NewUserError("provide note text as an argument or use --file", nil)
}

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penfold-notes/penfold/internal/budget"
	"github.com/penfold-notes/penfold/internal/model"
	"github.com/penfold-notes/penfold/internal/service"
)

// stubClient returns a canned completion and counts invocations.
type stubClient struct {
	resp  CompletionResponse
	err   error
	calls int
}

func (s *stubClient) Complete(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return CompletionResponse{}, s.err
	}
	return s.resp, nil
}

type stubReach bool

func (s stubReach) IsReachable() bool { return bool(s) }

func testSettings() service.StaticSettings {
	return service.StaticSettings{RemoteEnabled: true, HasCredential: true, Threshold: 0.70}
}

func newTestClassifier(t *testing.T, client Client, reach stubReach, settings service.Settings) (*RemoteClassifier, *budget.RateLimiter, *budget.CostLedger) {
	t.Helper()
	ctx := context.Background()
	limiter := budget.NewRateLimiter(ctx, nil, budget.RateLimitConfig{}, nil)
	ledger := budget.NewCostLedger(ctx, nil, budget.LedgerConfig{
		InputRatePerMTok:  0.80,
		OutputRatePerMTok: 4.00,
		Budgets: map[budget.Horizon]budget.HorizonBudget{
			budget.HorizonDaily: {BudgetUSD: 1.00, AlertThreshold: 0.80},
		},
	}, nil)
	c := NewRemoteClassifier(client, settings, reach, limiter, ledger, nil)
	return c, limiter, ledger
}

func TestRemoteClassifierSuccessAndCache(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{resp: CompletionResponse{
		Text:  "todo",
		Usage: Usage{InputTokens: 200, OutputTokens: 4},
	}}
	c, limiter, _ := newTestClassifier(t, client, true, testSettings())

	result, ok := c.Classify(ctx, "pick up the dry cleaning before friday")
	require.True(t, ok)
	assert.Equal(t, model.NoteTypeTodo, result.Type)
	assert.Equal(t, model.MethodLLM, result.Method)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
	assert.Equal(t, PromptVersion, result.PromptVersion)
	assert.Equal(t, 1, client.calls)

	// Identical text hits the cache and spends nothing further.
	again, ok := c.Classify(ctx, "pick up the dry cleaning before friday")
	require.True(t, ok)
	assert.Equal(t, result, again)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, budget.DefaultPerMinute-1, limiter.Remaining(ctx)["minute"])
}

func TestRemoteClassifierPreconditions(t *testing.T) {
	ctx := context.Background()
	text := "long enough text to classify remotely"

	t.Run("unreachable endpoint", func(t *testing.T) {
		client := &stubClient{resp: CompletionResponse{Text: "todo"}}
		c, _, _ := newTestClassifier(t, client, false, testSettings())

		_, ok := c.Classify(ctx, text)
		assert.False(t, ok)
		assert.Zero(t, client.calls)
		assert.False(t, c.Available(ctx))
	})

	t.Run("missing credential", func(t *testing.T) {
		client := &stubClient{resp: CompletionResponse{Text: "todo"}}
		settings := testSettings()
		settings.HasCredential = false
		c, _, _ := newTestClassifier(t, client, true, settings)

		_, ok := c.Classify(ctx, text)
		assert.False(t, ok)
		assert.Zero(t, client.calls)
	})

	t.Run("rate limit exhausted", func(t *testing.T) {
		client := &stubClient{resp: CompletionResponse{Text: "todo"}}
		c, limiter, _ := newTestClassifier(t, client, true, testSettings())
		for i := 0; i < budget.DefaultPerMinute; i++ {
			limiter.RecordSuccess(ctx)
		}

		_, ok := c.Classify(ctx, text)
		assert.False(t, ok)
		assert.Zero(t, client.calls)
	})

	t.Run("budget exceeded", func(t *testing.T) {
		client := &stubClient{resp: CompletionResponse{Text: "todo"}}
		c, _, ledger := newTestClassifier(t, client, true, testSettings())
		ledger.Record(ctx, 2_000_000, 0) // $1.60 against a $1.00 daily budget

		_, ok := c.Classify(ctx, text)
		assert.False(t, ok)
		assert.Zero(t, client.calls)
		assert.False(t, c.Available(ctx))
	})

	t.Run("nil client", func(t *testing.T) {
		c, _, _ := newTestClassifier(t, nil, true, testSettings())
		_, ok := c.Classify(ctx, text)
		assert.False(t, ok)
	})
}

func TestRemoteClassifierShortTextSkipsCall(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{resp: CompletionResponse{Text: "todo"}}
	c, limiter, _ := newTestClassifier(t, client, true, testSettings())

	_, ok := c.Classify(ctx, "  hi  ")
	assert.False(t, ok)
	assert.Zero(t, client.calls)
	assert.Equal(t, budget.DefaultPerMinute, limiter.Remaining(ctx)["minute"])
}

func TestRemoteClassifierFailedCallConsumesNoBudget(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{err: errors.New("connection reset")}
	c, limiter, ledger := newTestClassifier(t, client, true, testSettings())

	_, ok := c.Classify(ctx, "long enough text to classify remotely")
	assert.False(t, ok)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, budget.DefaultPerMinute, limiter.Remaining(ctx)["minute"])
	assert.Zero(t, ledger.Totals(ctx)[budget.HorizonLifetime].Calls)
}

func TestRemoteClassifierUnparseableResponseStillSpends(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{resp: CompletionResponse{
		Text:  "I cannot help with that.",
		Usage: Usage{InputTokens: 200, OutputTokens: 8},
	}}
	c, limiter, ledger := newTestClassifier(t, client, true, testSettings())

	_, ok := c.Classify(ctx, "long enough text to classify remotely")
	assert.False(t, ok)

	// The tokens were spent even though the answer was unusable.
	assert.Equal(t, budget.DefaultPerMinute-1, limiter.Remaining(ctx)["minute"])
	assert.Equal(t, uint32(1), ledger.Totals(ctx)[budget.HorizonLifetime].Calls)
}

func TestRemoteClassifierDetectSections(t *testing.T) {
	ctx := context.Background()

	t.Run("valid verdict", func(t *testing.T) {
		client := &stubClient{resp: CompletionResponse{
			Text: `{"hasSections": true, "confidence": 0.9, "sections": [
				{"content": "Buy milk", "type": "shopping", "tags": ["errands"], "reasoning": "list of items"},
				{"content": "Sync with Sarah", "type": "meeting", "tags": [], "reasoning": "scheduling language"}
			]}`,
			Usage: Usage{InputTokens: 400, OutputTokens: 120},
		}}
		c, _, _ := newTestClassifier(t, client, true, testSettings())

		verdict, ok := c.DetectSections(ctx, "Buy milk Sync with Sarah")
		require.True(t, ok)
		assert.True(t, verdict.HasSections)
		assert.InDelta(t, 0.9, verdict.Confidence, 1e-9)
		require.Len(t, verdict.Sections, 2)
		assert.Equal(t, model.NoteTypeShopping, verdict.Sections[0].Type)
		assert.Equal(t, []string{"errands"}, verdict.Sections[0].Tags)
		assert.Equal(t, model.NoteTypeMeeting, verdict.Sections[1].Type)
	})

	t.Run("garbage response", func(t *testing.T) {
		client := &stubClient{resp: CompletionResponse{Text: "not json at all"}}
		c, _, _ := newTestClassifier(t, client, true, testSettings())

		_, ok := c.DetectSections(ctx, "some text")
		assert.False(t, ok)
	})

	t.Run("client error", func(t *testing.T) {
		client := &stubClient{err: errors.New("timeout")}
		c, limiter, _ := newTestClassifier(t, client, true, testSettings())

		_, ok := c.DetectSections(ctx, "some text")
		assert.False(t, ok)
		assert.Equal(t, budget.DefaultPerMinute, limiter.Remaining(ctx)["minute"])
	})
}

func TestParseTypeToken(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantType       model.NoteType
		wantConfidence float64
		wantOK         bool
	}{
		{"bare token", "todo", model.NoteTypeTodo, 0.85, true},
		{"token with whitespace", "  meeting\n", model.NoteTypeMeeting, 0.85, true},
		{"quoted token", `"shopping"`, model.NoteTypeShopping, 0.85, true},
		{"token with period", "recipe.", model.NoteTypeRecipe, 0.85, true},
		{"hyphenated type", "claude-prompt", model.NoteTypeClaudePrompt, 0.85, true},
		{"recovered from prose", "I believe this is a shopping list.", model.NoteTypeShopping, 0.80, true},
		{"longest substring wins", "todo? no, this is a claude-prompt", model.NoteTypeClaudePrompt, 0.80, true},
		{"no type present", "I cannot determine the category.", "", 0, false},
		{"empty response", "", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noteType, confidence, _, ok := parseTypeToken(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantType, noteType)
			assert.InDelta(t, tt.wantConfidence, confidence, 1e-9)
		})
	}
}

func TestParseSectionVerdict(t *testing.T) {
	t.Run("fenced json with language tag", func(t *testing.T) {
		raw := "```json\n{\"hasSections\": false, \"confidence\": 0.4, \"sections\": []}\n```"
		verdict, ok := parseSectionVerdict(raw)
		require.True(t, ok)
		assert.False(t, verdict.HasSections)
		assert.InDelta(t, 0.4, verdict.Confidence, 1e-9)
		assert.Empty(t, verdict.Sections)
	})

	t.Run("type alias resolves", func(t *testing.T) {
		raw := `{"hasSections": true, "confidence": 0.88, "sections": [
			{"content": "fix the gate", "type": "task", "tags": ["house"], "reasoning": ""}
		]}`
		verdict, ok := parseSectionVerdict(raw)
		require.True(t, ok)
		require.Len(t, verdict.Sections, 1)
		assert.Equal(t, model.NoteTypeTodo, verdict.Sections[0].Type)
	})

	t.Run("unknown type falls back to general", func(t *testing.T) {
		raw := `{"hasSections": true, "confidence": 0.5, "sections": [
			{"content": "misc", "type": "whatnot", "tags": [], "reasoning": ""}
		]}`
		verdict, ok := parseSectionVerdict(raw)
		require.True(t, ok)
		require.Len(t, verdict.Sections, 1)
		assert.Equal(t, model.NoteTypeGeneral, verdict.Sections[0].Type)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, ok := parseSectionVerdict("{hasSections: yes}")
		assert.False(t, ok)
	})
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"fence with language", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence without language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}

package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/penfold-notes/penfold/internal/budget"
	"github.com/penfold-notes/penfold/internal/common"
	"github.com/penfold-notes/penfold/internal/model"
	"github.com/penfold-notes/penfold/internal/service"
)

// Confidence assigned to remote results. Slightly lower when the type had
// to be recovered by scanning the raw response instead of matching the
// bare token.
const (
	directMatchConfidence    = 0.85
	recoveredMatchConfidence = 0.80
)

// MinClassifiableLength is the shortest trimmed text worth a remote call.
// Shorter OCR text is too noisy to classify reliably.
const MinClassifiableLength = 10

// classifyMaxTokens bounds the classification response, which is expected
// to be just a type token.
const classifyMaxTokens = 16

// sectionMaxTokens bounds the section-detection JSON response.
const sectionMaxTokens = 1024

// RemoteClassifier wraps the provider client with every guard the remote
// stage needs: reachability, rate limit, credential, minimum length,
// result cache, and cost accounting. It never returns an error; any
// failure yields a missing result so the pipeline falls through.
type RemoteClassifier struct {
	client   Client
	settings service.Settings
	reach    service.Reachability
	limiter  *budget.RateLimiter
	ledger   *budget.CostLedger
	cache    *Cache
	logger   *slog.Logger
}

// NewRemoteClassifier wires the classifier to its collaborators.
func NewRemoteClassifier(
	client Client,
	settings service.Settings,
	reach service.Reachability,
	limiter *budget.RateLimiter,
	ledger *budget.CostLedger,
	logger *slog.Logger,
) *RemoteClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteClassifier{
		client:   client,
		settings: settings,
		reach:    reach,
		limiter:  limiter,
		ledger:   ledger,
		cache:    NewCache(DefaultCacheCapacity),
		logger:   logger,
	}
}

// Classify asks the remote model for the note type. Preconditions are
// checked in order, short-circuiting on the first failure; every failure
// path returns ok=false and nothing else.
func (c *RemoteClassifier) Classify(ctx context.Context, text string) (model.ClassificationResult, bool) {
	trimmed := strings.TrimSpace(text)

	if !c.preconditions(ctx) {
		return model.ClassificationResult{}, false
	}
	if len(trimmed) < MinClassifiableLength {
		c.logger.Debug("skipping remote classification", "reason", common.ErrTextTooSparse, "length", len(trimmed))
		return model.ClassificationResult{}, false
	}

	if cached, ok := c.cache.Get(trimmed); ok {
		c.logger.Debug("classification cache hit")
		return cached, true
	}

	resp, err := c.client.Complete(ctx, CompletionRequest{
		System:    classifySystemPrompt,
		Prompt:    buildClassificationPrompt(trimmed),
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		c.logger.Warn("remote classification failed", "error", err)
		return model.ClassificationResult{}, false
	}

	// The call succeeded and tokens were spent, so budget accounting
	// happens before we find out whether the response parses.
	c.recordUsage(ctx, resp.Usage)

	noteType, confidence, reasoning, ok := parseTypeToken(resp.Text)
	if !ok {
		c.logger.Warn("unparseable classification response", "response", resp.Text)
		return model.ClassificationResult{}, false
	}

	result := model.ClassificationResult{
		Type:          noteType,
		Confidence:    confidence,
		Method:        model.MethodLLM,
		Reasoning:     reasoning,
		PromptVersion: PromptVersion,
	}
	c.cache.Put(trimmed, result)

	c.logger.Info("note classified remotely",
		"type", noteType,
		"confidence", confidence,
		"prompt_version", PromptVersion)
	return result, true
}

// SectionVerdict is the remote model's view of whether the text holds
// multiple distinct notes.
type SectionVerdict struct {
	Sections    []SectionCandidate
	Confidence  float64
	HasSections bool
}

// SectionCandidate is one proposed section, before span resolution.
type SectionCandidate struct {
	Content   string
	Type      model.NoteType
	Tags      []string
	Reasoning string
}

// DetectSections asks the remote model whether the text is several notes
// glued together. Same guard rails as Classify; the caller owns the
// minimum-length gate for this path.
func (c *RemoteClassifier) DetectSections(ctx context.Context, text string) (SectionVerdict, bool) {
	if !c.preconditions(ctx) {
		return SectionVerdict{}, false
	}

	resp, err := c.client.Complete(ctx, CompletionRequest{
		System:    sectionSystemPrompt,
		Prompt:    buildSectionPrompt(text),
		MaxTokens: sectionMaxTokens,
	})
	if err != nil {
		c.logger.Warn("remote section detection failed", "error", err)
		return SectionVerdict{}, false
	}

	c.recordUsage(ctx, resp.Usage)

	verdict, ok := parseSectionVerdict(resp.Text)
	if !ok {
		c.logger.Warn("unparseable section response", "response", resp.Text)
		return SectionVerdict{}, false
	}
	return verdict, true
}

// Available reports whether a remote call would currently be attempted.
// The section splitter uses this to decide whether its semantic path is
// worth building a prompt for.
func (c *RemoteClassifier) Available(ctx context.Context) bool {
	return c.preconditions(ctx)
}

// preconditions checks the environment gates in order: reachability, rate
// budget, credential, spend budget.
func (c *RemoteClassifier) preconditions(ctx context.Context) bool {
	if c.client == nil {
		return false
	}
	if !c.reach.IsReachable() {
		c.logger.Debug("skipping remote classification", "reason", common.ErrUnreachable)
		return false
	}
	if !c.limiter.CanProceed(ctx) {
		c.logger.Debug("skipping remote classification", "reason", common.ErrRateLimited)
		return false
	}
	if !c.settings.CredentialConfigured() {
		c.logger.Debug("skipping remote classification", "reason", common.ErrNoCredential)
		return false
	}
	if status := c.ledger.Status(ctx); status.State == budget.Exceeded {
		c.logger.Warn("skipping remote classification",
			"reason", common.ErrBudgetExceeded,
			"horizon", status.Horizon,
			"current_usd", status.CurrentUSD,
			"budget_usd", status.BudgetUSD)
		return false
	}
	return true
}

// recordUsage counts a confirmed successful response against the rate
// windows and the cost ledger. Failed calls never reach here.
func (c *RemoteClassifier) recordUsage(ctx context.Context, usage Usage) {
	c.limiter.RecordSuccess(ctx)
	c.ledger.Record(ctx, usage.InputTokens, usage.OutputTokens)

	if status := c.ledger.Status(ctx); status.State == budget.Approaching {
		c.logger.Warn("classification spend approaching budget",
			"horizon", status.Horizon,
			"current_usd", status.CurrentUSD,
			"budget_usd", status.BudgetUSD)
	}
}

// parseTypeToken extracts a note type from the model's response. A clean
// bare token matches directly; otherwise the raw text is scanned for any
// known type substring, longest token first.
func parseTypeToken(raw string) (model.NoteType, float64, string, bool) {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.Trim(token, "\"'`.")

	if t, ok := model.ParseNoteType(token); ok {
		return t, directMatchConfidence, "model returned type token", true
	}

	lower := strings.ToLower(raw)
	var found model.NoteType
	foundLen := 0
	for _, t := range model.AllNoteTypes {
		name := string(t)
		if len(name) > foundLen && strings.Contains(lower, name) {
			found = t
			foundLen = len(name)
		}
	}
	if foundLen > 0 {
		return found, recoveredMatchConfidence, "type recovered from response text", true
	}

	return "", 0, "", false
}

// parseSectionVerdict decodes the strict-JSON section response, tolerating
// a markdown code fence around the body.
func parseSectionVerdict(raw string) (SectionVerdict, bool) {
	body := stripCodeFence(raw)
	if !gjson.Valid(body) {
		return SectionVerdict{}, false
	}

	root := gjson.Parse(body)
	verdict := SectionVerdict{
		HasSections: root.Get("hasSections").Bool(),
		Confidence:  root.Get("confidence").Float(),
	}

	root.Get("sections").ForEach(func(_, section gjson.Result) bool {
		candidate := SectionCandidate{
			Content:   section.Get("content").String(),
			Type:      model.TypeFromAlias(section.Get("type").String()),
			Reasoning: section.Get("reasoning").String(),
		}
		section.Get("tags").ForEach(func(_, tag gjson.Result) bool {
			if t := strings.TrimSpace(tag.String()); t != "" {
				candidate.Tags = append(candidate.Tags, t)
			}
			return true
		})
		verdict.Sections = append(verdict.Sections, candidate)
		return true
	})

	return verdict, true
}

// stripCodeFence removes a wrapping markdown code fence, with or without a
// language tag.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

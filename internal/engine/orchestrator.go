// Package engine composes the decision sources into the classification
// priority chain and the section splitter. The orchestrator is a total
// function: whatever fails upstream, every note leaves with a type.
package engine

import (
	"context"
	"log/slog"

	"github.com/penfold-notes/penfold/internal/detect"
	"github.com/penfold-notes/penfold/internal/llm"
	"github.com/penfold-notes/penfold/internal/model"
	"github.com/penfold-notes/penfold/internal/service"
)

// Stage confidence constants for the stages that carry a fixed score.
const (
	explicitConfidence     = 1.0
	voiceCommandConfidence = 0.80
	defaultConfidence      = 0.50
)

// Stage is one decision source in the priority chain. A stage that cannot
// decide returns ok=false and the orchestrator moves on; stages never
// return errors because remote failure must be unobservable to the caller
// beyond a lower-confidence result.
type Stage interface {
	Name() string
	TryClassify(ctx context.Context, text string) (model.ClassificationResult, bool)
}

// Orchestrator folds the ordered stage list over a note's text and stops
// at the first stage that produces a result. Stage order is data, not
// control flow, so tests can reorder or stub stages.
type Orchestrator struct {
	stages []Stage
	logger *slog.Logger
}

// NewOrchestrator builds the standard chain: explicit trigger, remote
// model, command phrase, heuristics, default.
func NewOrchestrator(
	triggers *detect.TriggerDetector,
	remote *llm.RemoteClassifier,
	settings service.Settings,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	stages := []Stage{
		&triggerStage{detector: triggers},
	}
	if remote != nil {
		stages = append(stages, &remoteStage{classifier: remote, settings: settings})
	}
	stages = append(stages,
		&commandStage{detector: detect.NewCommandPhraseDetector()},
		&heuristicStage{classifier: detect.NewHeuristicClassifier()},
		&defaultStage{},
	)

	return &Orchestrator{stages: stages, logger: logger}
}

// NewOrchestratorWithStages builds an orchestrator over an explicit stage
// list. The last stage should be total or classification may fall through
// to the built-in default result.
func NewOrchestratorWithStages(stages []Stage, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{stages: stages, logger: logger}
}

// Classify runs the chain and always returns a result.
func (o *Orchestrator) Classify(ctx context.Context, text string) model.ClassificationResult {
	for _, stage := range o.stages {
		if result, ok := stage.TryClassify(ctx, text); ok {
			o.logger.Debug("note classified",
				"stage", stage.Name(),
				"type", result.Type,
				"confidence", result.Confidence,
				"method", result.Method)
			return result
		}
	}

	// Only reachable when the caller supplied a custom chain without a
	// total final stage.
	return defaultResult()
}

// ShouldPromptManualReview decides whether the caller should ask the user
// to confirm a result. Explicit and manual results never need review: the
// user's intent was already explicit.
func ShouldPromptManualReview(result model.ClassificationResult, threshold float64, alwaysAsk bool) bool {
	if alwaysAsk {
		return true
	}
	if result.Method == model.MethodExplicit || result.Method == model.MethodManual {
		return false
	}
	return result.Confidence < threshold
}

func defaultResult() model.ClassificationResult {
	return model.ClassificationResult{
		Type:       model.NoteTypeGeneral,
		Confidence: defaultConfidence,
		Method:     model.MethodDefault,
		Reasoning:  "no decision source produced a type",
	}
}

// triggerStage resolves explicit markers.
type triggerStage struct {
	detector *detect.TriggerDetector
}

func (*triggerStage) Name() string { return "trigger" }

func (s *triggerStage) TryClassify(_ context.Context, text string) (model.ClassificationResult, bool) {
	noteType, ok := s.detector.Detect(text)
	if !ok {
		return model.ClassificationResult{}, false
	}
	return model.ClassificationResult{
		Type:       noteType,
		Confidence: explicitConfidence,
		Method:     model.MethodExplicit,
		Reasoning:  "explicit type marker in text",
	}, true
}

// remoteStage consults the remote model, gated on the caller's settings.
type remoteStage struct {
	classifier *llm.RemoteClassifier
	settings   service.Settings
}

func (*remoteStage) Name() string { return "remote" }

func (s *remoteStage) TryClassify(ctx context.Context, text string) (model.ClassificationResult, bool) {
	if !s.settings.RemoteClassificationEnabled() || !s.settings.CredentialConfigured() {
		return model.ClassificationResult{}, false
	}
	return s.classifier.Classify(ctx, text)
}

// commandStage matches natural-language command phrases.
type commandStage struct {
	detector *detect.CommandPhraseDetector
}

func (*commandStage) Name() string { return "command" }

func (s *commandStage) TryClassify(_ context.Context, text string) (model.ClassificationResult, bool) {
	noteType, ok := s.detector.Detect(text)
	if !ok {
		return model.ClassificationResult{}, false
	}
	return model.ClassificationResult{
		Type:       noteType,
		Confidence: voiceCommandConfidence,
		Method:     model.MethodVoiceCommand,
		Reasoning:  "command phrase in text",
	}, true
}

// heuristicStage applies content-shape predicates.
type heuristicStage struct {
	classifier *detect.HeuristicClassifier
}

func (*heuristicStage) Name() string { return "heuristic" }

func (s *heuristicStage) TryClassify(_ context.Context, text string) (model.ClassificationResult, bool) {
	noteType, confidence, ok := s.classifier.Classify(text)
	if !ok {
		return model.ClassificationResult{}, false
	}
	return model.ClassificationResult{
		Type:       noteType,
		Confidence: confidence,
		Method:     model.MethodHeuristic,
		Reasoning:  "content shape heuristic",
	}, true
}

// defaultStage is the terminal catch-all. It always decides.
type defaultStage struct{}

func (*defaultStage) Name() string { return "default" }

func (*defaultStage) TryClassify(_ context.Context, _ string) (model.ClassificationResult, bool) {
	return defaultResult(), true
}

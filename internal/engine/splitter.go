package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/penfold-notes/penfold/internal/detect"
	"github.com/penfold-notes/penfold/internal/llm"
	"github.com/penfold-notes/penfold/internal/model"
	"github.com/penfold-notes/penfold/internal/service"
)

// Semantic path gates: remote section detection is only worth the spend on
// longer text, and auto-split needs high model confidence.
const (
	semanticMinLength  = 100
	autoSplitThreshold = 0.85
)

// SectionSplitter decides whether one OCR blob is actually several notes.
// Explicit markers win; the remote model is a fallback; a single section
// covering the whole input is the floor.
type SectionSplitter struct {
	triggers     *detect.TriggerDetector
	remote       *llm.RemoteClassifier
	orchestrator *Orchestrator
	settings     service.Settings
	logger       *slog.Logger
}

// NewSectionSplitter wires the splitter to its collaborators. The remote
// classifier may be nil, which disables the semantic path.
func NewSectionSplitter(
	triggers *detect.TriggerDetector,
	remote *llm.RemoteClassifier,
	orchestrator *Orchestrator,
	settings service.Settings,
	logger *slog.Logger,
) *SectionSplitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SectionSplitter{
		triggers:     triggers,
		remote:       remote,
		orchestrator: orchestrator,
		settings:     settings,
		logger:       logger,
	}
}

// Split returns the ordered, non-overlapping sections of the text. Never
// empty: when nothing indicates multiple notes, the whole input is one
// section.
func (s *SectionSplitter) Split(ctx context.Context, text string) []model.Section {
	if sections, ok := s.splitExplicit(ctx, text); ok {
		s.logger.Debug("split on explicit markers", "sections", len(sections))
		return sections
	}

	if sections, ok := s.splitSemantic(ctx, text); ok {
		s.logger.Debug("split on remote verdict", "sections", len(sections))
		return sections
	}

	return []model.Section{s.wholeSection(ctx, text)}
}

// splitExplicit cuts the text at every delimited marker. Fails when fewer
// than two markers are present.
func (s *SectionSplitter) splitExplicit(ctx context.Context, text string) ([]model.Section, bool) {
	matches := s.triggers.DetectAll(text)
	if len(matches) < 2 {
		return nil, false
	}

	var sections []model.Section

	// Content before the first marker carries no explicit type; classify
	// it through the full chain instead of guessing.
	if leading := text[:matches[0].Start]; strings.TrimSpace(leading) != "" {
		result := s.orchestrator.Classify(ctx, leading)
		start, end := trimmedSpan(text, 0, matches[0].Start)
		sections = append(sections, model.Section{
			Content:         strings.TrimSpace(leading),
			SuggestedType:   result.Type,
			SuggestedTags:   ExtractHashtags(leading),
			Reasoning:       result.Reasoning,
			Start:           start,
			End:             end,
			Confidence:      result.Confidence,
			ShouldAutoSplit: true,
		})
	}

	for i, match := range matches {
		contentEnd := len(text)
		if i+1 < len(matches) {
			contentEnd = matches[i+1].Start
		}

		content := strings.TrimSpace(text[match.End:contentEnd])
		if content == "" {
			continue
		}

		start, end := trimmedSpan(text, match.End, contentEnd)
		sections = append(sections, model.Section{
			Content:       content,
			SuggestedType: match.Type,
			SuggestedTags: ExtractHashtags(content),
			Reasoning:     "explicit marker " + match.Raw,
			Start:         start,
			End:           end,
			Confidence:    explicitConfidence,
			// Explicit intent overrides any threshold.
			ShouldAutoSplit: true,
		})
	}

	if len(sections) == 0 {
		return nil, false
	}
	return sections, true
}

// splitSemantic asks the remote model for a section verdict and maps each
// claimed section back onto the source with a forward-only search, so
// sections come out in original order even if the model reorders them.
func (s *SectionSplitter) splitSemantic(ctx context.Context, text string) ([]model.Section, bool) {
	if s.remote == nil || !s.settings.RemoteClassificationEnabled() {
		return nil, false
	}
	if len(strings.TrimSpace(text)) <= semanticMinLength {
		return nil, false
	}
	if !s.remote.Available(ctx) {
		return nil, false
	}

	verdict, ok := s.remote.DetectSections(ctx, text)
	if !ok || !verdict.HasSections || len(verdict.Sections) < 2 {
		return nil, false
	}

	var sections []model.Section
	cursor := 0
	for _, candidate := range verdict.Sections {
		content := strings.TrimSpace(candidate.Content)
		if content == "" {
			continue
		}

		idx := strings.Index(text[cursor:], content)
		if idx < 0 {
			// The model paraphrased instead of quoting; the span cannot
			// be trusted, so drop this candidate.
			continue
		}
		start := cursor + idx
		end := start + len(content)
		cursor = end

		sections = append(sections, model.Section{
			Content:       content,
			SuggestedType: candidate.Type,
			SuggestedTags: mergeTags(candidate.Tags, ExtractHashtags(content)),
			Reasoning:     candidate.Reasoning,
			Start:         start,
			End:           end,
			// One shared top-level confidence gates one auto-split
			// decision; there is no per-section scoring.
			Confidence:      verdict.Confidence,
			ShouldAutoSplit: verdict.Confidence >= autoSplitThreshold,
		})
	}

	if len(sections) < 2 {
		return nil, false
	}
	return sections, true
}

// wholeSection is the floor: one section spanning the entire input, typed
// by the full chain, never auto-split.
func (s *SectionSplitter) wholeSection(ctx context.Context, text string) model.Section {
	result := s.orchestrator.Classify(ctx, text)
	return model.Section{
		Content:         strings.TrimSpace(text),
		SuggestedType:   result.Type,
		SuggestedTags:   ExtractHashtags(text),
		Reasoning:       result.Reasoning,
		Start:           0,
		End:             len(text),
		Confidence:      explicitConfidence,
		ShouldAutoSplit: false,
	}
}

// trimmedSpan narrows [start, end) to exclude the surrounding whitespace
// so section spans cover exactly their content.
func trimmedSpan(text string, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func mergeTags(primary, secondary []string) []string {
	seen := make(map[string]bool, len(primary)+len(secondary))
	var merged []string
	for _, tag := range append(append([]string{}, primary...), secondary...) {
		key := strings.ToLower(tag)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, tag)
	}
	return merged
}

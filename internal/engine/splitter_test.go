package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penfold-notes/penfold/internal/detect"
	"github.com/penfold-notes/penfold/internal/llm"
	"github.com/penfold-notes/penfold/internal/model"
	"github.com/penfold-notes/penfold/internal/service"
)

func newTestSplitter(t *testing.T, remote *llm.RemoteClassifier, settings service.Settings) *SectionSplitter {
	t.Helper()
	triggers := detect.NewTriggerDetector()
	orchestrator := NewOrchestrator(triggers, nil, settings, nil)
	return NewSectionSplitter(triggers, remote, orchestrator, settings, nil)
}

func TestSplitterExplicitMarkers(t *testing.T) {
	ctx := context.Background()
	splitter := newTestSplitter(t, nil, remoteSettings())

	t.Run("two markers make two sections", func(t *testing.T) {
		text := "#todo# Buy milk #meeting# Sync with Sarah"
		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 2)

		assert.Equal(t, "Buy milk", sections[0].Content)
		assert.Equal(t, model.NoteTypeTodo, sections[0].SuggestedType)
		assert.InDelta(t, 1.0, sections[0].Confidence, 1e-9)
		assert.True(t, sections[0].ShouldAutoSplit)
		assert.Equal(t, "Buy milk", text[sections[0].Start:sections[0].End])

		assert.Equal(t, "Sync with Sarah", sections[1].Content)
		assert.Equal(t, model.NoteTypeMeeting, sections[1].SuggestedType)
		assert.InDelta(t, 1.0, sections[1].Confidence, 1e-9)
		assert.True(t, sections[1].ShouldAutoSplit)
		assert.Equal(t, "Sync with Sarah", text[sections[1].Start:sections[1].End])
	})

	t.Run("preamble before first marker is classified", func(t *testing.T) {
		text := "misc scribbles up top #todo# Buy milk #idea# solar shed roof"
		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 3)

		assert.Equal(t, "misc scribbles up top", sections[0].Content)
		assert.Equal(t, model.NoteTypeGeneral, sections[0].SuggestedType)
		assert.True(t, sections[0].ShouldAutoSplit)

		assert.Equal(t, model.NoteTypeTodo, sections[1].SuggestedType)
		assert.Equal(t, model.NoteTypeIdea, sections[2].SuggestedType)
	})

	t.Run("single marker is not a split", func(t *testing.T) {
		text := "#todo# Buy milk and eggs"
		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 1)

		// The whole-input fallback still types the note through the chain.
		assert.Equal(t, model.NoteTypeTodo, sections[0].SuggestedType)
		assert.False(t, sections[0].ShouldAutoSplit)
	})

	t.Run("empty-bodied markers are skipped", func(t *testing.T) {
		text := "#todo# #meeting# Sync with Sarah"
		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 1)
		assert.Equal(t, "Sync with Sarah", sections[0].Content)
		assert.Equal(t, model.NoteTypeMeeting, sections[0].SuggestedType)
	})
}

func TestSplitterWholeSectionFallback(t *testing.T) {
	ctx := context.Background()
	splitter := newTestSplitter(t, nil, remoteSettings())

	text := "just one short note"
	sections := splitter.Split(ctx, text)
	require.Len(t, sections, 1)

	section := sections[0]
	assert.Equal(t, text, section.Content)
	assert.Equal(t, model.NoteTypeGeneral, section.SuggestedType)
	assert.Equal(t, 0, section.Start)
	assert.Equal(t, len(text), section.End)
	assert.InDelta(t, 1.0, section.Confidence, 1e-9)
	assert.False(t, section.ShouldAutoSplit)
}

// semanticFixture builds a two-part text and the matching remote verdict.
func semanticFixture(confidence float64) (string, string) {
	first := "Grocery run after work: milk, eggs, sourdough bread, and a bag of coffee beans for the weekend."
	second := "Plan the team offsite agenda with Sarah and book the room for next Thursday afternoon."
	text := first + " " + second

	verdict := fmt.Sprintf(`{"hasSections": true, "confidence": %.2f, "sections": [
		{"content": %q, "type": "shopping", "tags": ["errands"], "reasoning": "list of groceries"},
		{"content": %q, "type": "meeting", "tags": [], "reasoning": "scheduling language"}
	]}`, confidence, first, second)
	return text, verdict
}

func TestSplitterSemantic(t *testing.T) {
	ctx := context.Background()

	t.Run("confident verdict auto-splits", func(t *testing.T) {
		text, verdict := semanticFixture(0.90)
		client := &stubClient{text: verdict}
		splitter := newTestSplitter(t, newStubRemote(t, client), remoteSettings())

		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 2)
		assert.Equal(t, 1, client.calls)

		assert.Equal(t, model.NoteTypeShopping, sections[0].SuggestedType)
		assert.Equal(t, []string{"errands"}, sections[0].SuggestedTags)
		assert.True(t, sections[0].ShouldAutoSplit)
		assert.InDelta(t, 0.90, sections[0].Confidence, 1e-9)
		assert.Equal(t, sections[0].Content, text[sections[0].Start:sections[0].End])

		assert.Equal(t, model.NoteTypeMeeting, sections[1].SuggestedType)
		assert.True(t, sections[1].ShouldAutoSplit)
		assert.Equal(t, sections[1].Content, text[sections[1].Start:sections[1].End])
		assert.Greater(t, sections[1].Start, sections[0].End)
	})

	t.Run("hesitant verdict splits without auto-split", func(t *testing.T) {
		text, verdict := semanticFixture(0.70)
		client := &stubClient{text: verdict}
		splitter := newTestSplitter(t, newStubRemote(t, client), remoteSettings())

		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 2)
		assert.False(t, sections[0].ShouldAutoSplit)
		assert.False(t, sections[1].ShouldAutoSplit)
	})

	t.Run("short text never reaches the model", func(t *testing.T) {
		client := &stubClient{text: `{"hasSections": true, "confidence": 0.9, "sections": []}`}
		splitter := newTestSplitter(t, newStubRemote(t, client), remoteSettings())

		sections := splitter.Split(ctx, "two ideas mashed together")
		require.Len(t, sections, 1)
		assert.Zero(t, client.calls)
	})

	t.Run("remote disabled never reaches the model", func(t *testing.T) {
		text, verdict := semanticFixture(0.90)
		client := &stubClient{text: verdict}
		settings := remoteSettings()
		settings.RemoteEnabled = false
		splitter := newTestSplitter(t, newStubRemote(t, client), settings)

		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 1)
		assert.Zero(t, client.calls)
	})

	t.Run("paraphrased content falls back to one section", func(t *testing.T) {
		text, _ := semanticFixture(0.90)
		verdict := `{"hasSections": true, "confidence": 0.9, "sections": [
			{"content": "groceries to pick up", "type": "shopping", "tags": [], "reasoning": ""},
			{"content": "an offsite to plan", "type": "meeting", "tags": [], "reasoning": ""}
		]}`
		client := &stubClient{text: verdict}
		splitter := newTestSplitter(t, newStubRemote(t, client), remoteSettings())

		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 1)
		assert.False(t, sections[0].ShouldAutoSplit)
	})

	t.Run("reordered sections cannot be located", func(t *testing.T) {
		first := "Grocery run after work: milk, eggs, sourdough bread, and a bag of coffee beans for the weekend."
		second := "Plan the team offsite agenda with Sarah and book the room for next Thursday afternoon."
		text := first + " " + second

		// The model reports the sections in reverse order; the forward-only
		// cursor can locate only the first claim, so the split is rejected.
		verdict := fmt.Sprintf(`{"hasSections": true, "confidence": 0.9, "sections": [
			{"content": %q, "type": "meeting", "tags": [], "reasoning": ""},
			{"content": %q, "type": "shopping", "tags": [], "reasoning": ""}
		]}`, second, first)
		client := &stubClient{text: verdict}
		splitter := newTestSplitter(t, newStubRemote(t, client), remoteSettings())

		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 1)
	})

	t.Run("negative verdict falls back", func(t *testing.T) {
		text, _ := semanticFixture(0.90)
		client := &stubClient{text: `{"hasSections": false, "confidence": 0.3, "sections": []}`}
		splitter := newTestSplitter(t, newStubRemote(t, client), remoteSettings())

		sections := splitter.Split(ctx, text)
		require.Len(t, sections, 1)
		assert.Equal(t, 1, client.calls)
	})
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"errands", "Urgent", "house"},
		mergeTags([]string{"errands", "Urgent"}, []string{"urgent", "house", "ERRANDS"}))
	assert.Nil(t, mergeTags(nil, nil))
}

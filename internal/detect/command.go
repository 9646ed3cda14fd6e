package detect

import (
	"strings"

	"github.com/penfold-notes/penfold/internal/model"
)

// commandPhrases maps spoken or typed command phrasings to a note type.
// List order is fixed and encodes priority among ambiguous phrasings:
// reminder phrases win over meeting phrases, and so on.
var commandPhrases = []struct {
	noteType model.NoteType
	phrases  []string
}{
	{model.NoteTypeReminder, []string{
		"remind me to",
		"set a reminder",
		"don't let me forget",
		"dont let me forget",
	}},
	{model.NoteTypeMeeting, []string{
		"schedule a meeting",
		"set up a meeting",
		"meeting with",
		"notes from the meeting",
	}},
	{model.NoteTypeEmail, []string{
		"send an email",
		"draft an email",
		"email to",
		"write back to",
	}},
	{model.NoteTypeEvent, []string{
		"add to my calendar",
		"put on the calendar",
		"save the date",
	}},
	{model.NoteTypeShopping, []string{
		"add to shopping list",
		"add to the shopping list",
		"pick up from the store",
		"need to buy",
	}},
	{model.NoteTypeExpense, []string{
		"i spent",
		"log an expense",
		"expense report",
	}},
	{model.NoteTypeTodo, []string{
		"add a task",
		"add to my list",
		"things to do",
		"need to get done",
	}},
}

// CommandPhraseDetector matches natural-language command phrases. This
// path targets dictated or typed text rather than OCR output, so matching
// is plain containment with no fuzzy tolerance.
type CommandPhraseDetector struct{}

// NewCommandPhraseDetector returns a phrase detector over the built-in lists.
func NewCommandPhraseDetector() *CommandPhraseDetector {
	return &CommandPhraseDetector{}
}

// Detect reports the first note type whose phrase list hits the text.
func (*CommandPhraseDetector) Detect(text string) (model.NoteType, bool) {
	collapsed := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if collapsed == "" {
		return "", false
	}

	for _, entry := range commandPhrases {
		for _, phrase := range entry.phrases {
			if strings.Contains(collapsed, phrase) {
				return entry.noteType, true
			}
		}
	}
	return "", false
}

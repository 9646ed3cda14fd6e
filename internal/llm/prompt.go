package llm

import (
	"fmt"
	"strings"

	"github.com/penfold-notes/penfold/internal/model"
)

// PromptVersion tags every remote classification result with the prompt
// wording that produced it, so accuracy can later be correlated with
// prompt revisions. Bump it whenever the prompt text changes materially.
const PromptVersion = "v4"

const classifySystemPrompt = "You are a note classifier for OCR text from handwritten notes. " +
	"Respond with exactly one type token from the provided list and nothing else."

// typeRules gives one discriminating rule per type. The recurring theme:
// format alone never determines type, intent does. A bulleted list can be
// journal, shopping, or todo depending on what the writer meant.
var typeRules = []struct {
	noteType model.NoteType
	rule     string
}{
	{model.NoteTypeGeneral, "anything without a clearer intent, including reading notes and reference material"},
	{model.NoteTypeTodo, "actionable items the writer intends to complete; checkboxes alone do not decide this"},
	{model.NoteTypeMeeting, "notes about a discussion between people: agenda, attendees, decisions"},
	{model.NoteTypeEmail, "a message drafted to be sent to someone, often with a greeting or sign-off"},
	{model.NoteTypeContact, "a person's details: name with phone, email, company, or address"},
	{model.NoteTypeReminder, "a single time-anchored nudge to do one thing"},
	{model.NoteTypeExpense, "money spent: amounts with merchants or purposes"},
	{model.NoteTypeShopping, "items to purchase; a bare list of goods without amounts"},
	{model.NoteTypeRecipe, "ingredients and preparation steps for food"},
	{model.NoteTypeEvent, "a dated occasion to attend, not a task to complete"},
	{model.NoteTypeIdea, "a thought or proposal to explore later, not yet actionable"},
	{model.NoteTypeClaudePrompt, "an instruction written for an AI assistant to execute"},
	{model.NoteTypeJournal, "reflective writing about the writer's day, feelings, or experiences"},
}

// fewShotExamples cover the ambiguous cases the rules alone get wrong:
// book notes that look like todos, meeting notes that are really action
// items, lists whose intent decides the type.
var fewShotExamples = []struct {
	text     string
	noteType model.NoteType
}{
	{"milk, eggs, sourdough, coffee beans", model.NoteTypeShopping},
	{"call the dentist tomorrow at 9", model.NoteTypeReminder},
	{"Sync w/ Sarah 3pm. Attendees: me, Sarah, Raj. Decided to ship Friday.", model.NoteTypeMeeting},
	{"From standup: [ ] fix login bug [ ] email QA the build [ ] update docs", model.NoteTypeTodo},
	{"Atomic Habits ch. 3 - habits stack on existing routines - environment beats willpower", model.NoteTypeGeneral},
	{"Hi Mr. Alvarez, following up on the quote you sent last week. Could you resend the line items? Thanks, Dana", model.NoteTypeEmail},
	{"John Smith / Acme Corp / 555-123-4567 / john@acme.com", model.NoteTypeContact},
	{"lunch 14.50, taxi 23, parking 8", model.NoteTypeExpense},
	{"pasta: boil 10 min, brown garlic in butter, toss with lemon zest", model.NoteTypeRecipe},
	{"what if the scanner cached OCR output per page and only re-ran diffs", model.NoteTypeIdea},
	{"write a function that parses these CSV rows and explain each step", model.NoteTypeClaudePrompt},
}

// buildClassificationPrompt assembles the closed type list, per-type
// rules, and worked examples around the note text.
func buildClassificationPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Classify this OCR note text into exactly one of the following types.\n\n")
	sb.WriteString("Types and rules:\n")
	for _, tr := range typeRules {
		fmt.Fprintf(&sb, "- %s: %s\n", tr.noteType, tr.rule)
	}

	sb.WriteString("\nIMPORTANT: format alone never determines the type - intent does. ")
	sb.WriteString("A bulleted list can be journal, shopping, or todo depending on content.\n")

	sb.WriteString("\nExamples:\n")
	for _, ex := range fewShotExamples {
		fmt.Fprintf(&sb, "Text: %s\nType: %s\n\n", ex.text, ex.noteType)
	}

	fmt.Fprintf(&sb, "Text: %s\nType:", text)
	return sb.String()
}

const sectionSystemPrompt = "You split OCR text from handwritten notes into distinct notes. " +
	"Respond with a single JSON object and nothing else."

// buildSectionPrompt asks for a strict JSON verdict on whether the text
// holds multiple distinct notes.
func buildSectionPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Decide whether this OCR text contains MULTIPLE distinct notes glued together.\n\n")
	sb.WriteString("Respond with exactly this JSON shape:\n")
	sb.WriteString(`{"hasSections": bool, "confidence": number, "sections": [{"content": string, "type": string, "tags": [string], "reasoning": string}]}`)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- Only claim multiple sections when you are confident (>0.85) there are truly 2 or more distinct topics or types.\n")
	sb.WriteString("- Each section's content must be a verbatim passage of the original text, in original order.\n")
	fmt.Fprintf(&sb, "- type must be one of: %s\n", joinTypes())
	sb.WriteString("- When in doubt, answer hasSections=false with a single section.\n")

	fmt.Fprintf(&sb, "\nText:\n%s", text)
	return sb.String()
}

func joinTypes() string {
	names := make([]string, len(model.AllNoteTypes))
	for i, t := range model.AllNoteTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

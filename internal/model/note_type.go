// Package model defines the core domain models used throughout the application.
package model

import "strings"

// NoteType identifies the kind of note recovered from OCR text.
type NoteType string

// The closed set of note types. Adding a variant means touching the trigger
// tables, the alias table, and the classification prompt together.
const (
	NoteTypeGeneral      NoteType = "general"
	NoteTypeTodo         NoteType = "todo"
	NoteTypeMeeting      NoteType = "meeting"
	NoteTypeEmail        NoteType = "email"
	NoteTypeContact      NoteType = "contact"
	NoteTypeReminder     NoteType = "reminder"
	NoteTypeExpense      NoteType = "expense"
	NoteTypeShopping     NoteType = "shopping"
	NoteTypeRecipe       NoteType = "recipe"
	NoteTypeEvent        NoteType = "event"
	NoteTypeIdea         NoteType = "idea"
	NoteTypeClaudePrompt NoteType = "claude-prompt"
	NoteTypeJournal      NoteType = "journal"
)

// AllNoteTypes lists every valid type, in the order the classification
// prompt presents them.
var AllNoteTypes = []NoteType{
	NoteTypeGeneral,
	NoteTypeTodo,
	NoteTypeMeeting,
	NoteTypeEmail,
	NoteTypeContact,
	NoteTypeReminder,
	NoteTypeExpense,
	NoteTypeShopping,
	NoteTypeRecipe,
	NoteTypeEvent,
	NoteTypeIdea,
	NoteTypeClaudePrompt,
	NoteTypeJournal,
}

// ParseNoteType matches a string against the closed type set.
func ParseNoteType(s string) (NoteType, bool) {
	candidate := NoteType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range AllNoteTypes {
		if candidate == t {
			return t, true
		}
	}
	return "", false
}

// typeAliases maps tolerant marker and hashtag spellings to canonical types.
// Markers come from handwriting, so common synonyms are accepted.
var typeAliases = map[string]NoteType{
	"general":   NoteTypeGeneral,
	"note":      NoteTypeGeneral,
	"notes":     NoteTypeGeneral,
	"todo":      NoteTypeTodo,
	"todos":     NoteTypeTodo,
	"to-do":     NoteTypeTodo,
	"task":      NoteTypeTodo,
	"tasks":     NoteTypeTodo,
	"checklist": NoteTypeTodo,
	"meeting":   NoteTypeMeeting,
	"meetings":  NoteTypeMeeting,
	"minutes":   NoteTypeMeeting,
	"mtg":       NoteTypeMeeting,
	"email":     NoteTypeEmail,
	"mail":      NoteTypeEmail,
	"contact":   NoteTypeContact,
	"card":      NoteTypeContact,
	"reminder":  NoteTypeReminder,
	"reminders": NoteTypeReminder,
	"remind":    NoteTypeReminder,
	"expense":   NoteTypeExpense,
	"expenses":  NoteTypeExpense,
	"receipt":   NoteTypeExpense,
	"shopping":  NoteTypeShopping,
	"grocery":   NoteTypeShopping,
	"groceries": NoteTypeShopping,
	"recipe":    NoteTypeRecipe,
	"recipes":   NoteTypeRecipe,
	"event":     NoteTypeEvent,
	"events":    NoteTypeEvent,
	"calendar":  NoteTypeEvent,
	"idea":      NoteTypeIdea,
	"ideas":     NoteTypeIdea,
	"claude":    NoteTypeClaudePrompt,
	"prompt":    NoteTypeClaudePrompt,
	"ai":        NoteTypeClaudePrompt,
	"journal":   NoteTypeJournal,
	"diary":     NoteTypeJournal,
}

// TypeFromAlias resolves a marker or hashtag token to a note type.
// Unrecognized tokens resolve to general so an unknown marker still files
// the note somewhere sensible.
func TypeFromAlias(s string) NoteType {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return NoteTypeGeneral
}

// IsTypeAlias reports whether the token names a note type. Used to keep
// type markers out of suggested tags.
func IsTypeAlias(s string) bool {
	_, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

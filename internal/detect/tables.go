package detect

import "github.com/penfold-notes/penfold/internal/model"

// TriggerPattern describes the marker spellings that signal one note type.
// Fuzzy forms are pre-enumerated OCR-confusion variants, not computed at
// match time, so matching stays deterministic and testable.
type TriggerPattern struct {
	CanonicalType model.NoteType
	Keyword       string
	ExactForms    []string
	FuzzyForms    []string
}

// triggerPatterns lists every marker family in priority order. The
// assistant-prompt family is checked before the generic task family
// because several fuzzy forms overlap.
var triggerPatterns = []TriggerPattern{
	{
		CanonicalType: model.NoteTypeClaudePrompt,
		Keyword:       "claude",
		ExactForms:    []string{"#claude#", "#prompt#", "#ai#"},
		FuzzyForms: []string{
			"#c1aude#", "#ciaude#", "#cloude#", "#claode#",
			"#prornpt#", "#pronnpt#", "#pr0mpt#",
			"#a1#", "#al#",
		},
	},
	{
		CanonicalType: model.NoteTypeReminder,
		Keyword:       "reminder",
		ExactForms:    []string{"#reminder#", "#reminders#", "#remind#"},
		FuzzyForms: []string{
			"#rerninder#", "#renninder#", "#rem1nder#", "#remlnder#",
			"#rernind#", "#rem1nd#",
		},
	},
	{
		CanonicalType: model.NoteTypeMeeting,
		Keyword:       "meeting",
		ExactForms:    []string{"#meeting#", "#meetings#", "#minutes#", "#mtg#"},
		FuzzyForms: []string{
			"#rneeting#", "#nneeting#", "#meet1ng#", "#meetlng#",
			"#rneet1ng#", "#rninutes#", "#m1nutes#", "#mlnutes#",
		},
	},
	{
		CanonicalType: model.NoteTypeEmail,
		Keyword:       "email",
		ExactForms:    []string{"#email#", "#mail#"},
		FuzzyForms: []string{
			"#ernail#", "#emai1#", "#emaii#", "#ema1l#", "#emall#",
			"#rnail#", "#mai1#",
		},
	},
	{
		CanonicalType: model.NoteTypeContact,
		Keyword:       "contact",
		ExactForms:    []string{"#contact#", "#card#"},
		FuzzyForms: []string{
			"#c0ntact#", "#contoct#", "#c0ntoct#", "#cantact#",
		},
	},
	{
		CanonicalType: model.NoteTypeExpense,
		Keyword:       "expense",
		ExactForms:    []string{"#expense#", "#expenses#", "#receipt#"},
		FuzzyForms: []string{
			"#rece1pt#", "#recelpt#", "#receipr#",
		},
	},
	{
		CanonicalType: model.NoteTypeShopping,
		Keyword:       "shopping",
		ExactForms:    []string{"#shopping#", "#grocery#", "#groceries#"},
		FuzzyForms: []string{
			"#sh0pping#", "#shopp1ng#", "#shopplng#", "#shoppinq#",
			"#gr0cery#", "#qrocery#", "#grocerles#",
		},
	},
	{
		CanonicalType: model.NoteTypeRecipe,
		Keyword:       "recipe",
		ExactForms:    []string{"#recipe#", "#recipes#"},
		FuzzyForms: []string{
			"#rec1pe#", "#reclpe#", "#recipo#",
		},
	},
	{
		CanonicalType: model.NoteTypeEvent,
		Keyword:       "event",
		ExactForms:    []string{"#event#", "#events#", "#calendar#"},
		FuzzyForms: []string{
			"#ca1endar#", "#caiendar#", "#colendar#", "#calendor#",
		},
	},
	{
		CanonicalType: model.NoteTypeIdea,
		Keyword:       "idea",
		ExactForms:    []string{"#idea#", "#ideas#"},
		FuzzyForms: []string{
			"#1dea#", "#ldea#", "#ideo#", "#1deas#",
		},
	},
	{
		CanonicalType: model.NoteTypeJournal,
		Keyword:       "journal",
		ExactForms:    []string{"#journal#", "#diary#"},
		FuzzyForms: []string{
			"#j0urnal#", "#journa1#", "#journai#", "#journol#",
			"#d1ary#", "#dlary#", "#diory#",
		},
	},
	{
		CanonicalType: model.NoteTypeTodo,
		Keyword:       "todo",
		ExactForms:    []string{"#todo#", "#todos#", "#to-do#", "#task#", "#tasks#", "#checklist#"},
		FuzzyForms: []string{
			"#t0do#", "#tod0#", "#t0d0#", "#rodo#",
			"#tosk#", "#task5#", "#check1ist#", "#checkllst#",
		},
	},
	{
		CanonicalType: model.NoteTypeGeneral,
		Keyword:       "note",
		ExactForms:    []string{"#note#", "#notes#", "#general#"},
		FuzzyForms: []string{
			"#n0te#", "#n0tes#", "#genera1#", "#generai#",
			"#qeneral#", "#generol#",
		},
	},
}

// ocrSubstitutions maps a character of a true keyword to the strings OCR
// commonly reads it as.
var ocrSubstitutions = map[rune][]string{
	'm': {"rn", "nn"},
	'l': {"1", "i"},
	'o': {"0"},
	'g': {"q"},
	'a': {"o"},
	'i': {"l", "1"},
}

// substitutionVariants returns every single-character-substitution variant
// of the keyword under the OCR confusion table. The keyword itself is not
// included.
func substitutionVariants(keyword string) []string {
	var variants []string
	runes := []rune(keyword)
	for idx, r := range runes {
		subs, ok := ocrSubstitutions[r]
		if !ok {
			continue
		}
		for _, sub := range subs {
			variant := string(runes[:idx]) + sub + string(runes[idx+1:])
			variants = append(variants, variant)
		}
	}
	return variants
}

package model

// Section is one of potentially several logically distinct notes recovered
// from a single OCR text blob. Sections are ordered by position in the
// source text; spans never overlap and never exceed the source bounds.
type Section struct {
	Content         string
	SuggestedType   NoteType
	SuggestedTags   []string
	Reasoning       string
	Start           int
	End             int
	Confidence      float64
	ShouldAutoSplit bool
}

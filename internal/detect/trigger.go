// Package detect implements the stateless decision sources of the
// classification pipeline: explicit trigger markers with OCR-tolerant
// matching, natural-language command phrases, and content-shape heuristics.
package detect

import (
	"regexp"
	"strings"

	"github.com/penfold-notes/penfold/internal/model"
)

// markerDelimiter surrounds an explicit type marker, e.g. "#todo#".
const markerDelimiter = '#'

// triggerPrefixLen bounds how far into the text markers are searched.
// Markers only ever appear near the start of a note.
const triggerPrefixLen = 100

// loosePassWindow is how many characters after a bare delimiter the loose
// pass inspects for a mangled keyword.
const loosePassWindow = 10

// markerRegexp matches a delimited marker anywhere in the text. Used by
// DetectAll for multi-marker section detection.
var markerRegexp = regexp.MustCompile(`#([a-zA-Z][a-zA-Z0-9_-]{0,15})#`)

// TriggerMatch is one marker occurrence located in the source text.
// Start and End bound the marker itself, delimiters included.
type TriggerMatch struct {
	Raw   string
	Type  model.NoteType
	Start int
	End   int
}

// TriggerDetector performs exact and OCR-fuzzy matching of explicit type
// markers. All fuzzy and loose variants are precomputed at construction;
// detection allocates nothing on the hot path.
type TriggerDetector struct {
	patterns      []TriggerPattern
	looseVariants map[model.NoteType][]string
}

// NewTriggerDetector builds a detector over the built-in marker tables.
func NewTriggerDetector() *TriggerDetector {
	d := &TriggerDetector{
		patterns:      triggerPatterns,
		looseVariants: make(map[model.NoteType][]string, len(triggerPatterns)),
	}
	for _, p := range d.patterns {
		variants := append([]string{p.Keyword}, substitutionVariants(p.Keyword)...)
		d.looseVariants[p.CanonicalType] = variants
	}
	return d
}

// Detect reports the note type explicitly requested by a marker in the
// text, if any. Matching is case-insensitive and confined to the first
// 100 characters. Never returns an error; an unmatched text is the
// expected common case.
func (d *TriggerDetector) Detect(text string) (model.NoteType, bool) {
	prefix := strings.ToLower(text)
	if len(prefix) > triggerPrefixLen {
		prefix = prefix[:triggerPrefixLen]
	}

	// Exact pass.
	for _, p := range d.patterns {
		for _, form := range p.ExactForms {
			if strings.Contains(prefix, form) {
				return p.CanonicalType, true
			}
		}
	}

	// Fuzzy pass over pre-enumerated OCR misreads.
	normalized := normalizeMarkerText(prefix)
	for _, p := range d.patterns {
		for _, form := range p.FuzzyForms {
			if strings.Contains(normalized, form) {
				return p.CanonicalType, true
			}
		}
	}

	// Loose pass: a bare delimiter followed by something keyword-shaped.
	return d.detectLoose(normalized)
}

// detectLoose inspects the window after the first delimiter for a type
// keyword or any of its single-character OCR substitution variants.
func (d *TriggerDetector) detectLoose(normalized string) (model.NoteType, bool) {
	idx := strings.IndexRune(normalized, markerDelimiter)
	if idx < 0 || idx+1 >= len(normalized) {
		return "", false
	}

	window := normalized[idx+1:]
	if len(window) > loosePassWindow {
		window = window[:loosePassWindow]
	}

	for _, p := range d.patterns {
		for _, variant := range d.looseVariants[p.CanonicalType] {
			if strings.Contains(window, variant) {
				return p.CanonicalType, true
			}
		}
	}
	return "", false
}

// DetectAll locates every delimited marker in the text, in order of
// position. Unknown marker words resolve to the general type so that an
// unrecognized marker still opens a section.
func (d *TriggerDetector) DetectAll(text string) []TriggerMatch {
	locs := markerRegexp.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]TriggerMatch, 0, len(locs))
	for _, loc := range locs {
		raw := text[loc[2]:loc[3]]
		matches = append(matches, TriggerMatch{
			Raw:   raw,
			Type:  model.TypeFromAlias(raw),
			Start: loc[0],
			End:   loc[1],
		})
	}
	return matches
}

// normalizeMarkerText undoes the OCR damage that most often breaks marker
// delimiters: interior spaces, a period misread for the delimiter, and
// stray commas. The transform is idempotent.
func normalizeMarkerText(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", string(markerDelimiter))
	s = strings.ReplaceAll(s, ",", "")
	return s
}

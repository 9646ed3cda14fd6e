package detect

import (
	"regexp"
	"strings"

	"github.com/penfold-notes/penfold/internal/model"
)

// Confidence bounds for the business-card heuristic and the fixed
// confidence of the keyword predicates.
const (
	contactConfidenceMin = 0.70
	contactConfidenceMax = 0.95
	keywordConfidence    = 0.65
)

// Precompiled shape patterns. Built once; the classifier is stateless.
var (
	phoneRegexp = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailRegexp = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// meetingKeywords are the content words that mark meeting notes. At least
// two distinct hits are required so a passing mention does not reclassify
// an unrelated note.
var meetingKeywords = []string{
	"agenda",
	"attendees",
	"action items",
	"minutes",
	"next steps",
	"discussed",
	"follow up",
}

// todoMarkers are checkbox glyphs and list markers as they survive OCR.
var todoMarkers = []string{
	"[ ]",
	"[x]",
	"( )",
	"☐", // empty checkbox
	"☑", // checked checkbox
	"✓", // check mark
	"checklist",
}

// HeuristicClassifier applies content-shape predicates when no explicit
// signal decided the type. Pure function over the text, no state.
type HeuristicClassifier struct{}

// NewHeuristicClassifier returns a heuristic classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Classify runs the shape predicates in fixed order and returns the first
// hit: business-card shape, then meeting keywords, then todo markers.
func (h *HeuristicClassifier) Classify(text string) (model.NoteType, float64, bool) {
	if confidence, ok := h.businessCardConfidence(text); ok {
		return model.NoteTypeContact, confidence, true
	}
	if h.hasMeetingKeywords(text) {
		return model.NoteTypeMeeting, keywordConfidence, true
	}
	if h.hasTodoMarkers(text) {
		return model.NoteTypeTodo, keywordConfidence, true
	}
	return "", 0, false
}

// businessCardConfidence scores the card shape: a phone-like substring, an
// email-like substring, and a few short capitalized lines (name, title,
// company). The raw score maps onto [0.70, 0.95].
func (h *HeuristicClassifier) businessCardConfidence(text string) (float64, bool) {
	hasPhone := phoneRegexp.MatchString(text)
	hasEmail := emailRegexp.MatchString(text)
	capLines := shortCapitalizedLines(text)

	if !hasPhone && !hasEmail {
		return 0, false
	}
	if !(hasPhone && hasEmail) && capLines < 2 {
		return 0, false
	}

	score := 0
	if hasPhone {
		score += 3
	}
	if hasEmail {
		score += 3
	}
	if capLines > 3 {
		capLines = 3
	}
	score += capLines

	confidence := 0.50 + 0.05*float64(score)
	if confidence < contactConfidenceMin {
		confidence = contactConfidenceMin
	}
	if confidence > contactConfidenceMax {
		confidence = contactConfidenceMax
	}
	return confidence, true
}

// shortCapitalizedLines counts lines that look like a name or title:
// short, a handful of words, each word leading with a capital.
func shortCapitalizedLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 40 {
			continue
		}
		words := strings.Fields(line)
		if len(words) == 0 || len(words) > 4 {
			continue
		}
		capitalized := true
		for _, word := range words {
			r := rune(word[0])
			if r < 'A' || r > 'Z' {
				capitalized = false
				break
			}
		}
		if capitalized {
			count++
		}
	}
	return count
}

func (h *HeuristicClassifier) hasMeetingKeywords(text string) bool {
	lower := strings.ToLower(text)
	hits := 0
	for _, keyword := range meetingKeywords {
		if strings.Contains(lower, keyword) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

func (h *HeuristicClassifier) hasTodoMarkers(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range todoMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

package model

// ClassificationMethod indicates which pipeline stage produced a result.
type ClassificationMethod string

// Classification method constants.
const (
	MethodExplicit     ClassificationMethod = "EXPLICIT"
	MethodLLM          ClassificationMethod = "LLM"
	MethodVoiceCommand ClassificationMethod = "VOICE_COMMAND"
	MethodHeuristic    ClassificationMethod = "HEURISTIC"
	MethodManual       ClassificationMethod = "MANUAL"
	MethodDefault      ClassificationMethod = "DEFAULT"
)

// ClassificationResult is the outcome of classifying one note. It is
// immutable once produced; exactly one pipeline stage creates it.
type ClassificationResult struct {
	Type          NoteType
	Method        ClassificationMethod
	Reasoning     string
	PromptVersion string
	Confidence    float64
}

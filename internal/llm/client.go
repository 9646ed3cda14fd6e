package llm

import "context"

// Client defines the interface for remote model providers.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// CompletionRequest is one prompt bounded to a maximum output size.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Usage reports the token counts a call consumed.
type Usage struct {
	InputTokens  uint64
	OutputTokens uint64
}

// CompletionResponse carries the model's text plus usage for the ledger.
type CompletionResponse struct {
	Text  string
	Usage Usage
}

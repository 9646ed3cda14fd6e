// Package llm provides the remote model integration for note
// classification: the provider client, the bounded result cache, prompt
// construction, and the gated remote classifier that degrades to a
// missing result on any failure.
package llm

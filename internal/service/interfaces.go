// Package service defines the interfaces for all application services.
package service

import "context"

// Settings exposes the caller-owned knobs that gate remote classification.
type Settings interface {
	RemoteClassificationEnabled() bool
	CredentialConfigured() bool
	AlwaysAskForClassification() bool
	ConfidenceThreshold() float64
}

// Reachability probes whether the remote model endpoint is worth trying.
type Reachability interface {
	IsReachable() bool
}

// KVStore is the durable scalar store backing rate-limit and cost counters.
// Keys are namespaced by horizon and metric; values are stringified scalars.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// StaticSettings is a plain-value Settings implementation, convenient for
// configuration-driven callers and for tests.
type StaticSettings struct {
	RemoteEnabled bool
	HasCredential bool
	AlwaysAsk     bool
	Threshold     float64
}

// RemoteClassificationEnabled reports whether remote calls are allowed.
func (s StaticSettings) RemoteClassificationEnabled() bool { return s.RemoteEnabled }

// CredentialConfigured reports whether an API credential is present.
func (s StaticSettings) CredentialConfigured() bool { return s.HasCredential }

// AlwaysAskForClassification reports whether every result needs review.
func (s StaticSettings) AlwaysAskForClassification() bool { return s.AlwaysAsk }

// ConfidenceThreshold returns the manual-review confidence floor.
func (s StaticSettings) ConfidenceThreshold() float64 { return s.Threshold }

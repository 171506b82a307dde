// File path: internal/extractor/providers/provider.go
package providers

import "context"

// Provider is a chat-completion backend capable of returning structured
// JSON for a system/user prompt pair.
type Provider interface {
	// Complete sends one system+user exchange and returns the raw
	// assistant text.
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

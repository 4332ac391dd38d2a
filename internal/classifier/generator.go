package classifier

import "context"

// TextGenerator is the interface to a remote generative text service.
// The classifier and the advisory flow both consume it, which keeps the
// remote provider swappable and the callers testable without network
// access.
type TextGenerator interface {
	// Generate sends a system instruction and a user prompt and returns
	// the single generated completion.
	Generate(ctx context.Context, system, user string) (string, error)
}

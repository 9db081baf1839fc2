// Package ai defines the generative AI collaborator used to answer
// curriculum questions. The rest of the system only depends on the
// Answerer interface.
package ai

import "context"

// Answerer produces an answer for a prompt. Calls may take seconds and
// must be awaited with the supplied context.
type Answerer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

package translator

import "context"

// IdentityService echoes its input. It drives dry runs: the whole pipeline
// (tokenising, retries, run redistribution) executes without a model.
type IdentityService struct{}

func (IdentityService) Name() string {
	return "identity"
}

func (IdentityService) Translate(_ context.Context, text, _, _ string, _ GenerationParams) (string, error) {
	return text, nil
}

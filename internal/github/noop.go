package gh

import "context"

// NewNoopClient returns a Client whose lookups always report an unknown user, forcing
// identity resolution to fall back to synthesized values. Useful for tests and for
// running without API access.
func NewNoopClient() Client {
	return &noopClient{}
}

type noopClient struct{}

func (c *noopClient) GetUser(ctx context.Context, login string) (User, error) {
	return User{}, ErrUserNotFound
}

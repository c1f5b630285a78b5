package ports

import "context"

type credentialKey struct{}

// WithCredential returns a context carrying the bearer credential that
// backend calls made with it should present.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey{}, credential)
}

// CredentialFromContext returns the credential, or "" if none is set.
func CredentialFromContext(ctx context.Context) string {
	c, _ := ctx.Value(credentialKey{}).(string)
	return c
}

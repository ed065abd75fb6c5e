package provider

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Token is a minimal interface for token payloads that allows extracting claims.
// It is satisfied by *oidc.IDToken and by test fakes.
type Token interface {
	Claims(v interface{}) error
}

// IDTokenVerifier abstracts ID-token verification so local runs can opt into
// signature-less parsing.
type IDTokenVerifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v *oidcVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// Package identity projects whichever credential source is authoritative into
// a single read-only AuthUser.
package identity

import (
	"context"
	"sync"

	"github.com/workforcehub/hubauth/internal/api"
	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/provider"
)

// DefaultRole is assumed when neither source carries a role claim.
const DefaultRole = "USER"

// AuthUser is the derived, read-only identity projection.
type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	TenantID  string `json:"tenantId"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Provider is the slice of the identity provider capability the resolver reads.
type Provider interface {
	IsLoading() bool
	IsAuthenticated() bool
	CurrentUser() *provider.User
}

// WhoAmI fetches the identity bound to a backend credential.
type WhoAmI interface {
	Me(ctx context.Context) (*api.MeResponse, error)
}

// Resolver derives the AuthUser on demand. At most one derivation path runs
// per call: a backend credential with no provider user short-circuits the
// claims-based derivation entirely.
type Resolver struct {
	store    *credstore.Store
	provider Provider
	whoami   WhoAmI

	mu          sync.Mutex
	cachedMe    *api.MeResponse
	cachedToken string
}

func NewResolver(store *credstore.Store, p Provider, whoami WhoAmI) *Resolver {
	return &Resolver{store: store, provider: p, whoami: whoami}
}

// Resolve returns the current AuthUser, or (nil, true, nil) while the
// provider is still loading and no backend credential can short-circuit the
// wait, or (nil, false, nil) for an anonymous session.
func (r *Resolver) Resolve(ctx context.Context) (*AuthUser, bool, error) {
	backendToken := r.store.Access(ctx)

	if r.provider.IsLoading() && backendToken == "" {
		return nil, true, nil
	}

	if backendToken != "" && r.provider.CurrentUser() == nil {
		me, err := r.me(ctx, backendToken)
		if err != nil {
			return nil, false, err
		}
		name := me.Email
		if name == "" {
			name = "User"
		}
		return &AuthUser{
			ID:       me.ID,
			Email:    me.Email,
			Name:     name,
			TenantID: me.TenantID,
			Role:     me.Role,
		}, false, nil
	}

	u := r.provider.CurrentUser()
	if !r.provider.IsAuthenticated() || u == nil {
		return nil, false, nil
	}
	return fromClaims(u), false, nil
}

// me caches the whoami record per access token so repeated resolutions of the
// same backend session cost one network call.
func (r *Resolver) me(ctx context.Context, token string) (*api.MeResponse, error) {
	r.mu.Lock()
	if r.cachedMe != nil && r.cachedToken == token {
		me := r.cachedMe
		r.mu.Unlock()
		return me, nil
	}
	r.mu.Unlock()

	me, err := r.whoami.Me(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cachedMe = me
	r.cachedToken = token
	r.mu.Unlock()
	return me, nil
}

// fromClaims maps provider profile claims. Tenant resolution is a tolerant
// lookup: canonical tenantId, then legacy tenant_id, then the subject id.
func fromClaims(u *provider.User) *AuthUser {
	sub := u.StringClaim("sub")

	name := u.StringClaim("name")
	if name == "" {
		name = u.StringClaim("email")
	}
	if name == "" {
		name = "User"
	}

	tenant := u.StringClaim("tenantId")
	if tenant == "" {
		tenant = u.StringClaim("tenant_id")
	}
	if tenant == "" {
		tenant = sub
	}

	role := u.StringClaim("role")
	if role == "" {
		role = DefaultRole
	}

	return &AuthUser{
		ID:        sub,
		Email:     u.StringClaim("email"),
		Name:      name,
		TenantID:  tenant,
		Role:      role,
		AvatarURL: u.StringClaim("picture"),
	}
}

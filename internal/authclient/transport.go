// Package authclient decorates outgoing HTTP requests with a bearer
// credential and raises the unauthorized signal on 401 responses.
package authclient

import (
	"net/http"
	"sync"
	"time"

	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/eventbus"
	"github.com/workforcehub/hubauth/pkg/metrics"
)

// TokenAccessor returns the identity provider's current access token, or ""
// when no provider session exists.
type TokenAccessor func() string

// Transport is an http.RoundTripper applying credential precedence: the
// backend access token wins over the provider token; with neither present the
// request goes out unauthenticated and the receiving service decides.
//
// On a 401 response the transport publishes on the unauthorized bus and hands
// the response back unchanged. It never retries; renewal belongs to the
// subscriber on the bus.
type Transport struct {
	base  http.RoundTripper
	store *credstore.Store
	bus   *eventbus.Bus

	mu            sync.RWMutex
	providerToken TokenAccessor
}

func NewTransport(base http.RoundTripper, store *credstore.Store, bus *eventbus.Bus) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, store: store, bus: bus}
}

// RegisterProviderTokenAccessor late-binds the provider token source. The
// provider session only exists inside an authenticated context, so the
// accessor is injected after initialization; until then it stays nil and the
// transport simply skips the provider branch.
func (t *Transport) RegisterProviderTokenAccessor(fn TokenAccessor) {
	t.mu.Lock()
	t.providerToken = fn
	t.mu.Unlock()
}

func (t *Transport) token(req *http.Request) (string, string) {
	if tok := t.store.Access(req.Context()); tok != "" {
		return tok, "backend"
	}
	t.mu.RLock()
	fn := t.providerToken
	t.mu.RUnlock()
	if fn != nil {
		if tok := fn(); tok != "" {
			return tok, "provider"
		}
	}
	return "", "none"
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// precedence is resolved at call time so a pair cleared by the renewal
	// coordinator is never attached to a later request
	tok, source := t.token(req)

	out := req.Clone(req.Context())
	if tok != "" {
		out.Header.Set("Authorization", "Bearer "+tok)
	}
	metrics.RequestsAuthenticated.WithLabelValues(source).Inc()

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		metrics.UnauthorizedSignals.Inc()
		if t.bus != nil {
			t.bus.Publish()
		}
	}
	return resp, nil
}

// Client returns an *http.Client using this transport. Collaborators issue
// all business calls through it and never set Authorization themselves.
func (t *Transport) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

// Package exchange converts a freshly obtained identity token into a
// backend-issued credential pair via the gateway exchange endpoint.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/provider"
	"github.com/workforcehub/hubauth/pkg/logger"
	"github.com/workforcehub/hubauth/pkg/metrics"
)

// Routes the terminal states resolve to.
const (
	RouteLanding            = "/dashboard"
	RouteLogin              = "/login"
	RouteLoginMissingTokens = "/login?error=missing_tokens"
)

// defaultGraceDelay gives a human time to read a sign-in error before the
// redirect to login.
const defaultGraceDelay = 8 * time.Second

// Navigation is the action a terminal state resolves to. A non-zero Delay
// means the error message is shown for that long before following Route.
type Navigation struct {
	Route        string
	Delay        time.Duration
	ErrorMessage string
}

// Provider is the slice of the identity provider capability the flow reads.
type Provider interface {
	IsLoading() bool
	IsAuthenticated() bool
	Err() error
	CurrentUser() *provider.User
}

// Flow is the one-shot exchange state machine for a single callback visit.
// The started flag is set synchronously before the exchange call goes out, so
// concurrent Run invocations triggered by re-render storms issue exactly one
// request. The guard is keyed on the identity token: a fresh token means a new
// callback visit (a later sign-in after logout), which re-arms the guard.
type Flow struct {
	store       *credstore.Store
	client      *http.Client
	exchangeURL string
	graceDelay  time.Duration

	mu         sync.Mutex
	visitToken string
	started    bool
	completed  bool
}

// NewFlow builds a flow posting to exchangeURL, e.g. gateway + "/auth/google".
func NewFlow(store *credstore.Store, client *http.Client, exchangeURL string) *Flow {
	if client == nil {
		client = http.DefaultClient
	}
	return &Flow{store: store, client: client, exchangeURL: exchangeURL, graceDelay: defaultGraceDelay}
}

// Run advances the state machine. A nil result means the visit is still
// pending (provider loading, or an exchange already in flight) and the caller
// keeps showing the loading state.
func (f *Flow) Run(ctx context.Context, p Provider) *Navigation {
	if p.IsLoading() {
		return nil
	}

	user := p.CurrentUser()
	if !p.IsAuthenticated() || user == nil {
		if err := p.Err(); err != nil {
			logger.Errorf("exchange: provider callback error: %v", err)
			return &Navigation{Route: RouteLogin, Delay: f.graceDelay, ErrorMessage: err.Error()}
		}
		return &Navigation{Route: RouteLogin}
	}

	// a session without an identity token is sufficient on its own
	if user.IDToken == "" {
		return &Navigation{Route: RouteLanding}
	}

	f.mu.Lock()
	if user.IDToken != f.visitToken {
		f.visitToken = user.IDToken
		f.started, f.completed = false, false
	}
	if f.completed {
		f.mu.Unlock()
		return &Navigation{Route: RouteLanding}
	}
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	pair, err := f.exchange(ctx, user.IDToken)

	f.mu.Lock()
	f.completed = true
	f.mu.Unlock()

	if err != nil {
		// the backend pair is an enhancement, not a requirement: continue the
		// session on the provider token alone
		metrics.Exchanges.WithLabelValues("fallback").Inc()
		logger.Warnf("exchange: backend token exchange failed, continuing with provider token: %v", err)
		return &Navigation{Route: RouteLanding}
	}

	f.store.SetPair(ctx, pair.AccessToken, pair.RefreshToken)
	metrics.Exchanges.WithLabelValues("ok").Inc()
	logger.Infof("exchange: backend credential pair stored")
	return &Navigation{Route: RouteLanding}
}

func (f *Flow) exchange(ctx context.Context, idToken string) (*credstore.Pair, error) {
	body, err := json.Marshal(map[string]string{"idToken": idToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.exchangeURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("exchange endpoint returned %d", resp.StatusCode)
	}

	var pair credstore.Pair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("decode exchange response: %w", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, errors.New("exchange response missing tokens")
	}
	return &pair, nil
}

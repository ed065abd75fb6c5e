// Package provider wraps the federated login capability: current user
// snapshot, sign-in redirect, silent renewal and sign-out against an external
// OIDC identity provider.
package provider

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/workforcehub/hubauth/pkg/logger"
)

// ErrNoRenewableSession is returned by SigninSilent when there is no federated
// user or the provider issued no refresh token; the active session is then
// backend-only and cannot be renewed here.
var ErrNoRenewableSession = errors.New("no renewable provider session")

// renewLeeway is how long before token expiry the automatic renewal fires.
const renewLeeway = time.Minute

// Session holds the state of one federated identity session. It is safe for
// concurrent use; all snapshot mutations are whole-value replacements.
type Session struct {
	cfg      Config
	oauth    oauth2.Config
	provider *oidc.Provider
	verifier IDTokenVerifier

	mu      sync.Mutex
	loading bool
	err     error
	user    *User
	state   string
	pkce    string
	renew   *time.Timer
}

// NewSession discovers the provider's endpoints from the authority URL.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	p, err := oidc.NewProvider(ctx, cfg.Authority)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	var ver IDTokenVerifier = &oidcVerifier{verifier: p.Verifier(&oidc.Config{ClientID: cfg.ClientID})}
	if os.Getenv("ALLOW_INSECURE_TOKEN") == "true" {
		logger.Warnf("provider: ALLOW_INSECURE_TOKEN is set; ID token signatures are NOT verified")
		ver = NewInsecureVerifier()
	}

	return &Session{
		cfg:      cfg,
		provider: p,
		verifier: ver,
		oauth: oauth2.Config{
			ClientID:    cfg.ClientID,
			Endpoint:    p.Endpoint(),
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
		},
	}, nil
}

// CurrentUser returns the current snapshot, or nil when signed out.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// AccessToken returns the provider access token, or "" when signed out. This
// is the accessor registered into the request authenticator.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.AccessToken
}

// IsLoading reports whether a sign-in or renewal is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsAuthenticated reports whether a federated user is present.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Err returns the last sign-in error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// RecordError stores a sign-in failure reported out-of-band, e.g. an error
// query parameter on the callback redirect.
func (s *Session) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SigninRedirect starts a fresh authorization-code flow and returns the URL
// the user agent must visit. State and PKCE verifier are kept for the
// matching CompleteSignin call.
func (s *Session) SigninRedirect() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = randomState()
	s.pkce = oauth2.GenerateVerifier()

	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(s.pkce),
	}
	for k, v := range s.cfg.ExtraAuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return s.oauth.AuthCodeURL(s.state, opts...)
}

// CompleteSignin finishes the flow at the redirect URI: verifies state,
// exchanges the code (with the stored PKCE verifier) and builds the user
// snapshot from the ID token claims, optionally enriched from userinfo.
func (s *Session) CompleteSignin(ctx context.Context, code, state string) error {
	s.mu.Lock()
	s.loading = true
	expected, verifier := s.state, s.pkce
	s.state, s.pkce = "", ""
	s.mu.Unlock()

	err := s.completeSignin(ctx, code, state, expected, verifier)

	s.mu.Lock()
	s.loading = false
	s.err = err
	s.mu.Unlock()
	return err
}

func (s *Session) completeSignin(ctx context.Context, code, state, expected, verifier string) error {
	if expected == "" || state != expected {
		return errors.New("state mismatch on signin callback")
	}

	tok, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	rawID, _ := tok.Extra("id_token").(string)
	profile := map[string]interface{}{}
	if rawID != "" {
		idToken, err := s.verifier.Verify(ctx, rawID)
		if err != nil {
			return fmt.Errorf("invalid id token: %w", err)
		}
		if err := idToken.Claims(&profile); err != nil {
			return fmt.Errorf("failed to parse claims: %w", err)
		}
	}

	if s.cfg.LoadUserInfo {
		ui, err := s.provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
		if err != nil {
			logger.Warnf("provider: userinfo fetch failed: %v", err)
		} else {
			extra := map[string]interface{}{}
			if err := ui.Claims(&extra); err == nil {
				for k, v := range extra {
					profile[k] = v
				}
			}
		}
	}

	u := &User{
		Profile:      profile,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      rawID,
		Expiry:       tok.Expiry,
	}
	s.mu.Lock()
	s.user = u
	s.scheduleRenewLocked()
	s.mu.Unlock()

	logger.Infof("provider: signed in sub=%s", u.StringClaim("sub"))
	return nil
}

// SigninSilent renews the provider tokens without user interaction using the
// refresh grant. Failing when no renewable session exists lets the caller
// degrade to a forced sign-out.
func (s *Session) SigninSilent(ctx context.Context) error {
	s.mu.Lock()
	u := s.user
	if u == nil || u.RefreshToken == "" {
		s.mu.Unlock()
		return ErrNoRenewableSession
	}
	s.loading = true
	s.mu.Unlock()

	tok, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: u.RefreshToken}).Token()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		return fmt.Errorf("silent renewal failed: %w", err)
	}

	profile := u.Profile
	rawID := u.IDToken
	if fresh, ok := tok.Extra("id_token").(string); ok && fresh != "" {
		rawID = fresh
		if idToken, err := s.verifier.Verify(ctx, fresh); err == nil {
			updated := map[string]interface{}{}
			if err := idToken.Claims(&updated); err == nil {
				profile = updated
			}
		}
	}
	refresh := tok.RefreshToken
	if refresh == "" {
		// providers may omit the refresh token on renewal; keep the old one
		refresh = u.RefreshToken
	}
	s.user = &User{
		Profile:      profile,
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		IDToken:      rawID,
		Expiry:       tok.Expiry,
	}
	s.scheduleRenewLocked()
	return nil
}

// RemoveUser forces the session into a signed-out state.
func (s *Session) RemoveUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.renew != nil {
		s.renew.Stop()
		s.renew = nil
	}
	s.user = nil
}

// LogoutURL builds the provider's end-session URL when it advertises one,
// falling back to the configured post-logout redirect.
func (s *Session) LogoutURL() string {
	var disc struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := s.provider.Claims(&disc); err != nil || disc.EndSessionEndpoint == "" {
		return s.cfg.PostLogoutRedirectURI
	}

	q := url.Values{}
	if s.cfg.PostLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", s.cfg.PostLogoutRedirectURI)
	}
	s.mu.Lock()
	if s.user != nil && s.user.IDToken != "" {
		q.Set("id_token_hint", s.user.IDToken)
	}
	s.mu.Unlock()
	if len(q) == 0 {
		return disc.EndSessionEndpoint
	}
	return disc.EndSessionEndpoint + "?" + q.Encode()
}

// scheduleRenewLocked arms the automatic renewal timer. Callers hold s.mu.
func (s *Session) scheduleRenewLocked() {
	if !s.cfg.AutomaticSilentRenew {
		return
	}
	if s.renew != nil {
		s.renew.Stop()
	}
	if s.user == nil || s.user.Expiry.IsZero() {
		return
	}
	d := time.Until(s.user.Expiry) - renewLeeway
	if d < 5*time.Second {
		d = 5 * time.Second
	}
	s.renew = time.AfterFunc(d, func() {
		if err := s.SigninSilent(context.Background()); err != nil {
			logger.Warnf("provider: automatic renewal failed: %v", err)
		}
	})
}

func randomState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// rand.Read only fails when the OS entropy source is broken
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

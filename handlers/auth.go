package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/exchange"
	"github.com/workforcehub/hubauth/internal/identity"
	"github.com/workforcehub/hubauth/internal/provider"
	"github.com/workforcehub/hubauth/pkg/logger"
	"github.com/workforcehub/hubauth/pkg/middleware"
)

// ProviderSession is the identity provider capability consumed by the routes.
type ProviderSession interface {
	SigninRedirect() string
	CompleteSignin(ctx context.Context, code, state string) error
	SigninSilent(ctx context.Context) error
	RecordError(err error)
	RemoveUser()
	LogoutURL() string
	IsLoading() bool
	IsAuthenticated() bool
	Err() error
	CurrentUser() *provider.User
}

// AuthHandler holds dependencies
type AuthHandler struct {
	session  ProviderSession
	flow     *exchange.Flow
	store    *credstore.Store
	resolver *identity.Resolver
}

func NewAuthHandler(session ProviderSession, flow *exchange.Flow, store *credstore.Store, resolver *identity.Resolver) *AuthHandler {
	return &AuthHandler{session: session, flow: flow, store: store, resolver: resolver}
}

// Register mounts the public auth routes and the gated protected routes. The
// composition root passes a group carrying the auth-surface middleware.
func (h *AuthHandler) Register(r gin.IRouter) {
	r.GET("/login", h.Login)
	r.GET("/auth/start", h.Start)
	r.GET("/auth/callback", h.Callback)
	r.GET("/auth/silent", h.Silent)
	r.GET("/auth/backend-callback", h.BackendCallback)
	r.GET("/logout", h.Logout)

	protected := r.Group("/", middleware.SessionGate(h.store, h.session, exchange.RouteLogin))
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/me", h.Dashboard)
}

// Login renders the entry page. An error indicator from a failed redirect
// delivery arrives as ?error=<code>.
func (h *AuthHandler) Login(c *gin.Context) {
	var banner string
	if e := c.Query("error"); e != "" {
		banner = fmt.Sprintf(`<p class="error">Sign-in failed: %s</p>`, html.EscapeString(e))
	}
	page := fmt.Sprintf(`<!doctype html>
<html><head><title>Sign in</title></head>
<body>%s<a href="/auth/start">Sign in with your identity provider</a></body></html>`, banner)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// Start begins the authorization-code flow.
func (h *AuthHandler) Start(c *gin.Context) {
	c.Redirect(http.StatusFound, h.session.SigninRedirect())
}

// Callback lands the OAuth2 redirect_uri: it completes the provider sign-in,
// then runs the exchange flow and follows the navigation it resolves to.
func (h *AuthHandler) Callback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		desc := c.Query("error_description")
		if desc == "" {
			desc = e
		}
		h.session.RecordError(errors.New(desc))
	} else if code := c.Query("code"); code != "" {
		if err := h.session.CompleteSignin(c.Request.Context(), code, c.Query("state")); err != nil {
			// the flow below surfaces the recorded error with a grace delay
			logger.Errorf("callback: provider sign-in failed: %v", err)
		}
	}

	h.navigate(c, h.flow.Run(c.Request.Context(), h.session))
}

// Silent completes an unattended renewal round trip.
func (h *AuthHandler) Silent(c *gin.Context) {
	if err := h.session.SigninSilent(c.Request.Context()); err != nil {
		logger.Warnf("silent renew failed: %v", err)
		c.Redirect(http.StatusFound, exchange.RouteLogin)
		return
	}
	c.Redirect(http.StatusFound, exchange.RouteLanding)
}

// BackendCallback receives a backend-issued pair delivered via redirect query
// parameters from the server-driven OAuth flow.
func (h *AuthHandler) BackendCallback(c *gin.Context) {
	nav := exchange.DeliverRedirect(c.Request.Context(), h.store, c.Request.URL.Query())
	c.Redirect(http.StatusFound, nav.Route)
}

// Logout clears both credential sources and leaves via the provider's
// end-session URL when one is advertised.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.store.Clear(c.Request.Context())
	target := h.session.LogoutURL()
	h.session.RemoveUser()
	if target == "" {
		target = exchange.RouteLogin
	}
	c.Redirect(http.StatusFound, target)
}

// Dashboard is the protected landing route; it renders the resolved AuthUser.
func (h *AuthHandler) Dashboard(c *gin.Context) {
	user, loading, err := h.resolver.Resolve(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity lookup failed", "details": err.Error()})
		return
	}
	if loading || user == nil {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusOK, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// navigate translates an exchange navigation into an HTTP response. A nil
// navigation keeps the visitor on a self-refreshing loading page.
func (h *AuthHandler) navigate(c *gin.Context, nav *exchange.Navigation) {
	if nav == nil {
		page := `<!doctype html>
<html><head><meta http-equiv="refresh" content="1"><title>Signing in…</title></head>
<body><p>Completing sign-in…</p></body></html>`
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}
	if nav.Delay > 0 {
		page := fmt.Sprintf(`<!doctype html>
<html><head><meta http-equiv="refresh" content="%.0f;url=%s"><title>Sign-in problem</title></head>
<body><h2>Sign-in problem</h2><pre>%s</pre>
<p>Redirecting to login shortly, or <a href="%s">go now</a>.</p></body></html>`,
			nav.Delay.Seconds(), nav.Route, html.EscapeString(nav.ErrorMessage), nav.Route)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}
	c.Redirect(http.StatusFound, nav.Route)
}

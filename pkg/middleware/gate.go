package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/gate"
)

// SessionState is the slice of the provider session the gate reads.
type SessionState interface {
	IsLoading() bool
	IsAuthenticated() bool
}

var loadingPage = []byte(`<!doctype html>
<html><head><meta http-equiv="refresh" content="1"><title>Signing in…</title></head>
<body><p>Signing in…</p></body></html>`)

// SessionGate guards protected routes. The decision is re-evaluated on every
// request: a backend credential admits without consulting the provider,
// a loading provider renders a self-refreshing placeholder, and an anonymous
// session is redirected to loginRoute.
func SessionGate(store *credstore.Store, session SessionState, loginRoute string) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := gate.Decide(
			store.HasCredential(c.Request.Context()),
			session.IsLoading(),
			session.IsAuthenticated(),
		)
		switch decision {
		case gate.RenderLoading:
			c.Data(http.StatusOK, "text/html; charset=utf-8", loadingPage)
			c.Abort()
		case gate.RedirectToLogin:
			c.Redirect(http.StatusFound, loginRoute)
			c.Abort()
		default:
			c.Next()
		}
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/workforcehub/hubauth/internal/credstore"
)

type fakeState struct {
	loading       bool
	authenticated bool
}

func (f *fakeState) IsLoading() bool       { return f.loading }
func (f *fakeState) IsAuthenticated() bool { return f.authenticated }

func gatedRouter(store *credstore.Store, state *fakeState) *gin.Engine {
	r := gin.New()
	protected := r.Group("/", SessionGate(store, state, "/login"))
	protected.GET("/dashboard", func(c *gin.Context) { c.String(http.StatusOK, "protected") })
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateAdmitsBackendCredentialWhileProviderLoading(t *testing.T) {
	store := credstore.NewStore(credstore.NewMemoryStorage())
	store.SetPair(context.Background(), "acc", "ref")

	w := get(gatedRouter(store, &fakeState{loading: true}), "/dashboard")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "protected", w.Body.String())
}

func TestGateRendersLoadingPlaceholder(t *testing.T) {
	store := credstore.NewStore(credstore.NewMemoryStorage())

	w := get(gatedRouter(store, &fakeState{loading: true}), "/dashboard")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Signing in")
	require.NotContains(t, w.Body.String(), "protected")
}

func TestGateRedirectsAnonymousToLogin(t *testing.T) {
	store := credstore.NewStore(credstore.NewMemoryStorage())

	w := get(gatedRouter(store, &fakeState{}), "/dashboard")

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func TestGateAdmitsProviderSession(t *testing.T) {
	store := credstore.NewStore(credstore.NewMemoryStorage())

	w := get(gatedRouter(store, &fakeState{authenticated: true}), "/dashboard")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "protected", w.Body.String())
}

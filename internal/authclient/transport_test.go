package authclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/eventbus"
)

func newEchoServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestBackendTokenWinsOverProvider(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusOK)

	store := credstore.NewStore(credstore.NewMemoryStorage())
	store.SetPair(context.Background(), "backend-token", "ref")

	tr := NewTransport(nil, store, eventbus.New())
	tr.RegisterProviderTokenAccessor(func() string { return "provider-token" })

	resp, err := tr.Client(5 * time.Second).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, []string{"Bearer backend-token"}, *seen)
}

func TestProviderTokenUsedWhenNoBackendToken(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusOK)

	store := credstore.NewStore(credstore.NewMemoryStorage())
	tr := NewTransport(nil, store, eventbus.New())
	tr.RegisterProviderTokenAccessor(func() string { return "provider-token" })

	resp, err := tr.Client(5 * time.Second).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, []string{"Bearer provider-token"}, *seen)
}

func TestNoHeaderWithoutAnyCredential(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusOK)

	store := credstore.NewStore(credstore.NewMemoryStorage())
	tr := NewTransport(nil, store, eventbus.New())
	// accessor intentionally left unregistered

	resp, err := tr.Client(5 * time.Second).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, []string{""}, *seen)
}

func TestUnauthorizedPublishesSignalOnce(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusUnauthorized)

	store := credstore.NewStore(credstore.NewMemoryStorage())
	bus := eventbus.New()
	var signals int
	bus.Subscribe(func() { signals++ })

	tr := NewTransport(nil, store, bus)
	resp, err := tr.Client(5 * time.Second).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	// the 401 response is handed back unchanged; no retry happens
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 1, signals)
}

func TestClearedCredentialNotAttached(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusOK)

	store := credstore.NewStore(credstore.NewMemoryStorage())
	store.SetPair(context.Background(), "backend-token", "ref")
	tr := NewTransport(nil, store, eventbus.New())
	client := tr.Client(5 * time.Second)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	store.Clear(context.Background())

	resp, err = client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, []string{"Bearer backend-token", ""}, *seen)
}

func TestOriginalRequestHeadersUntouched(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusOK)

	store := credstore.NewStore(credstore.NewMemoryStorage())
	store.SetPair(context.Background(), "backend-token", "ref")
	tr := NewTransport(nil, store, eventbus.New())

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, req.Header.Get("Authorization"))
}

package exchange

import (
	"context"
	"net/url"

	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/pkg/logger"
)

// DeliverRedirect is the server-driven OAuth variant: the callback carries the
// backend pair directly in query parameters. Both parameters are required or
// nothing is stored.
func DeliverRedirect(ctx context.Context, store *credstore.Store, query url.Values) Navigation {
	token := query.Get("token")
	refresh := query.Get("refresh")
	if token == "" || refresh == "" {
		logger.Warnf("exchange: redirect delivery missing token parameters")
		return Navigation{Route: RouteLoginMissingTokens}
	}
	store.SetPair(ctx, token, refresh)
	return Navigation{Route: RouteLanding}
}

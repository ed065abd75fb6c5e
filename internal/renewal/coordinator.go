// Package renewal reacts to unauthorized signals by attempting a silent
// provider renewal, degrading to a forced sign-out when renewal is impossible.
package renewal

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/workforcehub/hubauth/internal/credstore"
	"github.com/workforcehub/hubauth/internal/eventbus"
	"github.com/workforcehub/hubauth/pkg/logger"
	"github.com/workforcehub/hubauth/pkg/metrics"
)

// ProviderSession is the slice of the identity provider capability the
// coordinator needs.
type ProviderSession interface {
	SigninSilent(ctx context.Context) error
	RemoveUser()
}

// Coordinator subscribes once to the unauthorized bus. Each signal triggers at
// most one renewal attempt; a failed attempt clears the backend credential
// pair and removes the provider user, which is the single graceful-degradation
// path back to "must log in again".
type Coordinator struct {
	provider ProviderSession
	store    *credstore.Store
	limiter  *rate.Limiter
	timeout  time.Duration
	renewing atomic.Bool
}

// NewCoordinator wires the coordinator. The limiter bounds renewal storms and
// may be nil to disable throttling.
func NewCoordinator(p ProviderSession, store *credstore.Store, limiter *rate.Limiter) *Coordinator {
	return &Coordinator{provider: p, store: store, limiter: limiter, timeout: 30 * time.Second}
}

// Subscribe registers the coordinator on the bus and returns the unsubscribe
// function. The composition root owns both ends.
func (c *Coordinator) Subscribe(bus *eventbus.Bus) func() {
	return bus.Subscribe(c.HandleUnauthorized)
}

// HandleUnauthorized runs one renewal attempt. A 401 raised by the renewal
// call itself re-enters here through the bus; the renewing flag makes that
// dispatch a no-op so the failure branch executes exactly once per original
// signal.
func (c *Coordinator) HandleUnauthorized() {
	if !c.renewing.CompareAndSwap(false, true) {
		return
	}
	defer c.renewing.Store(false)

	if c.limiter != nil && !c.limiter.Allow() {
		metrics.Renewals.WithLabelValues("skipped").Inc()
		logger.Debugf("renewal: throttled %s signal", eventbus.EventUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.provider.SigninSilent(ctx); err != nil {
		metrics.Renewals.WithLabelValues("failed").Inc()
		logger.Warnf("renewal: silent renewal failed, forcing sign-out: %v", err)
		c.store.Clear(ctx)
		c.provider.RemoveUser()
		return
	}
	metrics.Renewals.WithLabelValues("ok").Inc()
	logger.Debugf("renewal: silent renewal succeeded")
}

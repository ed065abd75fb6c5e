// Package gate decides whether a protected route renders, waits, or bounces
// to login, given the current credential and provider state.
package gate

// Decision is the outcome for one evaluation of a protected route.
type Decision int

const (
	RenderProtected Decision = iota
	RenderLoading
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case RenderProtected:
		return "protected"
	case RenderLoading:
		return "loading"
	case RedirectToLogin:
		return "login"
	}
	return "unknown"
}

// Decide applies the gate ordering. The order is load-bearing: a backend
// credential admits immediately, before the provider loading check, so a
// backend-only session never waits on a provider round trip.
func Decide(hasCredential, providerLoading, providerAuthenticated bool) Decision {
	if hasCredential {
		return RenderProtected
	}
	if providerLoading {
		return RenderLoading
	}
	if !providerAuthenticated {
		return RedirectToLogin
	}
	return RenderProtected
}

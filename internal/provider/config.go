package provider

// Config is the identity provider configuration surface. All flows use the
// authorization-code + PKCE grant; no client secret is ever held here.
type Config struct {
	Authority             string
	ClientID              string
	RedirectURI           string
	PostLogoutRedirectURI string
	Scopes                []string
	AutomaticSilentRenew  bool
	SilentRedirectURI     string
	LoadUserInfo          bool
	// ExtraAuthParams are appended to the authorization URL, e.g. a broker
	// identity hint such as kc_idp_hint=github.
	ExtraAuthParams map[string]string
}

// DefaultScopes requested when none are configured.
var DefaultScopes = []string{"openid", "profile", "email"}

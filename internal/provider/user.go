package provider

import "time"

// User is a snapshot of the federated session: profile claims plus the bearer
// tokens issued by the provider. The coordinator only reads it; the provider's
// renewal loop replaces the whole snapshot on refresh.
type User struct {
	Profile      map[string]interface{}
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
}

// StringClaim returns the named profile claim when it is a non-empty string.
func (u *User) StringClaim(key string) string {
	if u == nil || u.Profile == nil {
		return ""
	}
	if v, ok := u.Profile[key].(string); ok {
		return v
	}
	return ""
}

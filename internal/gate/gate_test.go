package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name          string
		hasCredential bool
		loading       bool
		authenticated bool
		want          Decision
	}{
		{"backend credential admits immediately", true, false, false, RenderProtected},
		{"backend credential wins over loading provider", true, true, false, RenderProtected},
		{"no credential and loading provider waits", false, true, false, RenderLoading},
		{"no credential and unauthenticated redirects", false, false, false, RedirectToLogin},
		{"provider session admits", false, false, true, RenderProtected},
		{"both sources present admits", true, false, true, RenderProtected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.hasCredential, tc.loading, tc.authenticated))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "protected", RenderProtected.String())
	assert.Equal(t, "loading", RenderLoading.String())
	assert.Equal(t, "login", RedirectToLogin.String())
	assert.Equal(t, "unknown", Decision(42).String())
}

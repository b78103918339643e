package ws

import (
	"net/http"
	"strings"
)

// originChecker enforces the configured origin allow-list on handshake.
// Requests without an Origin header (same-origin and non-browser clients) are
// allowed; mismatches fail the upgrade.
type originChecker struct {
	allowed map[string]bool
}

func newOriginChecker(origins []string) *originChecker {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[normalizeOrigin(origin)] = true
	}
	return &originChecker{allowed: allowed}
}

func (c *originChecker) Allow(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return c.allowed[normalizeOrigin(origin)]
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}

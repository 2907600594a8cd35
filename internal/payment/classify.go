package payment

import (
	"net/url"
	"strings"

	"github.com/Roxxy17/storefront-gateway/pkg/enums"
)

var terminalPathMarkers = []string{"finish", "success", "error", "unfinish"}

// Classification is the bridge's verdict on one observed navigation.
type Classification struct {
	Kind enums.NavigationKind
	// OrderIDHint is the order_id query parameter of a terminal URL.
	// It is a hint only; the stored session's order ids stay
	// authoritative.
	OrderIDHint string
}

// Classify decides how the embedded payment surface should treat a
// navigation request. Unparseable input is ordinary: the surface is
// free to try and fail on its own.
func Classify(raw string) Classification {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Classification{Kind: enums.NavigationKindOrdinary}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Classification{Kind: enums.NavigationKindOrdinary}
	}

	if isDeepLink(parsed) {
		return Classification{Kind: enums.NavigationKindDeepLink}
	}

	if isTerminal(parsed) {
		return Classification{
			Kind:        enums.NavigationKindTerminal,
			OrderIDHint: parsed.Query().Get("order_id"),
		}
	}

	return Classification{Kind: enums.NavigationKindOrdinary}
}

func isDeepLink(parsed *url.URL) bool {
	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "", "http", "https":
		return false
	case "about":
		// about:blank is the surface's own empty page, everything
		// else under about: is not a navigation we can hand off.
		return false
	}
	return true
}

func isTerminal(parsed *url.URL) bool {
	path := strings.ToLower(parsed.Path)
	for _, marker := range terminalPathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return parsed.Query().Has("transaction_status")
}

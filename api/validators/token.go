package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
)

// BearerToken extracts the bearer token from the request. The gateway
// never inspects it; the commerce upstream owns authentication and
// receives the token verbatim.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authorization required")
	}
	if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required")
	}
	token := strings.TrimSpace(raw[len("bearer "):])
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required")
	}
	return token, nil
}

package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/types"
)

const (
	defaultBaseURL           = "https://router.project-osrm.org"
	defaultTimeout           = 8 * time.Second
	errorBodyReadLimit int64 = 1024
)

var errTooFewWaypoints = errors.New("road route requires at least two waypoints")

// Client fetches driving routes from an OSRM-compatible server. The
// route is decoration only; callers must keep working when it fails.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default OSRM base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the routing client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Road is a drivable path through the requested waypoints.
type Road struct {
	DistanceMeters  float64
	DurationSeconds float64
	Polyline        []types.GeoPoint
}

// GetRoute fetches the driving route visiting the waypoints in order.
func (c *Client) GetRoute(ctx context.Context, waypoints []types.GeoPoint) (*Road, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "routing client not configured")
	}
	if len(waypoints) < 2 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errTooFewWaypoints, "build route request")
	}
	for _, point := range waypoints {
		if !point.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "route waypoints must be valid coordinates")
		}
	}

	// OSRM takes lng,lat pairs joined by semicolons.
	coords := make([]string, 0, len(waypoints))
	for _, point := range waypoints {
		coords = append(coords, formatCoord(point.Lng)+","+formatCoord(point.Lat))
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=geojson", c.baseURL, strings.Join(coords, ";"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build route request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute route request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &pkgerrors.UpstreamError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}, "route request failed")
	}

	var apiResp struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode route response")
	}

	if apiResp.Code != "Ok" || len(apiResp.Routes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("route lookup returned %q with %d routes", apiResp.Code, len(apiResp.Routes)))
	}

	route := apiResp.Routes[0]
	polyline := make([]types.GeoPoint, 0, len(route.Geometry.Coordinates))
	for _, pair := range route.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		polyline = append(polyline, types.GeoPoint{Lat: pair[1], Lng: pair[0]})
	}

	return &Road{
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
		Polyline:        polyline,
	}, nil
}

func formatCoord(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}

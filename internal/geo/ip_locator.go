package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const defaultIPLookupURL = "https://ipapi.co/json/"

// IPLocator approximates the device position from its public IP address.
// Private networks and lookup failures surface as ErrUnavailable.
type IPLocator struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewIPLocator creates a locator against an ipapi-compatible endpoint.
func NewIPLocator(url string, logger *logging.Logger) *IPLocator {
	if strings.TrimSpace(url) == "" {
		url = defaultIPLookupURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IPLocator{
		url:        url,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}
}

func (l *IPLocator) Locate(ctx context.Context) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return Position{}, fmt.Errorf("build ip lookup: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		l.logger.Warn("ip geolocation non-200 response", "status", resp.StatusCode)
		return Position{}, fmt.Errorf("%w: lookup returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Error     bool     `json:"error"`
		Reason    string   `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Position{}, fmt.Errorf("%w: decode lookup: %w", ErrUnavailable, err)
	}
	if body.Error || body.Latitude == nil || body.Longitude == nil {
		// ipapi answers {"error": true, "reason": "Reserved IP Address"} for private ranges.
		return Position{}, fmt.Errorf("%w: %s", ErrUnavailable, body.Reason)
	}
	return Position{Lat: *body.Latitude, Lng: *body.Longitude}, nil
}

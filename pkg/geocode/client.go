// Package geocode resolves free-text place descriptions to coordinates via
// ArcGIS, MapQuest or Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Backend identifies a geocoding service. Exactly one is active per run.
type Backend int

const (
	BackendArcGIS Backend = iota + 1
	BackendMapQuest
	BackendNominatim
)

// String implements fmt.Stringer.
func (b Backend) String() string {
	switch b {
	case BackendArcGIS:
		return "arcgis"
	case BackendMapQuest:
		return "mapquest"
	case BackendNominatim:
		return "nominatim"
	default:
		return "unknown"
	}
}

// Backends lists every supported backend.
func Backends() []Backend {
	return []Backend{BackendArcGIS, BackendMapQuest, BackendNominatim}
}

// ParseBackend maps a configuration value to a Backend.
func ParseBackend(s string) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, b := range Backends() {
		if b.String() == name {
			return b, nil
		}
	}
	return 0, eris.Errorf("geocode: unknown backend %q", s)
}

// Provider is a single geocoding backend.
type Provider interface {
	Name() string

	// Geocode resolves location text to its best candidate. A response with
	// no candidate is not an error: it returns Matched=false.
	Geocode(ctx context.Context, location string) (*Result, error)

	// Delay is the pause owed to the service after every call.
	Delay() time.Duration
}

// Result holds the best candidate a provider returned.
type Result struct {
	Latitude     float64
	Longitude    float64
	Address      string // matched address as reported by the provider
	Source       string
	Matched      bool
	CountryLevel bool // the match is only precise to a country
}

// Usable reports whether the result is a match finer than country level.
func (r *Result) Usable() bool {
	return r != nil && r.Matched && !r.CountryLevel
}

// Option configures a provider.
type Option func(*settings)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.httpClient = hc
	}
}

// WithBaseURL overrides the service endpoint.
func WithBaseURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithAPIKey sets the service key (required by MapQuest).
func WithAPIKey(key string) Option {
	return func(s *settings) {
		s.apiKey = key
	}
}

// WithUserAgent sets the User-Agent header (required by Nominatim's usage policy).
func WithUserAgent(ua string) Option {
	return func(s *settings) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithDelay overrides the backend's default post-call delay. Zero keeps the default.
func WithDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.delay = d
		}
	}
}

type settings struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	delay      time.Duration
}

// DefaultUserAgent identifies this tool to geocoding services.
const DefaultUserAgent = "geopost/1.0"

// New creates the provider for backend.
func New(backend Backend, opts ...Option) (Provider, error) {
	s := settings{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  DefaultUserAgent,
	}
	switch backend {
	case BackendArcGIS:
		s.baseURL, s.delay = arcgisURL, 1100*time.Millisecond
	case BackendMapQuest:
		s.baseURL, s.delay = mapquestURL, time.Second
	case BackendNominatim:
		s.baseURL, s.delay = nominatimURL, time.Second
	default:
		return nil, eris.Errorf("geocode: unsupported backend %d", backend)
	}
	for _, opt := range opts {
		opt(&s)
	}

	switch backend {
	case BackendArcGIS:
		return &ArcGIS{settings: s}, nil
	case BackendMapQuest:
		if s.apiKey == "" {
			return nil, eris.New("geocode: mapquest api key not configured")
		}
		return &MapQuest{settings: s}, nil
	default:
		return &Nominatim{settings: s}, nil
	}
}

// getJSON issues a GET against the provider endpoint and decodes the body into out.
func (s *settings) getJSON(ctx context.Context, name string, params url.Values, out any) error {
	reqURL := s.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s build request", name)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s request", name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geocode: %s returned status %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s read body", name)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "geocode: %s parse response", name)
	}
	return nil
}

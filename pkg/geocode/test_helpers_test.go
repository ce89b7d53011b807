package geocode

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// newRewriteClient creates an HTTP client that rewrites requests to a test server URL.
// All requests matching the target prefix are redirected to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		suffix := origURL[len(t.targetPrefix):]
		newURL := t.testServer + suffix
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(newURL)
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}

// newTestProvider serves body from a test server and builds the provider for
// backend pointed at it. The last request is captured in *got.
func newTestProvider(t *testing.T, backend Backend, status int, body string, got **http.Request) Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			*got = r.Clone(r.Context())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	var target string
	switch backend {
	case BackendArcGIS:
		target = arcgisURL
	case BackendMapQuest:
		target = mapquestURL
	default:
		target = nominatimURL
	}

	p, err := New(backend,
		WithHTTPClient(newRewriteClient(srv.URL, target)),
		WithAPIKey("test-key"),
	)
	require.NoError(t, err)
	return p
}

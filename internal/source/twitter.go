package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/geopost/internal/model"
	"github.com/sells-group/geopost/internal/resilience"
)

const (
	defaultTwitterURL = "https://api.twitter.com/1.1"
	maxPageSize       = 100
)

type searchResponse struct {
	Statuses []status   `json:"statuses"`
	Errors   []apiError `json:"errors"`
}

// TwitterOption configures a TwitterSource.
type TwitterOption func(*TwitterSource)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) TwitterOption {
	return func(s *TwitterSource) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithPageSize sets the statuses requested per page (max 100).
func WithPageSize(n int) TwitterOption {
	return func(s *TwitterSource) {
		if n > 0 && n <= maxPageSize {
			s.pageSize = n
		}
	}
}

// WithPageRate limits page requests per second.
func WithPageRate(rps float64) TwitterOption {
	return func(s *TwitterSource) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLang restricts results to a language code. Empty disables the filter.
func WithLang(lang string) TwitterOption {
	return func(s *TwitterSource) {
		s.lang = lang
	}
}

// WithRetry sets the retry policy for transient page failures.
func WithRetry(cfg resilience.RetryConfig) TwitterOption {
	return func(s *TwitterSource) {
		s.retry = cfg
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) TwitterOption {
	return func(s *TwitterSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// TwitterSource pages the v1.1 standard search API.
type TwitterSource struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	lang       string
	timeout    time.Duration
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	query      Query

	buf      []*model.Post
	maxID    int64
	returned int
	done     bool
}

// OpenTwitter authenticates with the search API and returns a source for q.
// Any failure here wraps ErrAuth.
func OpenTwitter(ctx context.Context, creds Credentials, q Query, opts ...TwitterOption) (*TwitterSource, error) {
	if err := creds.Validate(); err != nil {
		return nil, eris.Wrapf(ErrAuth, "source: twitter credentials: %v", err)
	}

	s := &TwitterSource{
		baseURL:  defaultTwitterURL,
		pageSize: maxPageSize,
		lang:     "en",
		timeout:  30 * time.Second,
		limiter:  rate.NewLimiter(rate.Limit(1), 1),
		retry:    resilience.DefaultRetryConfig(),
		query:    q,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.retry.ShouldRetry = func(err error) bool {
		return !errors.Is(err, ErrThrottled) && resilience.IsTransient(err)
	}
	s.retry.OnRetry = resilience.RetryLogger("twitter", "search")

	cfg := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	s.httpClient = cfg.Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret))
	s.httpClient.Timeout = s.timeout

	if err := s.verify(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TwitterSource) verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/account/verify_credentials.json", nil)
	if err != nil {
		return eris.Wrapf(ErrAuth, "source: twitter build verify request: %v", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(ErrAuth, "source: twitter verify credentials: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Wrapf(ErrAuth, "source: twitter verify credentials returned status %d", resp.StatusCode)
	}
	return nil
}

// Next implements PostSource.
func (s *TwitterSource) Next(ctx context.Context) (*model.Post, error) {
	if s.returned >= s.query.MaxItems {
		return nil, io.EOF
	}
	if len(s.buf) == 0 {
		if s.done {
			return nil, io.EOF
		}
		if err := s.fetchPage(ctx); err != nil {
			return nil, err
		}
		if len(s.buf) == 0 {
			return nil, io.EOF
		}
	}

	p := s.buf[0]
	s.buf = s.buf[1:]
	s.returned++
	return p, nil
}

func (s *TwitterSource) fetchPage(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "source: twitter page limiter")
	}

	count := s.pageSize
	if remaining := s.query.MaxItems - s.returned; remaining < count {
		count = remaining
	}
	params := url.Values{
		"q":          {s.query.SearchText()},
		"count":      {strconv.Itoa(count)},
		"tweet_mode": {"extended"},
	}
	if s.lang != "" {
		params.Set("lang", s.lang)
	}
	if s.query.Until != "" {
		params.Set("until", s.query.Until)
	}
	if s.maxID > 0 {
		params.Set("max_id", strconv.FormatInt(s.maxID, 10))
	}

	page, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*searchResponse, error) {
		return s.search(ctx, params)
	})
	if err != nil {
		return err
	}

	if len(page.Statuses) == 0 {
		s.done = true
		return nil
	}
	for i := range page.Statuses {
		st := &page.Statuses[i]
		s.buf = append(s.buf, st.toPost())
		if s.maxID == 0 || st.ID <= s.maxID {
			s.maxID = st.ID - 1
		}
	}
	zap.L().Debug("twitter: fetched page",
		zap.Int("statuses", len(page.Statuses)),
		zap.Int64("next_max_id", s.maxID),
	)
	return nil
}

func (s *TwitterSource) search(ctx context.Context, params url.Values) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search/tweets.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: twitter build search request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "source: twitter search request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "source: twitter read body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, searchStatusError(resp.StatusCode, body)
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, eris.Wrap(err, "source: twitter parse search response")
	}
	if hasRateLimitError(page.Errors) {
		return nil, eris.Wrap(ErrThrottled, "source: twitter search reported rate limit")
	}
	return &page, nil
}

// errorResponse is the error envelope of a failed search.
type errorResponse struct {
	Errors []apiError `json:"errors"`
}

func searchStatusError(code int, body []byte) error {
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		zap.L().Debug("twitter: error body is not JSON", zap.Int("status", code), zap.Error(err))
	}

	switch {
	case code == http.StatusTooManyRequests || hasRateLimitError(envelope.Errors):
		return eris.Wrapf(ErrThrottled, "source: twitter search returned status %d", code)
	case resilience.IsTransientHTTPStatus(code):
		return resilience.NewTransientError(
			eris.Errorf("source: twitter search returned status %d", code), code)
	default:
		return eris.Errorf("source: twitter search returned status %d", code)
	}
}

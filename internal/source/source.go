// Package source streams post records from a search provider.
package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geopost/internal/model"
)

var (
	// ErrAuth marks a failure to authenticate with or reach the provider
	// while opening a source. Nothing has been streamed yet.
	ErrAuth = errors.New("source: authentication failed")

	// ErrThrottled marks the provider refusing further pages because the
	// rate limit is exhausted.
	ErrThrottled = errors.New("source: provider rate limit exhausted")
)

// MaxItemsLimit bounds Query.MaxItems.
const MaxItemsLimit = 2000

// DateLayout is the accepted format of Query.Since and Query.Until.
const DateLayout = "2006-01-02"

// PostSource is a lazy, forward-only sequence of posts. Next returns io.EOF
// once the sequence is exhausted and an error matching ErrThrottled when the
// provider stops it early.
type PostSource interface {
	Next(ctx context.Context) (*model.Post, error)
}

// Opener creates a fresh PostSource. Errors returned here are open-time
// failures and wrap ErrAuth.
type Opener func(ctx context.Context) (PostSource, error)

// Query selects the posts to stream.
type Query struct {
	Text     string
	Since    string // optional, YYYY-MM-DD
	Until    string // optional, YYYY-MM-DD
	MaxItems int
}

// Validate checks the query before any provider is contacted.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return eris.New("source: query text is required")
	}
	if q.MaxItems < 1 || q.MaxItems > MaxItemsLimit {
		return eris.Errorf("source: max items must be between 1 and %d, got %d", MaxItemsLimit, q.MaxItems)
	}
	var since, until time.Time
	var err error
	if q.Since != "" {
		if since, err = time.Parse(DateLayout, q.Since); err != nil {
			return eris.Wrapf(err, "source: invalid since date %q", q.Since)
		}
	}
	if q.Until != "" {
		if until, err = time.Parse(DateLayout, q.Until); err != nil {
			return eris.Wrapf(err, "source: invalid until date %q", q.Until)
		}
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return eris.Errorf("source: until %s is before since %s", q.Until, q.Since)
	}
	return nil
}

// SearchText is the provider query string including the since operator.
func (q Query) SearchText() string {
	text := strings.TrimSpace(q.Text)
	if q.Since != "" {
		text += " since:" + q.Since
	}
	return text
}

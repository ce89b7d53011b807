// Package resolve determines a coordinate for a post: from its embedded
// geography when present, otherwise by geocoding the author location.
package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopost/internal/model"
	"github.com/sells-group/geopost/pkg/geocode"
)

// Method records how an outcome was reached.
type Method int

const (
	// MethodNone is the "no usable resolution" sentinel.
	MethodNone Method = iota
	MethodEmbedded
	MethodGeocoded
)

// String implements fmt.Stringer.
func (m Method) String() string {
	switch m {
	case MethodEmbedded:
		return "embedded"
	case MethodGeocoded:
		return "geocoded"
	default:
		return "none"
	}
}

// Outcome is the result of resolving one post.
type Outcome struct {
	Latitude  float64
	Longitude float64
	Method    Method
}

// Resolved reports whether the outcome carries a usable coordinate.
func (o Outcome) Resolved() bool {
	return o.Method != MethodNone
}

// unsetLocations are author locations that carry no place information.
var unsetLocations = map[string]struct{}{
	"":        {},
	"none":    {},
	"null":    {},
	"unknown": {},
	"n/a":     {},
}

// IsUnsetLocation reports whether location text should not be geocoded.
func IsUnsetLocation(s string) bool {
	_, ok := unsetLocations[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSleep replaces the cooperative delay implementation.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(r *Resolver) {
		r.sleep = fn
	}
}

// Resolver turns posts into coordinates. It is not safe for concurrent use;
// one pipeline run owns one resolver.
type Resolver struct {
	provider geocode.Provider
	sleep    func(ctx context.Context, d time.Duration)
}

// New creates a Resolver that geocodes through provider.
func New(provider geocode.Provider, opts ...Option) *Resolver {
	r := &Resolver{provider: provider, sleep: sleepCtx}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails: every provider or parse problem collapses to the
// MethodNone sentinel.
func (r *Resolver) Resolve(ctx context.Context, post *model.Post) Outcome {
	if post.HasEmbeddedGeo() {
		lat, lon, err := ParseEmbedded(post.EmbeddedGeo)
		if err != nil {
			zap.L().Debug("resolve: rejected embedded geography",
				zap.Int64("post_id", post.ID),
				zap.Error(err),
			)
			return Outcome{}
		}
		return Outcome{Latitude: lat, Longitude: lon, Method: MethodEmbedded}
	}

	if IsUnsetLocation(post.Location) {
		return Outcome{}
	}
	location := strings.TrimSpace(post.Location)

	result, err := r.provider.Geocode(ctx, location)
	r.sleep(ctx, r.provider.Delay())

	if err != nil {
		zap.L().Debug("resolve: provider error",
			zap.String("provider", r.provider.Name()),
			zap.String("location", location),
			zap.Error(err),
		)
		return Outcome{}
	}
	if !result.Usable() {
		zap.L().Debug("resolve: no usable match",
			zap.String("location", location),
			zap.Bool("country_level", result != nil && result.CountryLevel),
		)
		return Outcome{}
	}

	return Outcome{Latitude: result.Latitude, Longitude: result.Longitude, Method: MethodGeocoded}
}

type embeddedPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ParseEmbedded strictly parses {"type":"Point","coordinates":[lon,lat]}.
// The type member is optional; when present it must be Point.
func ParseEmbedded(raw json.RawMessage) (lat, lon float64, err error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var pt embeddedPoint
	if err := dec.Decode(&pt); err != nil {
		return 0, 0, eris.Wrap(err, "resolve: decode embedded geography")
	}
	if dec.More() {
		return 0, 0, eris.New("resolve: trailing data after embedded geography")
	}
	if pt.Type != "" && pt.Type != "Point" {
		return 0, 0, eris.Errorf("resolve: embedded geography type %q is not Point", pt.Type)
	}
	if len(pt.Coordinates) != 2 {
		return 0, 0, eris.Errorf("resolve: embedded geography has %d coordinates, want 2", len(pt.Coordinates))
	}
	lon, lat = pt.Coordinates[0], pt.Coordinates[1]
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, eris.Errorf("resolve: embedded coordinate (%v, %v) out of range", lat, lon)
	}
	return lat, lon, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

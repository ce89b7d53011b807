// Package model holds the records that flow through the geocoding pipeline.
package model

import (
	"encoding/json"
	"time"
)

// NoneValue is rendered for author fields the search provider left unset.
const NoneValue = "None"

// Post is one record retrieved from the search stream. It is immutable once
// built by a source.
type Post struct {
	ID           int64     `json:"id"`
	Location     string    `json:"location"`
	TimeZone     string    `json:"time_zone"`
	Text         string    `json:"text"`
	RetweetCount int       `json:"retweet_count"`
	Favorited    bool      `json:"favorited"`
	CreatedAt    time.Time `json:"created_at"`

	// RawCoordinates and RawGeo are the provider's raw JSON text for the
	// post's coordinate fields, or NoneValue when absent.
	RawCoordinates string `json:"raw_coordinates"`
	RawGeo         string `json:"raw_geo"`

	// EmbeddedGeo is the platform-attached GeoJSON point, if any.
	EmbeddedGeo json.RawMessage `json:"embedded_geo,omitempty"`
}

// HasEmbeddedGeo reports whether the post carries a platform-attached point.
func (p *Post) HasEmbeddedGeo() bool {
	if len(p.EmbeddedGeo) == 0 {
		return false
	}
	return string(p.EmbeddedGeo) != "null"
}

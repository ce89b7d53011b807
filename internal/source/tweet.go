package source

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/sells-group/geopost/internal/model"
)

// rateLimitCode is the API error code for an exhausted rate limit.
const rateLimitCode = 88

// status is the wire shape of one search API status object.
type status struct {
	ID           int64           `json:"id"`
	CreatedAt    string          `json:"created_at"`
	Text         string          `json:"text"`
	FullText     string          `json:"full_text"`
	RetweetCount int             `json:"retweet_count"`
	Favorited    bool            `json:"favorited"`
	Coordinates  json.RawMessage `json:"coordinates"`
	Geo          json.RawMessage `json:"geo"`
	User         struct {
		Location *string `json:"location"`
		TimeZone *string `json:"time_zone"`
	} `json:"user"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *status) toPost() *model.Post {
	p := &model.Post{
		ID:             s.ID,
		Text:           s.Text,
		RetweetCount:   s.RetweetCount,
		Favorited:      s.Favorited,
		RawCoordinates: rawText(s.Coordinates),
		RawGeo:         rawText(s.Geo),
	}
	if s.FullText != "" {
		p.Text = s.FullText
	}
	if s.User.Location != nil {
		p.Location = *s.User.Location
	}
	if s.User.TimeZone != nil {
		p.TimeZone = *s.User.TimeZone
	}
	if t, err := time.Parse(time.RubyDate, s.CreatedAt); err == nil {
		p.CreatedAt = t.UTC()
	}
	if p.RawCoordinates != model.NoneValue {
		p.EmbeddedGeo = append(json.RawMessage(nil), s.Coordinates...)
	}
	return p
}

// rawText renders a raw JSON field as compact text, or model.NoneValue.
func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.NoneValue
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func hasRateLimitError(errs []apiError) bool {
	for _, e := range errs {
		if e.Code == rateLimitCode {
			return true
		}
	}
	return false
}

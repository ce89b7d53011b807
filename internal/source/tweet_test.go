package source

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geopost/internal/model"
)

func TestStatus_ToPost(t *testing.T) {
	raw := `{
		"id": 851,
		"created_at": "Mon Apr 17 10:30:00 +0000 2017",
		"text": "short",
		"full_text": "  Snow in Denver ❄️ ",
		"retweet_count": 7,
		"favorited": true,
		"coordinates": {"type": "Point", "coordinates": [-104.98, 39.74]},
		"geo": {"type": "Point", "coordinates": [39.74, -104.98]},
		"user": {"location": "Denver, CO", "time_zone": "Mountain Time (US & Canada)"}
	}`
	var st status
	require.NoError(t, json.Unmarshal([]byte(raw), &st))

	p := st.toPost()
	assert.Equal(t, int64(851), p.ID)
	assert.Equal(t, "  Snow in Denver ❄️ ", p.Text)
	assert.Equal(t, 7, p.RetweetCount)
	assert.True(t, p.Favorited)
	assert.Equal(t, "Denver, CO", p.Location)
	assert.Equal(t, "Mountain Time (US & Canada)", p.TimeZone)
	assert.Equal(t, time.Date(2017, 4, 17, 10, 30, 0, 0, time.UTC), p.CreatedAt)
	assert.Equal(t, `{"type":"Point","coordinates":[-104.98,39.74]}`, p.RawCoordinates)
	assert.Equal(t, `{"type":"Point","coordinates":[39.74,-104.98]}`, p.RawGeo)
	assert.True(t, p.HasEmbeddedGeo())
}

func TestStatus_ToPost_NoGeo(t *testing.T) {
	var st status
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "text": "hi", "coordinates": null, "user": {"location": null}}`), &st))

	p := st.toPost()
	assert.Equal(t, "hi", p.Text)
	assert.Equal(t, "", p.Location)
	assert.Equal(t, model.NoneValue, p.RawCoordinates)
	assert.Equal(t, model.NoneValue, p.RawGeo)
	assert.False(t, p.HasEmbeddedGeo())
}

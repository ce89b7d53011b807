package model

import (
	"strconv"
	"strings"
	"time"
)

// Header is the tabular column contract. Its order matches Entry.Row.
var Header = []string{
	"Latitude",
	"Longitude",
	"Location",
	"TimeZone",
	"Num Retweets",
	"Favorited",
	"Date",
	"Coords",
	"Geo",
	"Text",
	"Search",
}

// DateLayout formats Entry.Date.
const DateLayout = "01/02/2006"

// Entry is one resolved post as persisted to every output format.
type Entry struct {
	Latitude       float64
	Longitude      float64
	Location       string
	TimeZone       string
	RetweetCount   int
	Favorited      bool
	Date           time.Time
	RawCoordinates string
	RawGeo         string
	Text           string
	SearchQuery    string
}

// NewEntry builds the output entry for a post resolved to lat/lon.
func NewEntry(p *Post, lat, lon float64, query string) Entry {
	return Entry{
		Latitude:       lat,
		Longitude:      lon,
		Location:       orNone(p.Location),
		TimeZone:       orNone(p.TimeZone),
		RetweetCount:   p.RetweetCount,
		Favorited:      p.Favorited,
		Date:           p.CreatedAt,
		RawCoordinates: orNone(p.RawCoordinates),
		RawGeo:         orNone(p.RawGeo),
		Text:           strings.TrimSpace(p.Text),
		SearchQuery:    query,
	}
}

// Row renders the entry as tabular cells in Header order.
func (e Entry) Row() []string {
	return []string{
		formatCoord(e.Latitude),
		formatCoord(e.Longitude),
		e.Location,
		e.TimeZone,
		strconv.Itoa(e.RetweetCount),
		strconv.FormatBool(e.Favorited),
		e.Date.Format(DateLayout),
		e.RawCoordinates,
		e.RawGeo,
		e.Text,
		e.SearchQuery,
	}
}

// Properties renders the entry as a feature property map keyed by Header.
// Coordinates stay numeric; every other value matches the tabular cell.
func (e Entry) Properties() map[string]any {
	row := e.Row()
	props := make(map[string]any, len(Header))
	for i, name := range Header {
		props[name] = row[i]
	}
	props["Latitude"] = e.Latitude
	props["Longitude"] = e.Longitude
	return props
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNone(s string) string {
	if s == "" {
		return NoneValue
	}
	return s
}

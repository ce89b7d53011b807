package geocode

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const nominatimURL = "https://nominatim.openstreetmap.org/search"

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	AddressType string `json:"addresstype"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

// Nominatim geocodes via an OpenStreetMap Nominatim instance.
type Nominatim struct {
	settings
}

// Name implements Provider.
func (p *Nominatim) Name() string { return BackendNominatim.String() }

// Delay implements Provider.
func (p *Nominatim) Delay() time.Duration { return p.delay }

// Geocode implements Provider. A place is country level when Nominatim
// reports addresstype=country or its display name is a country name.
func (p *Nominatim) Geocode(ctx context.Context, location string) (*Result, error) {
	params := url.Values{
		"q":      {location},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	var places []nominatimPlace
	if err := p.getJSON(ctx, p.Name(), params, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}
	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lat %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lon %q", place.Lon)
	}

	return &Result{
		Latitude:     lat,
		Longitude:    lon,
		Address:      place.DisplayName,
		Source:       p.Name(),
		Matched:      true,
		CountryLevel: strings.EqualFold(place.AddressType, "country") || IsCountry(place.DisplayName),
	}, nil
}

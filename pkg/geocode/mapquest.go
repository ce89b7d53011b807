package geocode

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const mapquestURL = "https://www.mapquestapi.com/geocoding/v1/address"

type mapquestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []mapquestLocation `json:"locations"`
	} `json:"results"`
}

type mapquestLocation struct {
	LatLng *struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"latLng"`
	GeocodeQuality string `json:"geocodeQuality"`
	AdminArea5     string `json:"adminArea5"` // city
	AdminArea3     string `json:"adminArea3"` // state
	AdminArea1     string `json:"adminArea1"` // country
}

// MapQuest geocodes via the MapQuest Geocoding API.
type MapQuest struct {
	settings
}

// Name implements Provider.
func (p *MapQuest) Name() string { return BackendMapQuest.String() }

// Delay implements Provider.
func (p *MapQuest) Delay() time.Duration { return p.delay }

// Geocode implements Provider. MapQuest signals country level through
// geocodeQuality=COUNTRY.
func (p *MapQuest) Geocode(ctx context.Context, location string) (*Result, error) {
	params := url.Values{
		"key":        {p.apiKey},
		"location":   {location},
		"maxResults": {"1"},
		"thumbMaps":  {"false"},
	}

	var resp mapquestResponse
	if err := p.getJSON(ctx, p.Name(), params, &resp); err != nil {
		return nil, err
	}
	if resp.Info.StatusCode != 0 {
		return nil, eris.Errorf("geocode: mapquest status %d: %s",
			resp.Info.StatusCode, strings.Join(resp.Info.Messages, "; "))
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Locations) == 0 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}
	loc := resp.Results[0].Locations[0]
	if loc.LatLng == nil || loc.LatLng.Lat == nil || loc.LatLng.Lng == nil {
		return &Result{Matched: false, Source: p.Name()}, nil
	}

	return &Result{
		Latitude:     *loc.LatLng.Lat,
		Longitude:    *loc.LatLng.Lng,
		Address:      joinNonEmpty(loc.AdminArea5, loc.AdminArea3, loc.AdminArea1),
		Source:       p.Name(),
		Matched:      true,
		CountryLevel: strings.EqualFold(loc.GeocodeQuality, "COUNTRY"),
	}, nil
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

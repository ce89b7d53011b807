package geocode

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const arcgisURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"

type arcgisResponse struct {
	Candidates []arcgisCandidate `json:"candidates"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type arcgisCandidate struct {
	Address  string `json:"address"`
	Location *struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	} `json:"location"`
	Score      float64 `json:"score"`
	Attributes struct {
		AddrType string `json:"Addr_type"`
	} `json:"attributes"`
}

// ArcGIS geocodes via the ArcGIS World Geocoding Service.
type ArcGIS struct {
	settings
}

// Name implements Provider.
func (p *ArcGIS) Name() string { return BackendArcGIS.String() }

// Delay implements Provider.
func (p *ArcGIS) Delay() time.Duration { return p.delay }

// Geocode implements Provider. The candidate is country level when ArcGIS
// tags it Addr_type=Country or its matched address is a country name.
func (p *ArcGIS) Geocode(ctx context.Context, location string) (*Result, error) {
	params := url.Values{
		"SingleLine":   {location},
		"f":            {"json"},
		"maxLocations": {"1"},
		"outFields":    {"Addr_type"},
	}

	var resp arcgisResponse
	if err := p.getJSON(ctx, p.Name(), params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, eris.Errorf("geocode: arcgis error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	if len(resp.Candidates) == 0 {
		return &Result{Matched: false, Source: p.Name()}, nil
	}
	c := resp.Candidates[0]
	if c.Location == nil || c.Location.X == nil || c.Location.Y == nil {
		return &Result{Matched: false, Source: p.Name(), Address: c.Address}, nil
	}

	return &Result{
		Latitude:     *c.Location.Y,
		Longitude:    *c.Location.X,
		Address:      c.Address,
		Source:       p.Name(),
		Matched:      true,
		CountryLevel: strings.EqualFold(c.Attributes.AddrType, "Country") || IsCountry(c.Address),
	}, nil
}

// Package geo resolves the visitor location the hosting platform attaches to a request.
package geo

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"tinyblog/pageviews/models"
	"tinyblog/pageviews/utils"
)

const (
	SourceNetlify    = "netlify"
	SourceCloudflare = "cloudflare"
	SourceNone       = "none"

	NetlifyGeoHeader = "X-Nf-Geo"
)

// Resolver returns the location for r, or nil when the platform supplied none.
type Resolver interface {
	Resolve(r *http.Request) *models.GeoLocation
}

// NewResolver picks a resolver by source name.
func NewResolver(source string) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case SourceNetlify:
		return NetlifyResolver{}, nil
	case SourceCloudflare:
		return CloudflareResolver{}, nil
	case SourceNone, "":
		return NoneResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown geo source %q", source)
	}
}

type NoneResolver struct{}

func (NoneResolver) Resolve(*http.Request) *models.GeoLocation { return nil }

// NetlifyResolver decodes the X-Nf-Geo header. Netlify sends it base64 encoded;
// plain JSON is accepted as well.
type NetlifyResolver struct{}

type netlifyGeo struct {
	City    string `json:"city"`
	Country struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (NetlifyResolver) Resolve(r *http.Request) *models.GeoLocation {
	raw := strings.TrimSpace(r.Header.Get(NetlifyGeoHeader))
	if raw == "" {
		return nil
	}
	payload := []byte(raw)
	if !strings.HasPrefix(raw, "{") {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil
		}
		payload = decoded
	}

	var g netlifyGeo
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil
	}
	return compact(&models.GeoLocation{
		City:      utils.StringPtr(g.City),
		Country:   utils.StringPtr(g.Country.Name),
		Latitude:  g.Latitude,
		Longitude: g.Longitude,
	})
}

// CloudflareResolver reads the visitor location headers added by Cloudflare's managed transform.
type CloudflareResolver struct{}

func (CloudflareResolver) Resolve(r *http.Request) *models.GeoLocation {
	country := r.Header.Get("CF-IPCountry")
	if country == "XX" || country == "T1" {
		country = ""
	}
	return compact(&models.GeoLocation{
		City:      utils.StringPtr(r.Header.Get("CF-IPCity")),
		Country:   utils.StringPtr(country),
		Latitude:  parseCoord(r.Header.Get("CF-IPLatitude")),
		Longitude: parseCoord(r.Header.Get("CF-IPLongitude")),
	})
}

func parseCoord(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func compact(g *models.GeoLocation) *models.GeoLocation {
	if g.City == nil && g.Country == nil && g.Latitude == nil && g.Longitude == nil {
		return nil
	}
	return g
}

// models/page_view.go
package models

import "time"

// PageView represents a single recorded page view.
// Optional fields stay nil when unknown so they are stored as NULL and omitted from JSON.
type PageView struct {
	ID        string    `json:"id,omitempty"`
	Path      string    `json:"path"`
	IP        string    `json:"ip"`
	City      *string   `json:"city,omitempty"`
	Country   *string   `json:"country,omitempty"`
	Location  *string   `json:"location,omitempty"`
	Referrer  *string   `json:"referrer,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PageViewRequest is the beacon body sent by the blog.
type PageViewRequest struct {
	Path     string  `json:"path"`
	Referrer *string `json:"referrer,omitempty"`
}

// GeoLocation is the request-time location supplied by the hosting runtime.
type GeoLocation struct {
	City      *string
	Country   *string
	Latitude  *float64
	Longitude *float64
}

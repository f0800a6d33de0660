package utils

import (
	"strconv"
	"strings"
)

// FormatPoint renders a coordinate pair as a Postgres point literal, longitude first.
func FormatPoint(longitude, latitude float64) string {
	return "(" + strconv.FormatFloat(longitude, 'f', -1, 64) + "," + strconv.FormatFloat(latitude, 'f', -1, 64) + ")"
}

// StringPtr returns nil for blank strings so optional columns stay NULL.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package types

import (
	"strconv"
	"strings"
)

// GeoPoint is a latitude/longitude pair. The zero value means the
// position is unknown, never a real location at (0,0).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point holds usable coordinates.
func (g GeoPoint) Valid() bool {
	if g.Lat == 0 && g.Lng == 0 {
		return false
	}
	if g.Lat < -90 || g.Lat > 90 {
		return false
	}
	if g.Lng < -180 || g.Lng > 180 {
		return false
	}
	return true
}

// ParseGeoPoint builds a point from the optionally-absent string pair
// returned by the outlet API. Blank or malformed input yields an
// invalid point.
func ParseGeoPoint(lat, lng string) GeoPoint {
	latVal, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return GeoPoint{}
	}
	lngVal, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return GeoPoint{}
	}
	point := GeoPoint{Lat: latVal, Lng: lngVal}
	if !point.Valid() {
		return GeoPoint{}
	}
	return point
}

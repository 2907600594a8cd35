package types

import "testing"

func TestGeoPointValid(t *testing.T) {
	tests := []struct {
		name  string
		point GeoPoint
		want  bool
	}{
		{name: "zero value", point: GeoPoint{}, want: false},
		{name: "null island", point: GeoPoint{Lat: 0, Lng: 0}, want: false},
		{name: "yogyakarta", point: GeoPoint{Lat: -7.797068, Lng: 110.370529}, want: true},
		{name: "latitude out of range", point: GeoPoint{Lat: 91, Lng: 10}, want: false},
		{name: "longitude out of range", point: GeoPoint{Lat: 10, Lng: 181}, want: false},
	}

	for _, tt := range tests {
		if got := tt.point.Valid(); got != tt.want {
			t.Fatalf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseGeoPoint(t *testing.T) {
	if p := ParseGeoPoint("-7.801", "110.364"); !p.Valid() {
		t.Fatalf("expected valid point, got %+v", p)
	}
	if p := ParseGeoPoint("", ""); p.Valid() {
		t.Fatalf("blank input should be invalid")
	}
	if p := ParseGeoPoint("abc", "110.3"); p.Valid() {
		t.Fatalf("malformed latitude should be invalid")
	}
	if p := ParseGeoPoint("0", "0"); p.Valid() {
		t.Fatalf("zero pair should be treated as unknown")
	}
}

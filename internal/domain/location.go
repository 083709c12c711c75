package domain

import "fmt"

// Immutable geographic coordinates.
type Coordinates struct {
	Lat float64
	Lng float64
}

// A named point a route segment starts or ends at.
// Exactly one of Address or Coords is used when querying a provider;
// Coords wins when both are present.
type Location struct {
	Key     string
	Label   string
	Address string
	Coords  *Coordinates
}

// Query returns the string form providers and cache keys use for this location.
func (l Location) Query() string {
	if l.Coords != nil {
		return fmt.Sprintf("%.6f,%.6f", l.Coords.Lat, l.Coords.Lng)
	}
	return l.Address
}

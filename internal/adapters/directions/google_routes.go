package directions

import (
	"commute-service/internal/domain"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	drivingFieldMask = "routes.duration,routes.staticDuration,routes.distanceMeters"
	transitFieldMask = "routes.duration,routes.distanceMeters," +
		"routes.legs.steps.travelMode,routes.legs.steps.transitDetails"
)

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type waypointLocation struct {
	LatLng latLng `json:"latLng"`
}

type waypoint struct {
	Address  string            `json:"address,omitempty"`
	Location *waypointLocation `json:"location,omitempty"`
}

type transitPreferences struct {
	AllowedTravelModes []string `json:"allowedTravelModes,omitempty"`
}

type routesRequest struct {
	Origin             waypoint            `json:"origin"`
	Destination        waypoint            `json:"destination"`
	TravelMode         string              `json:"travelMode"`
	RoutingPreference  string              `json:"routingPreference,omitempty"`
	DepartureTime      string              `json:"departureTime,omitempty"`
	ArrivalTime        string              `json:"arrivalTime,omitempty"`
	TransitPreferences *transitPreferences `json:"transitPreferences,omitempty"`
}

type stopDetails struct {
	ArrivalTime   string `json:"arrivalTime"`
	DepartureTime string `json:"departureTime"`
}

type transitLine struct {
	Name      string `json:"name"`
	NameShort string `json:"nameShort"`
}

type transitDetails struct {
	StopDetails stopDetails `json:"stopDetails"`
	TransitLine transitLine `json:"transitLine"`
}

type routeStep struct {
	TravelMode     string          `json:"travelMode"`
	TransitDetails *transitDetails `json:"transitDetails"`
}

type routeLeg struct {
	Steps []routeStep `json:"steps"`
}

type route struct {
	Duration       string     `json:"duration"`
	StaticDuration string     `json:"staticDuration"`
	DistanceMeters int        `json:"distanceMeters"`
	Legs           []routeLeg `json:"legs"`
}

type routesResponse struct {
	Routes []route `json:"routes"`
}

func toWaypoint(l domain.Location) waypoint {
	if l.Coords != nil {
		return waypoint{Location: &waypointLocation{LatLng: latLng{Latitude: l.Coords.Lat, Longitude: l.Coords.Lng}}}
	}
	return waypoint{Address: strings.Join(strings.Fields(l.Address), " ")}
}

// parseSeconds reads a protobuf Duration string such as "1800s" or "95.5s".
func parseSeconds(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, ok := strings.CutSuffix(s, "s")
	if !ok {
		return 0, fmt.Errorf("duration %q: missing seconds suffix", s)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", s, err)
	}
	return int(math.Round(f)), nil
}

// transitSpan returns the first transit step's departure and the last transit
// step's arrival, plus the line label of the first transit step.
func transitSpan(r route) (dep, arr time.Time, line string, err error) {
	var first, last *transitDetails
	for _, leg := range r.Legs {
		for i := range leg.Steps {
			td := leg.Steps[i].TransitDetails
			if leg.Steps[i].TravelMode != "TRANSIT" || td == nil {
				continue
			}
			if first == nil {
				first = td
			}
			last = td
		}
	}
	if first == nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("route has no transit step")
	}

	dep, err = time.Parse(time.RFC3339, first.StopDetails.DepartureTime)
	if err != nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("parse departure time: %w", err)
	}
	arr, err = time.Parse(time.RFC3339, last.StopDetails.ArrivalTime)
	if err != nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("parse arrival time: %w", err)
	}

	line = first.TransitLine.NameShort
	if line == "" {
		line = first.TransitLine.Name
	}
	return dep, arr, line, nil
}

package directions

import (
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	homeLoc   = domain.Location{Key: "home", Address: "12  Elm St,  Morristown, NJ"}
	officeLoc = domain.Location{Key: "office", Coords: &domain.Coordinates{Lat: 40.7506, Lng: -73.9935}}
)

type capturedRequest struct {
	APIKey    string
	FieldMask string
	Body      map[string]any
}

func newGoogleServer(t *testing.T, status int, response string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/directions/v2:computeRoutes", r.URL.Path)
		if captured != nil {
			captured.APIKey = r.Header.Get("X-Goog-Api-Key")
			captured.FieldMask = r.Header.Get("X-Goog-FieldMask")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured.Body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogle(t *testing.T, srv *httptest.Server, now time.Time) *GoogleRoutesProvider {
	t.Helper()
	g, err := NewGoogleRoutesProvider("test-key",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	return g
}

func TestNewGoogleRoutesProviderRequiresKey(t *testing.T) {
	_, err := NewGoogleRoutesProvider("")
	require.Error(t, err)
}

func TestGoogleDrivingRoute(t *testing.T) {
	var got capturedRequest
	srv := newGoogleServer(t, http.StatusOK,
		`{"routes":[{"duration":"4200s","staticDuration":"3600s","distanceMeters":56000}]}`, &got)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	g := newTestGoogle(t, srv, now)

	res, err := g.ComputeDrivingRoute(context.Background(), homeLoc, officeLoc,
		ports.TimeConstraint{Kind: ports.DepartAt, At: now.Add(time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 4200, res.DurationSeconds)
	assert.Equal(t, 56000, res.DistanceMeters)
	assert.Equal(t, 600, res.TrafficDelaySeconds)

	assert.Equal(t, "test-key", got.APIKey)
	assert.Equal(t, drivingFieldMask, got.FieldMask)
	assert.Equal(t, "DRIVE", got.Body["travelMode"])
	assert.Equal(t, "TRAFFIC_AWARE", got.Body["routingPreference"])
	assert.Equal(t, "2026-03-10T13:00:00Z", got.Body["departureTime"])
	assert.Equal(t, map[string]any{"address": "12 Elm St, Morristown, NJ"}, got.Body["origin"])

	dest := got.Body["destination"].(map[string]any)
	latLng := dest["location"].(map[string]any)["latLng"].(map[string]any)
	assert.InDelta(t, 40.7506, latLng["latitude"], 1e-9)
}

func TestGoogleDrivingRouteOmitsPastDeparture(t *testing.T) {
	var got capturedRequest
	srv := newGoogleServer(t, http.StatusOK, `{"routes":[{"duration":"600s","distanceMeters":1000}]}`, &got)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	g := newTestGoogle(t, srv, now)

	res, err := g.ComputeDrivingRoute(context.Background(), homeLoc, officeLoc,
		ports.TimeConstraint{Kind: ports.DepartAt, At: now.Add(-time.Minute)})
	require.NoError(t, err)

	assert.NotContains(t, got.Body, "departureTime")
	assert.Equal(t, 600, res.DurationSeconds)
	assert.Zero(t, res.TrafficDelaySeconds)
}

func TestGoogleTransitRoute(t *testing.T) {
	var got capturedRequest
	srv := newGoogleServer(t, http.StatusOK, `{
	  "routes": [{
	    "duration": "6000s",
	    "distanceMeters": 48000,
	    "legs": [{
	      "steps": [
	        {"travelMode": "WALK"},
	        {"travelMode": "TRANSIT", "transitDetails": {
	          "stopDetails": {"departureTime": "2026-03-10T21:38:00Z", "arrivalTime": "2026-03-10T22:45:00Z"},
	          "transitLine": {"name": "Morris & Essex Line", "nameShort": "MOE"}}},
	        {"travelMode": "TRANSIT", "transitDetails": {
	          "stopDetails": {"departureTime": "2026-03-10T22:50:00Z", "arrivalTime": "2026-03-10T23:00:00Z"},
	          "transitLine": {"name": "HOB-33"}}},
	        {"travelMode": "WALK"}
	      ]
	    }]
	  }]
	}`, &got)

	g := newTestGoogle(t, srv, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	arriveBy := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	res, err := g.ComputeTransitRoute(context.Background(), homeLoc, officeLoc, ports.TransitTrain,
		ports.TimeConstraint{Kind: ports.ArriveBy, At: arriveBy})
	require.NoError(t, err)

	assert.True(t, res.Departure.Equal(time.Date(2026, 3, 10, 21, 38, 0, 0, time.UTC)))
	assert.True(t, res.Arrival.Equal(arriveBy))
	assert.Equal(t, 82*60, res.DurationSeconds)
	assert.Equal(t, 48000, res.DistanceMeters)
	assert.Equal(t, "MOE", res.LineLabel)

	assert.Equal(t, transitFieldMask, got.FieldMask)
	assert.Equal(t, "TRANSIT", got.Body["travelMode"])
	assert.Equal(t, "2026-03-10T23:00:00Z", got.Body["arrivalTime"])
	assert.NotContains(t, got.Body, "departureTime")
	assert.Equal(t,
		map[string]any{"allowedTravelModes": []any{"TRAIN", "RAIL"}},
		got.Body["transitPreferences"])
}

func TestGoogleTransitRouteWithoutTransitStep(t *testing.T) {
	srv := newGoogleServer(t, http.StatusOK,
		`{"routes":[{"duration":"900s","legs":[{"steps":[{"travelMode":"WALK"}]}]}]}`, nil)
	g := newTestGoogle(t, srv, time.Now())

	_, err := g.ComputeTransitRoute(context.Background(), homeLoc, officeLoc, ports.TransitPATH,
		ports.TimeConstraint{At: time.Now()})
	require.ErrorIs(t, err, ports.ErrNoResult)
}

func TestGoogleNoRoutes(t *testing.T) {
	srv := newGoogleServer(t, http.StatusOK, `{}`, nil)
	g := newTestGoogle(t, srv, time.Now())

	_, err := g.ComputeDrivingRoute(context.Background(), homeLoc, officeLoc, ports.TimeConstraint{At: time.Now()})
	require.ErrorIs(t, err, ports.ErrNoResult)
}

func TestGoogleHTTPError(t *testing.T) {
	srv := newGoogleServer(t, http.StatusForbidden, `{"error":{"message":"API key not valid"}}`, nil)
	g := newTestGoogle(t, srv, time.Now())

	_, err := g.ComputeDrivingRoute(context.Background(), homeLoc, officeLoc, ports.TimeConstraint{At: time.Now()})
	require.Error(t, err)

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
	assert.Contains(t, he.Body, "API key not valid")
}

func TestParseSeconds(t *testing.T) {
	cases := map[string]int{"": 0, "0s": 0, "1800s": 1800, "95.6s": 96}
	for in, want := range cases {
		got, err := parseSeconds(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseSeconds("30m")
	assert.Error(t, err)
}

func TestAllowedTravelModes(t *testing.T) {
	assert.Equal(t, []string{"TRAIN", "RAIL"}, allowedTravelModes(ports.TransitTrain))
	assert.Equal(t, []string{"SUBWAY", "TRAIN"}, allowedTravelModes(ports.TransitPATH))
	assert.Nil(t, allowedTravelModes(ports.TransitAny))
}

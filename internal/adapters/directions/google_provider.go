package directions

import (
	"bytes"
	"commute-service/internal/domain"
	"commute-service/internal/platform/obs"
	"commute-service/internal/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultRoutesBaseURL = "https://routes.googleapis.com"

// GoogleRoutesProvider implements DirectionsProvider using the Google Routes
// API (directions/v2:computeRoutes).
//
// The provider is safe for concurrent use.
type GoogleRoutesProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	now     func() time.Time
}

type GoogleOption func(*GoogleRoutesProvider)

// WithBaseURL points the provider at another host, e.g. an httptest server.
func WithBaseURL(u string) GoogleOption {
	return func(g *GoogleRoutesProvider) { g.baseURL = u }
}

func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleRoutesProvider) { g.session = c }
}

func WithClock(now func() time.Time) GoogleOption {
	return func(g *GoogleRoutesProvider) { g.now = now }
}

func NewGoogleRoutesProvider(apiKey string, opts ...GoogleOption) (*GoogleRoutesProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is empty")
	}

	g := &GoogleRoutesProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultRoutesBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// ComputeDrivingRoute always queries a traffic-aware departure at when.At;
// the API does not accept arrival times for driving.
func (g *GoogleRoutesProvider) ComputeDrivingRoute(
	ctx context.Context,
	origin, destination domain.Location,
	when ports.TimeConstraint,
) (_ ports.DrivingResult, err error) {
	defer obs.Time(ctx, "google.ComputeDrivingRoute")(&err)

	req := routesRequest{
		Origin:            toWaypoint(origin),
		Destination:       toWaypoint(destination),
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE",
	}
	// The API rejects departure times in the past.
	if when.At.After(g.now()) {
		req.DepartureTime = when.At.UTC().Format(time.RFC3339)
	}

	r, err := g.computeRoute(ctx, req, drivingFieldMask)
	if err != nil {
		return ports.DrivingResult{}, fmt.Errorf("compute driving route %q -> %q: %w", origin.Query(), destination.Query(), err)
	}

	secs, err := parseSeconds(r.Duration)
	if err != nil {
		return ports.DrivingResult{}, err
	}
	static, err := parseSeconds(r.StaticDuration)
	if err != nil {
		return ports.DrivingResult{}, err
	}

	delay := 0
	if r.StaticDuration != "" && secs > static {
		delay = secs - static
	}

	return ports.DrivingResult{
		DurationSeconds:     secs,
		DistanceMeters:      r.DistanceMeters,
		TrafficDelaySeconds: delay,
	}, nil
}

func (g *GoogleRoutesProvider) ComputeTransitRoute(
	ctx context.Context,
	origin, destination domain.Location,
	mode ports.TransitPreference,
	when ports.TimeConstraint,
) (_ ports.TransitResult, err error) {
	defer obs.Time(ctx, "google.ComputeTransitRoute")(&err)

	req := routesRequest{
		Origin:      toWaypoint(origin),
		Destination: toWaypoint(destination),
		TravelMode:  "TRANSIT",
	}

	ts := when.At.UTC().Format(time.RFC3339)
	if when.Kind == ports.ArriveBy {
		req.ArrivalTime = ts
	} else {
		req.DepartureTime = ts
	}

	if modes := allowedTravelModes(mode); len(modes) > 0 {
		req.TransitPreferences = &transitPreferences{AllowedTravelModes: modes}
	}

	r, err := g.computeRoute(ctx, req, transitFieldMask)
	if err != nil {
		return ports.TransitResult{}, fmt.Errorf("compute transit route %q -> %q: %w", origin.Query(), destination.Query(), err)
	}

	dep, arr, line, err := transitSpan(r)
	if err != nil {
		return ports.TransitResult{}, fmt.Errorf("compute transit route %q -> %q: %w: %w", origin.Query(), destination.Query(), ports.ErrNoResult, err)
	}

	return ports.TransitResult{
		DurationSeconds: int(arr.Sub(dep) / time.Second),
		DistanceMeters:  r.DistanceMeters,
		Departure:       dep,
		Arrival:         arr,
		LineLabel:       line,
	}, nil
}

// computeRoute posts one request and returns the first route.
func (g *GoogleRoutesProvider) computeRoute(ctx context.Context, body routesRequest, fieldMask string) (route, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return route{}, fmt.Errorf("marshal routes request: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPost, g.baseURL+"/directions/v2:computeRoutes", fieldMask, bytes.NewReader(payload))
	if err != nil {
		return route{}, err
	}

	resp, err := g.do(req)
	if err != nil {
		return route{}, fmt.Errorf("routes request failed: %w", err)
	}
	defer resp.Body.Close()

	var rr routesResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return route{}, fmt.Errorf("decode routes response: %w", err)
	}

	if len(rr.Routes) == 0 {
		return route{}, ports.ErrNoResult
	}

	return rr.Routes[0], nil
}

func allowedTravelModes(p ports.TransitPreference) []string {
	switch p {
	case ports.TransitTrain:
		return []string{"TRAIN", "RAIL"}
	case ports.TransitPATH:
		return []string{"SUBWAY", "TRAIN"}
	}
	return nil
}

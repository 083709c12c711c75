package dto

import (
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"time"
)

type SegmentResponse struct {
	Mode          string     `json:"mode"`
	FromLabel     string     `json:"fromLabel"`
	ToLabel       string     `json:"toLabel"`
	Duration      int        `json:"duration"`
	DepartureTime *time.Time `json:"departureTime"`
	ArrivalTime   *time.Time `json:"arrivalTime"`
	Distance      *int       `json:"distance,omitempty"`
	TrafficNote   string     `json:"trafficNote,omitempty"`
	Line          string     `json:"line,omitempty"`
	Error         string     `json:"error,omitempty"`
}

type RouteResponse struct {
	Name                 string            `json:"name"`
	Segments             []SegmentResponse `json:"segments"`
	TotalDurationSeconds int               `json:"totalDurationSeconds"`
	StartTime            *time.Time        `json:"startTime"`
	ETA                  *time.Time        `json:"eta"`
	HasError             bool              `json:"hasError"`
	IsBest               bool              `json:"isBest"`
}

type CommuteResponse struct {
	Direction   string          `json:"direction"`
	AsOf        time.Time       `json:"asOf"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Routes      []RouteResponse `json:"routes"`
}

// FromBatch maps a computed batch to its wire form. Unset instants become null.
func FromBatch(b ports.CommuteBatch) CommuteResponse {
	res := CommuteResponse{
		Direction:   string(b.Direction),
		AsOf:        b.AsOf,
		LastUpdated: b.LastUpdated,
		Routes:      make([]RouteResponse, 0, len(b.Routes)),
	}
	for _, r := range b.Routes {
		res.Routes = append(res.Routes, FromRoute(r))
	}
	return res
}

func FromRoute(r domain.RouteResult) RouteResponse {
	out := RouteResponse{
		Name:                 r.Name,
		Segments:             make([]SegmentResponse, 0, len(r.Segments)),
		TotalDurationSeconds: r.TotalDurationSeconds,
		StartTime:            timePtr(r.StartTime),
		ETA:                  timePtr(r.ETA),
		HasError:             r.HasError,
		IsBest:               r.IsBest,
	}
	for _, s := range r.Segments {
		out.Segments = append(out.Segments, SegmentResponse{
			Mode:          string(s.Mode),
			FromLabel:     s.FromLabel,
			ToLabel:       s.ToLabel,
			Duration:      s.DurationSeconds,
			DepartureTime: timePtr(s.DepartureTime),
			ArrivalTime:   timePtr(s.ArrivalTime),
			Distance:      s.DistanceMeters,
			TrafficNote:   s.TrafficNote,
			Line:          s.LineLabel,
			Error:         s.Error,
		})
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

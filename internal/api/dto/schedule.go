package dto

import (
	"commute-service/internal/domain"
	"time"
)

type BusScheduleResponse struct {
	ScheduleID string             `json:"scheduleId"`
	FetchedAt  *time.Time         `json:"fetchedAt"`
	Source     string             `json:"source"`
	Stale      bool               `json:"stale"`
	Schedule   domain.BusSchedule `json:"schedule"`
}

type SegmentDescriptorResponse struct {
	Kind         string `json:"kind"`
	Mode         string `json:"mode"`
	FromLabel    string `json:"fromLabel"`
	ToLabel      string `json:"toLabel"`
	WalkMinutes  int    `json:"walkMinutes,omitempty"`
	BusDirection string `json:"busDirection,omitempty"`
}

type RouteDescriptorResponse struct {
	Name     string                      `json:"name"`
	Segments []SegmentDescriptorResponse `json:"segments"`
}

type ListRoutesResponse struct {
	Direction string                    `json:"direction"`
	Routes    []RouteDescriptorResponse `json:"routes"`
}

func FromDescriptors(dir domain.Direction, routes []domain.RouteDescriptor) ListRoutesResponse {
	res := ListRoutesResponse{
		Direction: string(dir),
		Routes:    make([]RouteDescriptorResponse, 0, len(routes)),
	}
	for _, r := range routes {
		segs := make([]SegmentDescriptorResponse, 0, len(r.Segments))
		for _, s := range r.Segments {
			segs = append(segs, SegmentDescriptorResponse{
				Kind:         string(s.Kind),
				Mode:         string(s.Mode()),
				FromLabel:    s.FromLabel,
				ToLabel:      s.ToLabel,
				WalkMinutes:  int(s.WalkDuration / time.Minute),
				BusDirection: string(s.BusDirection),
			})
		}
		res.Routes = append(res.Routes, RouteDescriptorResponse{Name: r.Name, Segments: segs})
	}
	return res
}

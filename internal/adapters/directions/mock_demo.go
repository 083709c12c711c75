package directions

import (
	"commute-service/internal/domain"
	"time"
)

// NewDemoProvider returns a mock provider that covers the embedded default
// routes with plausible drive times and headway-based rail service, so the
// service can run without an API key.
func NewDemoProvider(loc *time.Location) *MockDirectionsProvider {
	p := NewMockDirectionsProvider([]MockPair{
		{From: "home", To: "office", Meters: 56000, Seconds: 3900, DelaySeconds: 600},
		{From: "office", To: "home", Meters: 56000, Seconds: 4200, DelaySeconds: 900},
		{From: "home", To: "morris_plains", Meters: 5200, Seconds: 420},
		{From: "morris_plains", To: "home", Meters: 5200, Seconds: 420},
		{From: "home", To: "harrison", Meters: 40000, Seconds: 2400, DelaySeconds: 300},
		{From: "harrison", To: "home", Meters: 40000, Seconds: 2520, DelaySeconds: 420},
		{From: "home", To: "park_ride", Meters: 9000, Seconds: 660},
		{From: "park_ride", To: "home", Meters: 9000, Seconds: 660},
	})
	p.DefaultDrive = &MockPair{Meters: 20000, Seconds: 1800}
	p.Leniency = 5 * time.Minute
	p.Location = loc

	first := domain.ClockTime{Hour: 5, Minute: 0}
	last := domain.ClockTime{Hour: 23, Minute: 30}

	p.AddService(MockService{From: "morris_plains", To: "hoboken", First: first, Last: last, Headway: 30 * time.Minute, Ride: 68 * time.Minute, Line: "Morristown Line"})
	p.AddService(MockService{From: "hoboken", To: "morris_plains", First: first, Last: last, Headway: 30 * time.Minute, Ride: 70 * time.Minute, Line: "Morristown Line"})
	p.AddService(MockService{From: "hoboken", To: "office", First: first, Last: last, Headway: 10 * time.Minute, Ride: 14 * time.Minute, Line: "HOB-33"})
	p.AddService(MockService{From: "office", To: "hoboken", First: first, Last: last, Headway: 10 * time.Minute, Ride: 14 * time.Minute, Line: "HOB-33"})
	p.AddService(MockService{From: "harrison", To: "office", First: first, Last: last, Headway: 10 * time.Minute, Ride: 27 * time.Minute, Line: "NWK-WTC"})
	p.AddService(MockService{From: "office", To: "harrison", First: first, Last: last, Headway: 10 * time.Minute, Ride: 27 * time.Minute, Line: "NWK-WTC"})

	return p
}

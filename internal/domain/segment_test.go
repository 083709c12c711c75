package domain

import (
	"testing"
	"time"
)

func TestSegmentDescriptorValidate(t *testing.T) {
	station := Location{Key: "a", Address: "A St"}
	other := Location{Key: "b", Coords: &Coordinates{Lat: 40.7, Lng: -74.0}}

	cases := []struct {
		name    string
		seg     SegmentDescriptor
		wantErr bool
	}{
		{"drive", SegmentDescriptor{Kind: KindDrive, From: station, To: other}, false},
		{"drive without destination", SegmentDescriptor{Kind: KindDrive, From: station}, true},
		{"walk", SegmentDescriptor{Kind: KindWalk, WalkDuration: 3 * time.Minute}, false},
		{"walk zero", SegmentDescriptor{Kind: KindWalk}, true},
		{"train", SegmentDescriptor{Kind: KindTransit, From: station, To: other, TransitMode: ModeTrain}, false},
		{"transit bad mode", SegmentDescriptor{Kind: KindTransit, From: station, To: other, TransitMode: ModeBus}, true},
		{"bus", SegmentDescriptor{Kind: KindBus, From: station, To: other, BusDirection: Westbound}, false},
		{"bus bad direction", SegmentDescriptor{Kind: KindBus, From: station, To: other, BusDirection: "north"}, true},
		{"unknown kind", SegmentDescriptor{Kind: "ferry"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.seg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSegmentModeAndFixed(t *testing.T) {
	path := SegmentDescriptor{Kind: KindTransit, TransitMode: ModePATH}
	if path.Mode() != ModePATH || !path.IsFixed() {
		t.Fatalf("PATH segment: mode %q fixed %v", path.Mode(), path.IsFixed())
	}

	bus := SegmentDescriptor{Kind: KindBus}
	if bus.Mode() != ModeBus || bus.IsFixed() {
		t.Fatalf("bus segment: mode %q fixed %v", bus.Mode(), bus.IsFixed())
	}
}

func TestFailedSegmentHasNoTimes(t *testing.T) {
	d := SegmentDescriptor{Kind: KindTransit, TransitMode: ModeTrain, FromLabel: "A", ToLabel: "B"}
	s := FailedSegment(d, ErrTextAPI)

	if !s.Failed() || s.Mode != ModeTrain || s.FromLabel != "A" || s.ToLabel != "B" {
		t.Fatalf("unexpected failed segment %+v", s)
	}
	if !s.DepartureTime.IsZero() || !s.ArrivalTime.IsZero() || s.DurationSeconds != 0 {
		t.Fatalf("failed segment carries timing: %+v", s)
	}
}

func TestLocationQueryPrefersCoords(t *testing.T) {
	l := Location{Address: "1 Hudson Pl", Coords: &Coordinates{Lat: 40.734751, Lng: -74.027943}}
	if got := l.Query(); got != "40.734751,-74.027943" {
		t.Fatalf("Query() = %q", got)
	}
	l.Coords = nil
	if got := l.Query(); got != "1 Hudson Pl" {
		t.Fatalf("Query() = %q", got)
	}
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"toOffice", "toHome"} {
		if _, err := ParseDirection(s); err != nil {
			t.Fatalf("ParseDirection(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "tooffice", "north"} {
		if _, err := ParseDirection(s); err == nil {
			t.Fatalf("ParseDirection(%q) should fail", s)
		}
	}
}

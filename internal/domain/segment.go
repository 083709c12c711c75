package domain

import (
	"fmt"
	"time"
)

// SegmentKind distinguishes how a segment's timing is determined.
type SegmentKind string

const (
	KindDrive   SegmentKind = "drive"
	KindWalk    SegmentKind = "walk"
	KindTransit SegmentKind = "transit"
	KindBus     SegmentKind = "bus"
)

// Mode is the travel mode shown for a resolved segment.
type Mode string

const (
	ModeDrive Mode = "drive"
	ModeWalk  Mode = "walk"
	ModeTrain Mode = "train"
	ModePATH  Mode = "path"
	ModeBus   Mode = "bus"
)

// Segment error strings surfaced to clients.
const (
	ErrTextAPI          = "API error"
	ErrTextNoBus        = "No more buses today"
	ErrTextNoConnection = "No connecting departure"
	ErrTextInternal     = "Internal error"
	ErrTextTimedOut     = "Timed out"
)

// Statically configured leg of a route.
// Which fields are meaningful depends on Kind:
//   - Drive: From, To
//   - Walk: WalkDuration
//   - Transit: From, To, TransitMode (ModeTrain or ModePATH)
//   - Bus: From, To, BusDirection
//
// FromLabel and ToLabel are always used for display.
type SegmentDescriptor struct {
	Kind         SegmentKind
	From         Location
	To           Location
	FromLabel    string
	ToLabel      string
	WalkDuration time.Duration
	TransitMode  Mode
	BusDirection BusDirection
}

// Mode returns the display mode for the descriptor.
func (d SegmentDescriptor) Mode() Mode {
	switch d.Kind {
	case KindDrive:
		return ModeDrive
	case KindWalk:
		return ModeWalk
	case KindBus:
		return ModeBus
	case KindTransit:
		return d.TransitMode
	}
	return Mode(d.Kind)
}

// IsFixed reports whether the segment runs on an external timetable.
func (d SegmentDescriptor) IsFixed() bool { return d.Kind == KindTransit }

func (d SegmentDescriptor) Validate() error {
	switch d.Kind {
	case KindDrive:
		if d.From.Query() == "" || d.To.Query() == "" {
			return fmt.Errorf("drive %q -> %q: from and to must be set", d.FromLabel, d.ToLabel)
		}
	case KindWalk:
		if d.WalkDuration <= 0 {
			return fmt.Errorf("walk %q -> %q: duration must be positive", d.FromLabel, d.ToLabel)
		}
	case KindTransit:
		if d.TransitMode != ModeTrain && d.TransitMode != ModePATH {
			return fmt.Errorf("transit %q -> %q: mode must be %q or %q", d.FromLabel, d.ToLabel, ModeTrain, ModePATH)
		}
		if d.From.Query() == "" || d.To.Query() == "" {
			return fmt.Errorf("transit %q -> %q: from and to must be set", d.FromLabel, d.ToLabel)
		}
	case KindBus:
		if !d.BusDirection.Valid() {
			return fmt.Errorf("bus %q -> %q: invalid direction %q", d.FromLabel, d.ToLabel, d.BusDirection)
		}
		if d.From.Query() == "" || d.To.Query() == "" {
			return fmt.Errorf("bus %q -> %q: from and to must be set", d.FromLabel, d.ToLabel)
		}
	default:
		return fmt.Errorf("unknown segment kind %q", d.Kind)
	}
	return nil
}

// AnchorKind says which side of a segment an Anchor pins.
type AnchorKind int

const (
	// DepartAfter: the segment may start no earlier than At.
	DepartAfter AnchorKind = iota
	// ArriveBy: the segment must finish no later than At.
	ArriveBy
)

// Temporal reference point given to a segment resolution.
type Anchor struct {
	Kind AnchorKind
	At   time.Time
}

func DepartAfterAnchor(t time.Time) Anchor { return Anchor{Kind: DepartAfter, At: t} }
func ArriveByAnchor(t time.Time) Anchor    { return Anchor{Kind: ArriveBy, At: t} }

// Runtime result of resolving one SegmentDescriptor.
// DepartureTime and ArrivalTime are zero when Error is set.
type ResolvedSegment struct {
	Mode            Mode
	FromLabel       string
	ToLabel         string
	DurationSeconds int
	DepartureTime   time.Time
	ArrivalTime     time.Time
	DistanceMeters  *int
	TrafficNote     string
	LineLabel       string
	Error           string
}

func (s ResolvedSegment) Failed() bool { return s.Error != "" }

// FailedSegment builds the error form of a segment: no times, zero duration.
func FailedSegment(d SegmentDescriptor, errText string) ResolvedSegment {
	return ResolvedSegment{
		Mode:      d.Mode(),
		FromLabel: d.FromLabel,
		ToLabel:   d.ToLabel,
		Error:     errText,
	}
}

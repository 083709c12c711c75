package domain

import (
	"fmt"
	"slices"
	"time"
)

// ClockTime is a wall-clock time of day without a date.
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// On returns the instant at this clock time on the civil date of day in loc.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// Departure times for both directions of a single day type.
type DirectionTimes struct {
	Eastbound []ClockTime `json:"eastbound"`
	Westbound []ClockTime `json:"westbound"`
}

func (d DirectionTimes) For(dir BusDirection) []ClockTime {
	if dir == Westbound {
		return d.Westbound
	}
	return d.Eastbound
}

// Bus timetable keyed by day type and direction.
type BusSchedule struct {
	Weekday DirectionTimes `json:"weekday"`
	Weekend DirectionTimes `json:"weekend"`
}

// ScheduleTimeZone is the civil calendar bus times are published in.
const ScheduleTimeZone = "America/New_York"

// Empty reports whether the schedule carries no departures at all.
func (s BusSchedule) Empty() bool {
	return len(s.Weekday.Eastbound)+len(s.Weekday.Westbound)+len(s.Weekend.Eastbound)+len(s.Weekend.Westbound) == 0
}

// Normalize sorts every list and drops duplicate times.
func (s BusSchedule) Normalize() BusSchedule {
	clean := func(in []ClockTime) []ClockTime {
		out := slices.Clone(in)
		slices.SortFunc(out, func(a, b ClockTime) int { return a.Minutes() - b.Minutes() })
		return slices.Compact(out)
	}
	return BusSchedule{
		Weekday: DirectionTimes{Eastbound: clean(s.Weekday.Eastbound), Westbound: clean(s.Weekday.Westbound)},
		Weekend: DirectionTimes{Eastbound: clean(s.Weekend.Eastbound), Westbound: clean(s.Weekend.Westbound)},
	}
}

// NextDeparture returns the first scheduled departure at or after the given
// instant on the same civil day in loc. Saturdays and Sundays use the weekend
// timetable. The second result is false when no run remains that day.
func (s BusSchedule) NextDeparture(after time.Time, dir BusDirection, loc *time.Location) (time.Time, bool) {
	local := after.In(loc)

	times := s.Weekday.For(dir)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		times = s.Weekend.For(dir)
	}

	for _, ct := range times {
		dep := ct.On(local, loc)
		if !dep.Before(after) {
			return dep, true
		}
	}
	return time.Time{}, false
}

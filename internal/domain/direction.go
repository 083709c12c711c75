package domain

import "fmt"

// Direction selects which set of configured routes a request is about.
type Direction string

const (
	DirectionToOffice Direction = "toOffice"
	DirectionToHome   Direction = "toHome"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionToOffice, DirectionToHome:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q: must be %q or %q", s, DirectionToOffice, DirectionToHome)
}

// BusDirection is the travel direction printed on the bus timetable.
type BusDirection string

const (
	Eastbound BusDirection = "eastbound"
	Westbound BusDirection = "westbound"
)

func (d BusDirection) Valid() bool {
	return d == Eastbound || d == Westbound
}

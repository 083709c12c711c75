package busschedule

import (
	"commute-service/internal/domain"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed fallback_schedule.json
var fallbackJSON []byte

// Fallback returns the timetable bundled with the binary. It is the last
// resort when neither the live page nor the store can provide one.
func Fallback() (domain.BusSchedule, error) {
	var s domain.BusSchedule
	if err := json.Unmarshal(fallbackJSON, &s); err != nil {
		return domain.BusSchedule{}, fmt.Errorf("decode embedded bus schedule: %w", err)
	}
	return s.Normalize(), nil
}

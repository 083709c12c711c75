package busschedule

import (
	"commute-service/internal/domain"
	"regexp"
	"strconv"
	"strings"
)

// rawTime is a timetable cell before AM/PM is settled.
type rawTime struct {
	Hour     int  // as printed, 0-23
	Minute   int
	Meridiem byte // 'a', 'p' or 0 when the cell has no suffix
}

var timeCell = regexp.MustCompile(`(?i)^\s*(\d{1,2})[:.](\d{2})\s*(a\.?m?\.?|p\.?m?\.?)?\s*$`)

// parseTimeCell reads "6:15", "6:15a", "6:15 PM" or "18:15".
func parseTimeCell(s string) (rawTime, bool) {
	m := timeCell.FindStringSubmatch(strings.ReplaceAll(s, "\u00a0", " "))
	if m == nil {
		return rawTime{}, false
	}

	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	if h > 23 || mins > 59 {
		return rawTime{}, false
	}

	rt := rawTime{Hour: h, Minute: mins}
	if m[3] != "" {
		rt.Meridiem = strings.ToLower(m[3])[0]
	}
	if h == 0 || h > 12 {
		// Already 24-hour.
		rt.Meridiem = 0
	}
	return rt, true
}

// resolveMeridiem turns one column of times, in printed order, into clock
// times.
//
// An explicit suffix always wins. Otherwise the first time is AM for hours
// 4-11 and PM for 12 and 1-3, and the column rolls over to PM the first time
// the 12-hour clock goes backwards. This is lossy: a column that crosses
// midnight, or starts in the evening before 4, is misread.
func resolveMeridiem(col []rawTime) []domain.ClockTime {
	out := make([]domain.ClockTime, 0, len(col))

	pm := false
	prev := -1
	for i, rt := range col {
		if rt.Hour == 0 || rt.Hour > 12 {
			out = append(out, domain.ClockTime{Hour: rt.Hour, Minute: rt.Minute})
			pm = rt.Hour >= 12
			prev = rt.Hour % 12
			continue
		}

		h12 := rt.Hour % 12
		switch {
		case rt.Meridiem == 'a':
			pm = false
		case rt.Meridiem == 'p':
			pm = true
		case i == 0 || prev < 0:
			pm = rt.Hour == 12 || rt.Hour <= 3
		case h12 < prev:
			pm = true
		}
		prev = h12

		hour := h12
		if pm {
			hour += 12
		}
		out = append(out, domain.ClockTime{Hour: hour, Minute: rt.Minute})
	}

	return out
}

package busschedule

import (
	"commute-service/internal/domain"
	"commute-service/internal/platform/obs"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Fetcher returns the live bus timetable.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.BusSchedule, error)
}

// Scraper reads a bus timetable from the operator's HTML schedule page.
//
// Each <table> is classified by its caption or, failing that, the nearest
// heading before it. Tables whose direction cannot be told are ignored.
type Scraper struct {
	session *http.Client
	url     string
}

func NewScraper(url string, client *http.Client) (*Scraper, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("bus schedule url is empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Scraper{session: client, url: url}, nil
}

func (s *Scraper) Fetch(ctx context.Context) (_ domain.BusSchedule, err error) {
	defer obs.Time(ctx, "busschedule.Fetch")(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return domain.BusSchedule{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.session.Do(req)
	if err != nil {
		return domain.BusSchedule{}, fmt.Errorf("fetch bus schedule: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.BusSchedule{}, fmt.Errorf("fetch bus schedule: unexpected status: %d", resp.StatusCode)
	}

	sched, err := ParseSchedule(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return domain.BusSchedule{}, fmt.Errorf("fetch bus schedule: %w", err)
	}
	return sched, nil
}

// ParseSchedule extracts weekday and weekend departures for both directions
// from an HTML timetable page.
func ParseSchedule(r io.Reader) (domain.BusSchedule, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return domain.BusSchedule{}, fmt.Errorf("parse html: %w", err)
	}

	var (
		sched   domain.BusSchedule
		heading string
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				heading = textOf(n)
			case "table":
				label := heading
				if c := findFirst(n, "caption"); c != nil {
					label = textOf(c)
				}
				addTable(&sched, label, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	sched = sched.Normalize()
	if sched.Empty() {
		return domain.BusSchedule{}, errors.New("no departure times found")
	}
	return sched, nil
}

type dayType int

const (
	weekday dayType = iota
	weekend
)

func classify(label string) (dayType, domain.BusDirection, bool) {
	l := strings.ToLower(label)

	day := weekday
	if strings.Contains(l, "saturday") || strings.Contains(l, "sunday") || strings.Contains(l, "weekend") {
		day = weekend
	}

	switch {
	case strings.Contains(l, "eastbound") || strings.Contains(l, "to new york"):
		return day, domain.Eastbound, true
	case strings.Contains(l, "westbound") || strings.Contains(l, "from new york"):
		return day, domain.Westbound, true
	}
	return day, "", false
}

// addTable appends the first time column of the table to the schedule.
func addTable(sched *domain.BusSchedule, label string, table *html.Node) {
	day, dir, ok := classify(label)
	if !ok {
		return
	}

	var columns [][]rawTime
	for _, row := range findAll(table, "tr") {
		col := 0
		for c := row.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			if rt, ok := parseTimeCell(textOf(c)); ok {
				for len(columns) <= col {
					columns = append(columns, nil)
				}
				columns[col] = append(columns[col], rt)
			}
			col++
		}
	}

	var times []domain.ClockTime
	for _, c := range columns {
		if len(c) > 0 {
			times = resolveMeridiem(c)
			break
		}
	}
	if len(times) == 0 {
		return
	}

	target := &sched.Weekday
	if day == weekend {
		target = &sched.Weekend
	}
	if dir == domain.Westbound {
		target.Westbound = append(target.Westbound, times...)
	} else {
		target.Eastbound = append(target.Eastbound, times...)
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func findFirst(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if f := findFirst(c, tag); f != nil {
			return f
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

package busschedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><body>
<h2>Route 46 Weekday Service - Eastbound to New York</h2>
<table>
  <tr><th>Lake Hiawatha</th><th>Park &amp; Ride</th><th>Port Authority</th></tr>
  <tr><td>5:30</td><td>5:45</td><td>6:50</td></tr>
  <tr><td>—</td><td>11:15</td><td>12:20</td></tr>
  <tr><td>12:00</td><td>12:15</td><td>1:20</td></tr>
</table>
<h2>Weekday Westbound from New York</h2>
<table>
  <tr><th>Port Authority</th><th>Park &amp; Ride</th></tr>
  <tr><td>4:30 PM</td><td>5:35 PM</td></tr>
  <tr><td>5:15 PM</td><td>6:20 PM</td></tr>
</table>
<table>
  <caption>Saturday Eastbound</caption>
  <tr><td>8:15</td><td>9:20</td></tr>
</table>
<h3>Fares</h3>
<table><tr><td>One way</td><td>$7.50</td></tr></table>
</body></html>`

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule(strings.NewReader(samplePage))
	require.NoError(t, err)

	// The first column with any time is the departure stop.
	assert.Equal(t, clock(5, 30, 12, 0), s.Weekday.Eastbound)
	assert.Equal(t, clock(16, 30, 17, 15), s.Weekday.Westbound)
	assert.Equal(t, clock(8, 15), s.Weekend.Eastbound)
	assert.Empty(t, s.Weekend.Westbound)
}

func TestParseScheduleWithoutTimes(t *testing.T) {
	_, err := ParseSchedule(strings.NewReader(`<html><body><h2>Eastbound</h2><p>Service suspended</p></body></html>`))
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	day, dir, ok := classify("Sunday service: trips FROM New York")
	require.True(t, ok)
	assert.Equal(t, weekend, day)
	assert.Equal(t, "westbound", string(dir))

	_, _, ok = classify("Fares")
	assert.False(t, ok)
}

func TestScraperFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	s, err := NewScraper(srv.URL+"/schedule", srv.Client())
	require.NoError(t, err)

	sched, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, sched.Weekday.Eastbound, 2)

	missing, err := NewScraper(srv.URL+"/gone", srv.Client())
	require.NoError(t, err)
	_, err = missing.Fetch(context.Background())
	require.Error(t, err)
}

func TestNewScraperRequiresURL(t *testing.T) {
	_, err := NewScraper(" ", nil)
	require.Error(t, err)
}

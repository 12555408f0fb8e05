// Package clock pins "today" and report timestamps to a fixed regional time
// zone, independent of the server locale.
package clock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// ReportLayout is the layout used for execution timestamps shown to operators.
const ReportLayout = "02/01/2006 15:04:05"

// Regional reads wall time in a fixed location.
type Regional struct {
	loc *time.Location
	now func() time.Time
}

// NewRegional loads the named IANA zone.
func NewRegional(zone string) (*Regional, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return &Regional{loc: loc, now: time.Now}, nil
}

// Fixed returns a Regional whose Now always reports t. Used by tests and
// by one-off backfills.
func Fixed(loc *time.Location, t time.Time) *Regional {
	return &Regional{loc: loc, now: func() time.Time { return t }}
}

// Location returns the configured zone.
func (r *Regional) Location() *time.Location { return r.loc }

// Now returns the current instant in the regional zone.
func (r *Regional) Now() time.Time { return r.now().In(r.loc) }

// Today returns the regional calendar date as midnight UTC, the form in which
// DATE columns are compared and scanned.
func (r *Regional) Today() time.Time {
	return DateOf(r.Now())
}

// DateOf strips the clock from t, keeping the calendar date t has in its own
// location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format renders t in the regional zone with ReportLayout.
func (r *Regional) Format(t time.Time) string {
	return t.In(r.loc).Format(ReportLayout)
}

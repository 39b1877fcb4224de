// Package domain contains the core data types for the TripStory API.
// This package depends only on the standard library and google/uuid and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a titled travel plan with a date range and ordered destinations.
// A trip is the top-level aggregate; destinations belong to a trip and are
// deleted with it.
//
// StartDate and EndDate are calendar dates stored as midnight UTC.
type Trip struct {
	ID               uuid.UUID
	Title            string
	StartDate        time.Time
	EndDate          time.Time
	Notes            string
	ImageURL         string
	ImageAttribution string
	Destinations     []Destination
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TripPatch carries a partial update. Nil fields leave the stored value as is.
type TripPatch struct {
	Title     *string
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
}

// Apply returns a copy of t with every non-nil patch field written over it.
func (t Trip) Apply(p TripPatch) Trip {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.StartDate != nil {
		t.StartDate = CalendarDate(*p.StartDate)
	}
	if p.EndDate != nil {
		t.EndDate = CalendarDate(*p.EndDate)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

// TripStatistics holds trip counts by status. Each count is computed with its
// own predicate, so Upcoming+Ongoing+Past is not guaranteed to equal Total.
type TripStatistics struct {
	Total    int64
	Upcoming int64
	Ongoing  int64
	Past     int64
}

// CalendarDate truncates t to its calendar date, expressed as midnight UTC.
// The year, month and day are taken in t's own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

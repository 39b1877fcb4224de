package domain

import (
	"time"

	"github.com/google/uuid"
)

// Destination is a named place attached to a trip with optional coordinates
// and an explicit display order. OrderIndex is the zero-based position within
// the owning trip.
type Destination struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	Name        string
	FullName    string
	Type        string
	Latitude    *float64
	Longitude   *float64
	Description string
	OrderIndex  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DestinationPatch describes the fields supplied by a caller when adding or
// updating a destination. Nil fields are left untouched on update; on add a
// nil OrderIndex means "append after the current last destination".
type DestinationPatch struct {
	Name        *string
	FullName    *string
	Type        *string
	Latitude    *float64
	Longitude   *float64
	Description *string
	OrderIndex  *int
}

// Apply returns a copy of d with every non-nil patch field written over it.
func (d Destination) Apply(p DestinationPatch) Destination {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.FullName != nil {
		d.FullName = *p.FullName
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Latitude != nil {
		lat := *p.Latitude
		d.Latitude = &lat
	}
	if p.Longitude != nil {
		lon := *p.Longitude
		d.Longitude = &lon
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.OrderIndex != nil {
		d.OrderIndex = *p.OrderIndex
	}
	return d
}

// Suggestion is a candidate place returned by the geocoding provider.
type Suggestion struct {
	Name      string
	FullName  string
	Type      string
	Latitude  *float64
	Longitude *float64
}

// ToDestination maps a suggestion onto a new, unsaved destination for tripID.
func (s Suggestion) ToDestination(tripID uuid.UUID) Destination {
	return Destination{
		TripID:    tripID,
		Name:      s.Name,
		FullName:  s.FullName,
		Type:      s.Type,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	}
}

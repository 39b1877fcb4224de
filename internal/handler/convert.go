package handler

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tripstory/internal/domain"
)

// Request and response models. JSON field names are camelCase; dates travel
// as YYYY-MM-DD via openapi_types.Date and timestamps as RFC 3339.

type createTripRequest struct {
	Title        string                     `json:"title" validate:"required,max=255"`
	StartDate    *openapi_types.Date        `json:"startDate" validate:"required"`
	EndDate      *openapi_types.Date        `json:"endDate" validate:"required"`
	Notes        *string                    `json:"notes" validate:"omitempty,max=1000"`
	Destinations []createDestinationRequest `json:"destinations" validate:"omitempty,dive"`
}

type updateTripRequest struct {
	Title     *string             `json:"title" validate:"omitempty,max=255"`
	StartDate *openapi_types.Date `json:"startDate"`
	EndDate   *openapi_types.Date `json:"endDate"`
	Notes     *string             `json:"notes" validate:"omitempty,max=1000"`
}

type createDestinationRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	FullName    *string  `json:"fullName" validate:"omitempty,max=500"`
	Type        *string  `json:"type" validate:"omitempty,max=50"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	OrderIndex  *int     `json:"orderIndex" validate:"omitempty,min=0"`
}

type updateDestinationRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=255"`
	FullName    *string  `json:"fullName" validate:"omitempty,max=500"`
	Type        *string  `json:"type" validate:"omitempty,max=50"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	OrderIndex  *int     `json:"orderIndex" validate:"omitempty,min=0"`
}

type suggestionRequest struct {
	Name      string   `json:"name" validate:"required,max=255"`
	FullName  string   `json:"fullName" validate:"max=500"`
	Type      string   `json:"type" validate:"max=50"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

type tripResponse struct {
	ID               uuid.UUID             `json:"id"`
	Title            string                `json:"title"`
	StartDate        openapi_types.Date    `json:"startDate"`
	EndDate          openapi_types.Date    `json:"endDate"`
	Notes            *string               `json:"notes"`
	ImageURL         *string               `json:"imageUrl"`
	ImageAttribution *string               `json:"imageAttribution"`
	Destinations     []destinationResponse `json:"destinations"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

type destinationResponse struct {
	ID          uuid.UUID `json:"id"`
	TripID      uuid.UUID `json:"tripId"`
	Name        string    `json:"name"`
	FullName    *string   `json:"fullName"`
	Type        *string   `json:"type"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Description *string   `json:"description"`
	OrderIndex  int       `json:"orderIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type suggestionResponse struct {
	Name      string   `json:"name"`
	FullName  string   `json:"fullName"`
	Type      string   `json:"type"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type statisticsResponse struct {
	Total    int64 `json:"total"`
	Upcoming int64 `json:"upcoming"`
	Ongoing  int64 `json:"ongoing"`
	Past     int64 `json:"past"`
}

// requestToTrip converts a validated create body into a domain.Trip.
// Inline destinations get their position as OrderIndex.
func requestToTrip(body createTripRequest) domain.Trip {
	trip := domain.Trip{
		Title:     body.Title,
		StartDate: body.StartDate.Time,
		EndDate:   body.EndDate.Time,
	}
	if body.Notes != nil {
		trip.Notes = *body.Notes
	}
	trip.Destinations = make([]domain.Destination, len(body.Destinations))
	for i, d := range body.Destinations {
		trip.Destinations[i] = domain.Destination{}.Apply(createDestinationToPatch(d))
		trip.Destinations[i].OrderIndex = i
	}
	return trip
}

// requestToTripPatch converts an update body into a partial update.
func requestToTripPatch(body updateTripRequest) domain.TripPatch {
	p := domain.TripPatch{Title: body.Title, Notes: body.Notes}
	if body.StartDate != nil {
		p.StartDate = &body.StartDate.Time
	}
	if body.EndDate != nil {
		p.EndDate = &body.EndDate.Time
	}
	return p
}

func createDestinationToPatch(body createDestinationRequest) domain.DestinationPatch {
	return domain.DestinationPatch{
		Name:        &body.Name,
		FullName:    body.FullName,
		Type:        body.Type,
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		Description: body.Description,
		OrderIndex:  body.OrderIndex,
	}
}

func updateDestinationToPatch(body updateDestinationRequest) domain.DestinationPatch {
	return domain.DestinationPatch{
		Name:        body.Name,
		FullName:    body.FullName,
		Type:        body.Type,
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		Description: body.Description,
		OrderIndex:  body.OrderIndex,
	}
}

func requestToSuggestions(body []suggestionRequest) []domain.Suggestion {
	out := make([]domain.Suggestion, len(body))
	for i, s := range body {
		out[i] = domain.Suggestion{
			Name:      s.Name,
			FullName:  s.FullName,
			Type:      s.Type,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		}
	}
	return out
}

// tripToResponse converts a domain.Trip to its JSON model. Empty optional
// strings are rendered as null.
func tripToResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:               t.ID,
		Title:            t.Title,
		StartDate:        openapi_types.Date{Time: t.StartDate},
		EndDate:          openapi_types.Date{Time: t.EndDate},
		Notes:            nullIfEmpty(t.Notes),
		ImageURL:         nullIfEmpty(t.ImageURL),
		ImageAttribution: nullIfEmpty(t.ImageAttribution),
		Destinations:     destinationsToResponse(t.Destinations),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func tripsToResponse(trips []domain.Trip) []tripResponse {
	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	return out
}

func destinationToResponse(d domain.Destination) destinationResponse {
	return destinationResponse{
		ID:          d.ID,
		TripID:      d.TripID,
		Name:        d.Name,
		FullName:    nullIfEmpty(d.FullName),
		Type:        nullIfEmpty(d.Type),
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		Description: nullIfEmpty(d.Description),
		OrderIndex:  d.OrderIndex,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// destinationsToResponse always returns a non-nil slice so the JSON is [] not null.
func destinationsToResponse(dests []domain.Destination) []destinationResponse {
	out := make([]destinationResponse, len(dests))
	for i, d := range dests {
		out[i] = destinationToResponse(d)
	}
	return out
}

func suggestionsToResponse(suggestions []domain.Suggestion) []suggestionResponse {
	out := make([]suggestionResponse, len(suggestions))
	for i, s := range suggestions {
		out[i] = suggestionResponse(s)
	}
	return out
}

func statisticsToResponse(s domain.TripStatistics) statisticsResponse {
	return statisticsResponse(s)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

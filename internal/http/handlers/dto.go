package handlers

import (
	"time"

	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/value"
	"github.com/geocoder89/yardsale/internal/service/events"
	"github.com/geocoder89/yardsale/internal/service/nearby"
)

// Request bodies only check shape. Business rules live in the domain and come
// back as validation_error.

type MoneyRequest struct {
	Amount   float64 `json:"amount" binding:"gte=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
}

type EarlyBirdRequest struct {
	Enabled       bool          `json:"enabled"`
	OffsetMinutes int           `json:"offsetMinutes" binding:"gte=0"`
	Fee           *MoneyRequest `json:"fee"`
}

type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	State      string `json:"state"`
}

type ContactRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type CreateEventRequest struct {
	Title               string            `json:"title" binding:"required"`
	Description         string            `json:"description"`
	Type                string            `json:"type" binding:"required"`
	StartDate           time.Time         `json:"startDate" binding:"required"`
	EndDate             time.Time         `json:"endDate" binding:"required"`
	Latitude            *float64          `json:"latitude" binding:"required"`
	Longitude           *float64          `json:"longitude" binding:"required"`
	Address             AddressRequest    `json:"address"`
	Contact             ContactRequest    `json:"contact"`
	SpecialInstructions string            `json:"specialInstructions"`
	EntryFee            *MoneyRequest     `json:"entryFee"`
	EarlyBird           *EarlyBirdRequest `json:"earlyBird"`
	CategoryID          *string           `json:"categoryId" binding:"omitempty,uuid"`
}

func (r CreateEventRequest) params(organizerID string) event.CreateParams {
	return event.CreateParams{
		Title:               r.Title,
		Description:         r.Description,
		Type:                event.Type(r.Type),
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		Latitude:            *r.Latitude,
		Longitude:           *r.Longitude,
		Street:              r.Address.Street,
		City:                r.Address.City,
		PostalCode:          r.Address.PostalCode,
		Country:             r.Address.Country,
		State:               r.Address.State,
		ContactPhone:        r.Contact.Phone,
		ContactEmail:        r.Contact.Email,
		SpecialInstructions: r.SpecialInstructions,
		EntryFee:            r.EntryFee.fee(),
		EarlyBird:           r.EarlyBird.input(),
		OrganizerID:         organizerID,
		CategoryID:          r.CategoryID,
	}
}

func (m *MoneyRequest) fee() *event.Fee {
	if m == nil {
		return nil
	}
	return &event.Fee{Amount: m.Amount, Currency: m.Currency}
}

func (e *EarlyBirdRequest) input() event.EarlyBirdInput {
	if e == nil {
		return event.EarlyBirdInput{}
	}
	return event.EarlyBirdInput{
		Enabled: e.Enabled,
		Offset:  time.Duration(e.OffsetMinutes) * time.Minute,
		Fee:     e.Fee.fee(),
	}
}

type DetailsRequest struct {
	Title               string `json:"title" binding:"required"`
	Description         string `json:"description"`
	SpecialInstructions string `json:"specialInstructions"`
}

type ScheduleRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

type LocationRequest struct {
	Latitude  *float64       `json:"latitude" binding:"required"`
	Longitude *float64       `json:"longitude" binding:"required"`
	Address   AddressRequest `json:"address"`
}

type FeesRequest struct {
	EntryFee  *MoneyRequest     `json:"entryFee"`
	EarlyBird *EarlyBirdRequest `json:"earlyBird"`
}

// UpdateEventRequest replaces whole sections. Sections left out are kept.
type UpdateEventRequest struct {
	Details       *DetailsRequest  `json:"details"`
	Schedule      *ScheduleRequest `json:"schedule"`
	Location      *LocationRequest `json:"location"`
	Fees          *FeesRequest     `json:"fees"`
	Contact       *ContactRequest  `json:"contact"`
	CategoryID    *string          `json:"categoryId" binding:"omitempty,uuid"`
	ClearCategory bool             `json:"clearCategory"`
}

func (r UpdateEventRequest) update() events.Update {
	var u events.Update

	if r.Details != nil {
		u.Details = &events.Details{
			Title:        r.Details.Title,
			Description:  r.Details.Description,
			Instructions: r.Details.SpecialInstructions,
		}
	}
	if r.Schedule != nil {
		u.Schedule = &events.Schedule{Start: r.Schedule.StartDate, End: r.Schedule.EndDate}
	}
	if r.Location != nil {
		u.Place = &events.Place{
			Latitude:   *r.Location.Latitude,
			Longitude:  *r.Location.Longitude,
			Street:     r.Location.Address.Street,
			City:       r.Location.Address.City,
			PostalCode: r.Location.Address.PostalCode,
			Country:    r.Location.Address.Country,
			State:      r.Location.Address.State,
		}
	}
	if r.Fees != nil {
		u.Fees = &events.Fees{EntryFee: r.Fees.EntryFee.fee(), EarlyBird: r.Fees.EarlyBird.input()}
	}
	if r.Contact != nil {
		u.Contact = &events.Contact{Phone: r.Contact.Phone, Email: r.Contact.Email}
	}
	u.Category = r.CategoryID
	u.ClearCategory = r.ClearCategory

	return u
}

type CancelEventRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type PostponeEventRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
	Reason    string    `json:"reason" binding:"required"`
}

type MoneyResponse struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type EarlyBirdResponse struct {
	Enabled       bool           `json:"enabled"`
	OffsetMinutes int64          `json:"offsetMinutes"`
	Fee           *MoneyResponse `json:"fee,omitempty"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AddressResponse struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	State      string `json:"state,omitempty"`
}

type EventResponse struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	Type                event.Type        `json:"type"`
	Status              event.Status      `json:"status"`
	StartDate           time.Time         `json:"startDate"`
	EndDate             time.Time         `json:"endDate"`
	Location            LocationResponse  `json:"location"`
	Address             AddressResponse   `json:"address"`
	Contact             ContactRequest    `json:"contact"`
	SpecialInstructions string            `json:"specialInstructions,omitempty"`
	EntryFee            *MoneyResponse    `json:"entryFee,omitempty"`
	EarlyBird           EarlyBirdResponse `json:"earlyBird"`
	PublishedAt         *time.Time        `json:"publishedAt,omitempty"`
	CancellationReason  string            `json:"cancellationReason,omitempty"`
	FavoriteCount       int               `json:"favoriteCount"`
	OrganizerID         string            `json:"organizerId"`
	CategoryID          *string           `json:"categoryId,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

func toEventResponse(e *event.Event) EventResponse {
	addr := e.Address()
	eb := e.EarlyBird()

	return EventResponse{
		ID:          e.ID(),
		Title:       e.Title(),
		Description: e.Description(),
		Type:        e.Type(),
		Status:      e.Status(),
		StartDate:   e.DateRange().Start(),
		EndDate:     e.DateRange().End(),
		Location: LocationResponse{
			Latitude:  e.Location().Latitude(),
			Longitude: e.Location().Longitude(),
		},
		Address: AddressResponse{
			Street:     addr.Street(),
			City:       addr.City(),
			PostalCode: addr.PostalCode(),
			Country:    addr.Country(),
			State:      addr.State(),
		},
		Contact:             ContactRequest{Phone: e.Contact().Phone, Email: e.Contact().Email},
		SpecialInstructions: e.SpecialInstructions(),
		EntryFee:            toMoneyResponse(e.EntryFee()),
		EarlyBird: EarlyBirdResponse{
			Enabled:       eb.Enabled,
			OffsetMinutes: int64(eb.Offset / time.Minute),
			Fee:           toMoneyResponse(eb.Fee),
		},
		PublishedAt:        e.PublishedAt(),
		CancellationReason: e.CancellationReason(),
		FavoriteCount:      e.FavoriteCount(),
		OrganizerID:        e.OrganizerID(),
		CategoryID:         e.CategoryID(),
		CreatedAt:          e.CreatedAt(),
		UpdatedAt:          e.UpdatedAt(),
	}
}

func toMoneyResponse(m *value.Money) *MoneyResponse {
	if m == nil {
		return nil
	}
	return &MoneyResponse{Amount: m.Amount(), Currency: m.Currency()}
}

type EventPageResponse struct {
	Items      []EventResponse `json:"items"`
	Count      int             `json:"count"`
	NextCursor *string         `json:"nextCursor"`
	HasMore    bool            `json:"hasMore"`
}

type NearbyEventResponse struct {
	EventResponse
	DistanceKm float64 `json:"distanceKm"`
}

type NearbyResponse struct {
	Items    []NearbyEventResponse `json:"items"`
	Count    int                   `json:"count"`
	RadiusKm float64               `json:"radiusKm"`
}

func toNearbyResponse(results []nearby.Result, radiusKm float64) NearbyResponse {
	items := make([]NearbyEventResponse, 0, len(results))
	for _, r := range results {
		items = append(items, NearbyEventResponse{
			EventResponse: toEventResponse(r.Event),
			DistanceKm:    nearby.RoundKm(r.DistanceKm),
		})
	}
	return NearbyResponse{Items: items, Count: len(items), RadiusKm: radiusKm}
}

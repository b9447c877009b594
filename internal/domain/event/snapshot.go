package event

import (
	"time"

	"github.com/geocoder89/yardsale/internal/domain/geo"
	"github.com/geocoder89/yardsale/internal/domain/value"
)

// Snapshot is the flat persisted shape of an Event. Value objects are spread
// over prefixed columns.
type Snapshot struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Type                 Type       `json:"type"`
	Status               Status     `json:"status"`
	DateRangeStartDate   time.Time  `json:"date_range_start_date"`
	DateRangeEndDate     time.Time  `json:"date_range_end_date"`
	LocationLatitude     float64    `json:"location_latitude"`
	LocationLongitude    float64    `json:"location_longitude"`
	AddressStreet        string     `json:"address_street"`
	AddressCity          string     `json:"address_city"`
	AddressPostalCode    string     `json:"address_postal_code"`
	AddressCountry       string     `json:"address_country"`
	AddressState         string     `json:"address_state"`
	ContactPhone         string     `json:"contact_phone"`
	ContactEmail         string     `json:"contact_email"`
	SpecialInstructions  string     `json:"special_instructions"`
	EntryFeeAmount       *float64   `json:"entry_fee_amount"`
	EntryFeeCurrency     *string    `json:"entry_fee_currency"`
	EarlyBirdEnabled     bool       `json:"early_bird_enabled"`
	EarlyBirdOffset      int64      `json:"early_bird_offset_minutes"`
	EarlyBirdFeeAmount   *float64   `json:"early_bird_fee_amount"`
	EarlyBirdFeeCurrency *string    `json:"early_bird_fee_currency"`
	PublishedAt          *time.Time `json:"published_at"`
	CancellationReason   string     `json:"cancellation_reason"`
	FavoriteCount        int        `json:"favorite_count"`
	OrganizerID          string     `json:"organizer_id"`
	CategoryID           *string    `json:"category_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	IsDeleted            bool       `json:"is_deleted"`
	DeletedAt            *time.Time `json:"deleted_at"`
}

func (e *Event) Snapshot() Snapshot {
	s := Snapshot{
		ID:                  e.id,
		Title:               e.title,
		Description:         e.description,
		Type:                e.eventType,
		Status:              e.status,
		DateRangeStartDate:  e.dateRange.Start(),
		DateRangeEndDate:    e.dateRange.End(),
		LocationLatitude:    e.location.Latitude(),
		LocationLongitude:   e.location.Longitude(),
		AddressStreet:       e.address.Street(),
		AddressCity:         e.address.City(),
		AddressPostalCode:   e.address.PostalCode(),
		AddressCountry:      e.address.Country(),
		AddressState:        e.address.State(),
		ContactPhone:        e.contact.Phone,
		ContactEmail:        e.contact.Email,
		SpecialInstructions: e.specialInstructions,
		EarlyBirdEnabled:    e.earlyBird.Enabled,
		EarlyBirdOffset:     int64(e.earlyBird.Offset / time.Minute),
		PublishedAt:         e.publishedAt,
		CancellationReason:  e.cancellationReason,
		FavoriteCount:       e.favoriteCount,
		OrganizerID:         e.organizerID,
		CategoryID:          e.categoryID,
		CreatedAt:           e.createdAt,
		UpdatedAt:           e.updatedAt,
		IsDeleted:           e.deleted,
		DeletedAt:           e.deletedAt,
	}

	s.EntryFeeAmount, s.EntryFeeCurrency = flattenMoney(e.entryFee)
	s.EarlyBirdFeeAmount, s.EarlyBirdFeeCurrency = flattenMoney(e.earlyBird.Fee)

	return s
}

// Restore rebuilds an Event from storage. Stored rows were valid when written,
// so creation-time rules are not re-applied. Coordinates are still checked.
func Restore(s Snapshot) (*Event, error) {
	loc, err := geo.NewLocation(s.LocationLatitude, s.LocationLongitude)
	if err != nil {
		return nil, err
	}

	e := &Event{
		id:                  s.ID,
		title:               s.Title,
		description:         s.Description,
		eventType:           s.Type,
		status:              s.Status,
		dateRange:           value.RestoreDateRange(s.DateRangeStartDate, s.DateRangeEndDate),
		location:            loc,
		address:             value.RestoreAddress(s.AddressStreet, s.AddressCity, s.AddressPostalCode, s.AddressCountry, s.AddressState),
		contact:             Contact{Phone: s.ContactPhone, Email: s.ContactEmail},
		specialInstructions: s.SpecialInstructions,
		entryFee:            restoreMoney(s.EntryFeeAmount, s.EntryFeeCurrency),
		earlyBird: EarlyBird{
			Enabled: s.EarlyBirdEnabled,
			Offset:  time.Duration(s.EarlyBirdOffset) * time.Minute,
			Fee:     restoreMoney(s.EarlyBirdFeeAmount, s.EarlyBirdFeeCurrency),
		},
		publishedAt:        s.PublishedAt,
		cancellationReason: s.CancellationReason,
		favoriteCount:      s.FavoriteCount,
		organizerID:        s.OrganizerID,
		categoryID:         s.CategoryID,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
		deleted:            s.IsDeleted,
		deletedAt:          s.DeletedAt,
	}

	if e.favoriteCount < 0 {
		e.favoriteCount = 0
	}

	return e, nil
}

func flattenMoney(m *value.Money) (*float64, *string) {
	if m == nil {
		return nil, nil
	}
	amount, currency := m.Amount(), m.Currency()
	return &amount, &currency
}

func restoreMoney(amount *float64, currency *string) *value.Money {
	if amount == nil || currency == nil {
		return nil
	}
	m := value.RestoreMoney(*amount, *currency)
	return &m
}

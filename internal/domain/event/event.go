package event

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/domain/geo"
	"github.com/geocoder89/yardsale/internal/domain/value"
)

const (
	minTitleLen        = 3
	maxTitleLen        = 200
	maxDescriptionLen  = 2000
	maxInstructionsLen = 1000
	maxReasonLen       = 500

	// MaxEarlyBirdOffset is how long before the start early-bird access may open.
	MaxEarlyBirdOffset = 2 * time.Hour
)

var validate = validator.New()

// Fee is an unvalidated money amount as received from callers.
type Fee struct {
	Amount   float64
	Currency string
}

type EarlyBirdInput struct {
	Enabled bool
	Offset  time.Duration
	Fee     *Fee
}

// EarlyBird lets buyers in before the official start, optionally for a fee.
type EarlyBird struct {
	Enabled bool
	Offset  time.Duration
	Fee     *value.Money
}

type Contact struct {
	Phone string
	Email string
}

func (c Contact) HasAny() bool {
	return c.Phone != "" || c.Email != ""
}

type CreateParams struct {
	Title               string
	Description         string
	Type                Type
	StartDate           time.Time
	EndDate             time.Time
	Latitude            float64
	Longitude           float64
	Street              string
	City                string
	PostalCode          string
	Country             string
	State               string
	ContactPhone        string
	ContactEmail        string
	SpecialInstructions string
	EntryFee            *Fee
	EarlyBird           EarlyBirdInput
	OrganizerID         string
	CategoryID          *string
}

// Event is the sale aggregate. Fields are only changed through its methods so
// every transition goes through its guard.
type Event struct {
	id                  string
	title               string
	description         string
	eventType           Type
	status              Status
	dateRange           value.DateRange
	location            geo.Location
	address             value.Address
	contact             Contact
	specialInstructions string
	entryFee            *value.Money
	earlyBird           EarlyBird
	publishedAt         *time.Time
	cancellationReason  string
	favoriteCount       int
	organizerID         string
	categoryID          *string
	createdAt           time.Time
	updatedAt           time.Time
	deleted             bool
	deletedAt           *time.Time

	domainEvents []DomainEvent
}

// Create builds a draft event, reporting every invalid field at once.
func Create(p CreateParams, now time.Time) (*Event, error) {
	var errs apperr.List

	title, description, instructions := validateDetails(&errs, p.Title, p.Description, p.SpecialInstructions)

	if !p.Type.IsValid() {
		errs.Add(ErrInvalidType)
	}

	organizerID := strings.TrimSpace(p.OrganizerID)
	if organizerID == "" {
		errs.Add(ErrOrganizerRequired)
	}

	dateRange, err := value.NewDateRange(p.StartDate, p.EndDate, now)
	errs.Extend(err)

	location, err := geo.NewLocation(p.Latitude, p.Longitude)
	errs.Extend(err)

	address, err := value.NewAddress(p.Street, p.City, p.PostalCode, p.Country, p.State)
	errs.Extend(err)

	contact := validateContact(&errs, p.ContactPhone, p.ContactEmail)
	entryFee, earlyBird := validateFees(&errs, p.EntryFee, p.EarlyBird)

	if err := errs.Err(); err != nil {
		return nil, err
	}

	e := &Event{
		id:                  uuid.NewString(),
		title:               title,
		description:         description,
		eventType:           p.Type,
		status:              StatusDraft,
		dateRange:           dateRange,
		location:            location,
		address:             address,
		contact:             contact,
		specialInstructions: instructions,
		entryFee:            entryFee,
		earlyBird:           earlyBird,
		organizerID:         organizerID,
		categoryID:          normalizeID(p.CategoryID),
		createdAt:           now,
		updatedAt:           now,
	}

	e.raise(Created{EventID: e.id, OrganizerID: organizerID, At: now})

	return e, nil
}

func (e *Event) ID() string                    { return e.id }
func (e *Event) Title() string                 { return e.title }
func (e *Event) Description() string           { return e.description }
func (e *Event) Type() Type                    { return e.eventType }
func (e *Event) Status() Status                { return e.status }
func (e *Event) DateRange() value.DateRange    { return e.dateRange }
func (e *Event) Location() geo.Location        { return e.location }
func (e *Event) Address() value.Address        { return e.address }
func (e *Event) Contact() Contact              { return e.contact }
func (e *Event) SpecialInstructions() string   { return e.specialInstructions }
func (e *Event) EntryFee() *value.Money        { return e.entryFee }
func (e *Event) EarlyBird() EarlyBird          { return e.earlyBird }
func (e *Event) PublishedAt() *time.Time       { return e.publishedAt }
func (e *Event) CancellationReason() string    { return e.cancellationReason }
func (e *Event) FavoriteCount() int            { return e.favoriteCount }
func (e *Event) OrganizerID() string           { return e.organizerID }
func (e *Event) CategoryID() *string           { return e.categoryID }
func (e *Event) CreatedAt() time.Time          { return e.createdAt }
func (e *Event) UpdatedAt() time.Time          { return e.updatedAt }
func (e *Event) IsDeleted() bool               { return e.deleted }
func (e *Event) DeletedAt() *time.Time         { return e.deletedAt }
func (e *Event) IsPubliclyVisible() bool       { return !e.deleted && e.status.IsPubliclyVisible() }
func (e *Event) IsOrganizedBy(userID string) bool {
	return userID != "" && e.organizerID == userID
}

// UpdateDetails replaces title, description and special instructions.
func (e *Event) UpdateDetails(title, description, instructions string, now time.Time) error {
	if err := e.ensureDraft(); err != nil {
		return err
	}

	var errs apperr.List
	t, d, i := validateDetails(&errs, title, description, instructions)
	if err := errs.Err(); err != nil {
		return err
	}

	e.title, e.description, e.specialInstructions = t, d, i
	e.touch(now)
	return nil
}

func (e *Event) UpdateSchedule(start, end time.Time, now time.Time) error {
	if err := e.ensureDraft(); err != nil {
		return err
	}

	dr, err := value.NewDateRange(start, end, now)
	if err != nil {
		return err
	}

	e.dateRange = dr
	e.touch(now)
	return nil
}

func (e *Event) UpdateLocation(lat, lon float64, street, city, postalCode, country, state string, now time.Time) error {
	if err := e.ensureDraft(); err != nil {
		return err
	}

	var errs apperr.List

	loc, err := geo.NewLocation(lat, lon)
	errs.Extend(err)

	addr, err := value.NewAddress(street, city, postalCode, country, state)
	errs.Extend(err)

	if err := errs.Err(); err != nil {
		return err
	}

	e.location, e.address = loc, addr
	e.touch(now)
	return nil
}

func (e *Event) UpdateFees(entryFee *Fee, earlyBird EarlyBirdInput, now time.Time) error {
	if err := e.ensureDraft(); err != nil {
		return err
	}

	var errs apperr.List
	fee, eb := validateFees(&errs, entryFee, earlyBird)
	if err := errs.Err(); err != nil {
		return err
	}

	e.entryFee, e.earlyBird = fee, eb
	e.touch(now)
	return nil
}

func (e *Event) UpdateContact(phone, email string, now time.Time) error {
	if err := e.ensureDraft(); err != nil {
		return err
	}

	var errs apperr.List
	c := validateContact(&errs, phone, email)
	if err := errs.Err(); err != nil {
		return err
	}

	e.contact = c
	e.touch(now)
	return nil
}

func (e *Event) UpdateCategory(categoryID *string, now time.Time) error {
	if err := e.ensureDraft(); err != nil {
		return err
	}

	e.categoryID = normalizeID(categoryID)
	e.touch(now)
	return nil
}

// IncrementFavoriteCount is independent of the lifecycle status.
func (e *Event) IncrementFavoriteCount() {
	e.favoriteCount++
}

// DecrementFavoriteCount never takes the counter below zero.
func (e *Event) DecrementFavoriteCount() {
	if e.favoriteCount > 0 {
		e.favoriteCount--
	}
}

// SetFavoriteCount overwrites the counter with a recomputed value.
func (e *Event) SetFavoriteCount(n int) {
	if n < 0 {
		n = 0
	}
	e.favoriteCount = n
}

func (e *Event) SoftDelete(now time.Time) error {
	if e.deleted {
		return ErrAlreadyDeleted
	}

	e.deleted = true
	e.deletedAt = &now
	e.touch(now)
	return nil
}

// PullDomainEvents returns the queued domain events and clears the queue.
func (e *Event) PullDomainEvents() []DomainEvent {
	out := e.domainEvents
	e.domainEvents = nil
	return out
}

func (e *Event) ensureDraft() error {
	switch e.status {
	case StatusDraft:
		return nil
	case StatusCompleted:
		return ErrCannotModifyCompletedEvent
	case StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrCannotModifyPublishedEvent
	}
}

func (e *Event) touch(now time.Time) {
	e.updatedAt = now
}

func (e *Event) raise(de DomainEvent) {
	e.domainEvents = append(e.domainEvents, de)
}

func validateDetails(errs *apperr.List, title, description, instructions string) (string, string, string) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	instructions = strings.TrimSpace(instructions)

	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		errs.Add(ErrTitleRequired)
	case n < minTitleLen || n > maxTitleLen:
		errs.Add(ErrTitleLength)
	}

	if utf8.RuneCountInString(description) > maxDescriptionLen {
		errs.Add(ErrDescriptionTooLong)
	}
	if utf8.RuneCountInString(instructions) > maxInstructionsLen {
		errs.Add(ErrInstructionsTooLong)
	}

	return title, description, instructions
}

func validateContact(errs *apperr.List, phone, email string) Contact {
	c := Contact{Phone: strings.TrimSpace(phone), Email: strings.TrimSpace(email)}

	if c.Email != "" && validate.Var(c.Email, "email") != nil {
		errs.Add(ErrInvalidContactEmail)
	}
	if c.Phone != "" && !isPhoneNumber(c.Phone) {
		errs.Add(ErrInvalidContactPhone)
	}

	return c
}

func validateFees(errs *apperr.List, entryFee *Fee, in EarlyBirdInput) (*value.Money, EarlyBird) {
	var fee *value.Money
	if entryFee != nil {
		m, err := value.NewMoney(entryFee.Amount, entryFee.Currency)
		if err != nil {
			errs.Extend(err)
		} else {
			fee = &m
		}
	}

	eb := EarlyBird{Enabled: in.Enabled, Offset: in.Offset}

	if in.Fee != nil {
		if !in.Enabled {
			errs.Add(ErrEarlyBirdFeeWithoutFlag)
		}

		m, err := value.NewMoney(in.Fee.Amount, in.Fee.Currency)
		if err != nil {
			errs.Extend(err)
		} else {
			eb.Fee = &m
		}
	}

	if in.Offset != 0 && !in.Enabled {
		errs.Add(ErrEarlyBirdOffsetWithoutFlag)
	}
	if in.Offset < 0 || in.Offset > MaxEarlyBirdOffset {
		errs.Add(ErrInvalidEarlyBirdOffset)
	}

	if fee != nil && eb.Fee != nil && fee.Currency() != eb.Fee.Currency() {
		errs.Add(ErrFeeCurrencyMismatch)
	}

	return fee, eb
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)

	switch n := utf8.RuneCountInString(reason); {
	case n == 0:
		return "", ErrReasonRequired
	case n > maxReasonLen:
		return "", ErrReasonTooLong
	}

	return reason, nil
}

// isPhoneNumber accepts an optional leading +, digits and common separators,
// with 6 to 15 digits in total.
func isPhoneNumber(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 6 && digits <= 15
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

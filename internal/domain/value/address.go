package value

import (
	"strings"
	"unicode/utf8"

	"github.com/geocoder89/yardsale/internal/apperr"
)

const (
	maxStreetLen     = 200
	maxCityLen       = 100
	maxPostalCodeLen = 20
	maxCountryLen    = 100
	maxStateLen      = 100
)

var (
	ErrStreetRequired     = apperr.Validation("Address.StreetRequired", "street is required")
	ErrStreetTooLong      = apperr.Validation("Address.StreetTooLong", "street cannot exceed 200 characters")
	ErrCityRequired       = apperr.Validation("Address.CityRequired", "city is required")
	ErrCityTooLong        = apperr.Validation("Address.CityTooLong", "city cannot exceed 100 characters")
	ErrPostalCodeRequired = apperr.Validation("Address.PostalCodeRequired", "postal code is required")
	ErrPostalCodeTooLong  = apperr.Validation("Address.PostalCodeTooLong", "postal code cannot exceed 20 characters")
	ErrCountryRequired    = apperr.Validation("Address.CountryRequired", "country is required")
	ErrCountryTooLong     = apperr.Validation("Address.CountryTooLong", "country cannot exceed 100 characters")
	ErrStateTooLong       = apperr.Validation("Address.StateTooLong", "state cannot exceed 100 characters")
)

type Address struct {
	street     string
	city       string
	postalCode string
	country    string
	state      string
}

// NewAddress trims every part; state is optional.
func NewAddress(street, city, postalCode, country, state string) (Address, error) {
	a := Address{
		street:     strings.TrimSpace(street),
		city:       strings.TrimSpace(city),
		postalCode: strings.TrimSpace(postalCode),
		country:    strings.TrimSpace(country),
		state:      strings.TrimSpace(state),
	}

	var errs apperr.List
	checkPart(&errs, a.street, maxStreetLen, ErrStreetRequired, ErrStreetTooLong)
	checkPart(&errs, a.city, maxCityLen, ErrCityRequired, ErrCityTooLong)
	checkPart(&errs, a.postalCode, maxPostalCodeLen, ErrPostalCodeRequired, ErrPostalCodeTooLong)
	checkPart(&errs, a.country, maxCountryLen, ErrCountryRequired, ErrCountryTooLong)
	if utf8.RuneCountInString(a.state) > maxStateLen {
		errs.Add(ErrStateTooLong)
	}

	if err := errs.Err(); err != nil {
		return Address{}, err
	}

	return a, nil
}

// RestoreAddress rebuilds a stored address without validation.
func RestoreAddress(street, city, postalCode, country, state string) Address {
	return Address{street: street, city: city, postalCode: postalCode, country: country, state: state}
}

func (a Address) Street() string     { return a.street }
func (a Address) City() string       { return a.city }
func (a Address) PostalCode() string { return a.postalCode }
func (a Address) Country() string    { return a.country }
func (a Address) State() string      { return a.state }

// IsComplete reports whether every required part is present.
func (a Address) IsComplete() bool {
	return a.street != "" && a.city != "" && a.postalCode != "" && a.country != ""
}

func (a Address) String() string {
	parts := []string{a.street, a.city}
	if a.state != "" {
		parts = append(parts, a.state)
	}
	parts = append(parts, a.postalCode, a.country)
	return strings.Join(parts, ", ")
}

func checkPart(errs *apperr.List, v string, max int, required, tooLong *apperr.Error) {
	if v == "" {
		errs.Add(required)
		return
	}
	if utf8.RuneCountInString(v) > max {
		errs.Add(tooLong)
	}
}

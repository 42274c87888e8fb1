package address

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// postcodePattern matches Polish postal codes: two digits, hyphen, three digits.
var postcodePattern = regexp.MustCompile(`^\d{2}-\d{3}$`)

// ErrInvalidPostcode is returned when a postcode does not match dd-ddd.
// It is reported before any geocoding lookup is attempted.
var ErrInvalidPostcode = errors.New("invalid postcode format (expected dd-ddd)")

// Address is a structured postal address as entered by the sender.
type Address struct {
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	City         string `json:"city"`
	Postcode     string `json:"postcode"`
}

// Validate checks that the address is complete enough to geocode and that
// the postcode is well-formed.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" {
		return errors.New("street required")
	}
	if strings.TrimSpace(a.City) == "" {
		return errors.New("city required")
	}
	if !postcodePattern.MatchString(a.Postcode) {
		return ErrInvalidPostcode
	}
	return nil
}

// Format renders the address as the free-text geocoding query
// "street number, city, postcode".
func (a Address) Format() string {
	return Format(a.Street, a.StreetNumber, a.City, a.Postcode)
}

// Format builds the free-text query string used for geocoding.
func Format(street, number, city, postcode string) string {
	return fmt.Sprintf("%s %s, %s, %s", street, number, city, postcode)
}

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidBirthDate is returned for input that is not a real day/month/year date.
var ErrInvalidBirthDate = errors.New("birth date must be a valid DD/MM/YYYY date")

const (
	localDateLayout = "2/1/2006"
	isoDateLayout   = "2006-01-02"
)

// ParseBirthDate reads a day/month/year date.
func ParseBirthDate(dmy string) (time.Time, error) {
	t, err := time.Parse(localDateLayout, strings.TrimSpace(dmy))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBirthDate, dmy)
	}
	return t, nil
}

// ConvertBirthDate turns "31/01/2000" into "2000-01-31". Input is always
// day/month/year.
func ConvertBirthDate(dmy string) (string, error) {
	t, err := ParseBirthDate(dmy)
	if err != nil {
		return "", err
	}
	return t.Format(isoDateLayout), nil
}

// IsAdultOn reports whether someone born on birth is at least 18 on day now.
func IsAdultOn(birth, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !birth.After(today.AddDate(-18, 0, 0))
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertBirthDate(t *testing.T) {
	got, err := ConvertBirthDate("31/01/2000")
	require.NoError(t, err)
	assert.Equal(t, "2000-01-31", got)

	got, err = ConvertBirthDate("1/2/1999")
	require.NoError(t, err)
	assert.Equal(t, "1999-02-01", got)
}

func TestConvertBirthDateRejectsImpossibleDates(t *testing.T) {
	for _, in := range []string{"31/02/2000", "00/01/2000", "12/13/2000", "", "2000-01-31", "31-01-2000"} {
		_, err := ConvertBirthDate(in)
		assert.ErrorIs(t, err, ErrInvalidBirthDate, in)
	}
}

func TestIsAdultOn(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	exactly := time.Date(2008, 10, 14, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsAdultOn(exactly, now))
	assert.False(t, IsAdultOn(exactly.AddDate(0, 0, 1), now))
	assert.True(t, IsAdultOn(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), now))
}

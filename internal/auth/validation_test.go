package auth

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationInputValidate(t *testing.T) {
	require.NoError(t, validRegistration().Validate(fixedNow))

	cases := map[string]func(*RegistrationInput){
		"name":       func(in *RegistrationInput) { in.Name = "" },
		"email":      func(in *RegistrationInput) { in.Email = "ann" },
		"password":   func(in *RegistrationInput) { in.Password = "" },
		"birthDate":  func(in *RegistrationInput) { in.BirthDate = "30/02/2000" },
		"nationalId": func(in *RegistrationInput) { in.NationalID = "1234" },
		"role":       func(in *RegistrationInput) { in.Role = "admin" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validRegistration()
			mutate(&in)

			err := in.Validate(fixedNow)
			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			assert.Len(t, verrs, 1)
			assert.Contains(t, verrs, field)
		})
	}
}

func TestNormalizeNationalID(t *testing.T) {
	assert.Equal(t, "12345678901", NormalizeNationalID("123.456.789-01"))
	assert.Equal(t, "", NormalizeNationalID("abc"))
}

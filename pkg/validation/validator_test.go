package validation_test

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-library/pkg/validation"
)

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpwd"`
}

func Test_StrongPassword(t *testing.T) {
	validation.Init()

	testCases := []struct {
		password string
		valid    bool
	}{
		{"Passw0rd", true},
		{"password1", false},
		{"PASSWORD1", false},
		{"Password", false},
		{"Pa1", false},
		{"Aa1" + strings.Repeat("a", 62), false},
	}

	for _, tc := range testCases {
		t.Run(tc.password, func(t *testing.T) {
			// arrange
			in := registerInput{Name: "Maty", Email: "maty@libra.dev", Password: tc.password}

			// act
			err := binding.Validator.ValidateStruct(in)

			// assert
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func Test_ToDetails_UsesJSONNames(t *testing.T) {
	// arrange
	validation.Init()
	in := registerInput{Email: "nope", Password: "weak"}

	// act
	err := binding.Validator.ValidateStruct(in)
	details := validation.ToDetails(err)

	// assert
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Contains(t, details["password"], "8-64 characters")
}

func Test_ToDetails_Nil(t *testing.T) {
	assert.Nil(t, validation.ToDetails(nil))
}

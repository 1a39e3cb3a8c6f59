package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharebnb/internal/model"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve), "expected *model.ValidationError, got %T", err)
	names := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		names[i] = f.Field
	}
	return names
}

func TestStruct_SignupRequest(t *testing.T) {
	v := New()

	err := v.Struct(&model.SignupRequest{
		Username:  "ana",
		FirstName: "Ana",
		LastName:  "Lopez",
		Email:     "a@x.com",
		Password:  "secret1",
	})
	assert.NoError(t, err)

	err = v.Struct(&model.SignupRequest{
		Username: "",
		Email:    "not-an-email",
		Password: "short",
	})
	assert.ElementsMatch(t,
		[]string{"username", "first_name", "last_name", "email", "password"},
		fieldNames(t, err))
}

func TestStruct_UsesJSONNamesAndMessages(t *testing.T) {
	v := New()

	err := v.Struct(&model.SignupRequest{
		Username:  "ana",
		FirstName: "Ana",
		LastName:  "Lopez",
		Email:     "a@x.com",
		Password:  "abc",
	})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "password", ve.Fields[0].Field)
	assert.Equal(t, "Field must be at least 6 characters long.", ve.Fields[0].Message)
}

func TestStruct_PointerFieldsAcceptZero(t *testing.T) {
	v := New()
	zero := 0
	lat, lng := 0.0, 0.0

	err := v.Struct(&model.CreateListingRequest{
		Title:     "Loft",
		Latitude:  &lat,
		Longitude: &lng,
		Beds:      &zero,
		Rooms:     &zero,
		Bathrooms: &zero,
	})
	assert.NoError(t, err, "zero-valued pointers are present values")

	err = v.Struct(&model.CreateListingRequest{Title: "Loft"})
	assert.ElementsMatch(t,
		[]string{"latitude", "longitude", "beds", "rooms", "bathrooms"},
		fieldNames(t, err))
}

func TestStruct_OptionalFields(t *testing.T) {
	v := New()
	bad := "nope"
	good := "b@x.com"

	assert.NoError(t, v.Struct(&model.UpdateUserRequest{Password: "secret1"}))
	assert.NoError(t, v.Struct(&model.UpdateUserRequest{Email: &good, Password: "secret1"}))
	assert.Equal(t, []string{"email"},
		fieldNames(t, v.Struct(&model.UpdateUserRequest{Email: &bad, Password: "secret1"})))
}

func TestStruct_LoginOnlyRequiresPresence(t *testing.T) {
	v := New()

	// A short wrong password must reach the credential check.
	assert.NoError(t, v.Struct(&model.LoginRequest{Username: "ana", Password: "wrong"}))
	assert.ElementsMatch(t, []string{"username", "password"},
		fieldNames(t, v.Struct(&model.LoginRequest{})))
}

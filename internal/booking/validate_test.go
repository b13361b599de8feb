package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
)

func completeDraft() Draft {
	return Draft{
		Province:      "Gauteng",
		ClinicID:      "gt-1",
		Date:          "2025-12-01",
		SelectedSlot:  "09:00 - 09:30",
		FullName:      "Thandi Mokoena",
		IDType:        "sa_id",
		IDNumber:      "9001015009087",
		Email:         "thandi@example.com",
		Phone:         "0821234567",
		ServiceReason: "general_consultation",
	}
}

func patient() *identity.Identity {
	return &identity.Identity{ID: "u-42", Name: "Thandi", Role: identity.RolePatient}
}

func TestValidate_CompleteDraftPasses(t *testing.T) {
	assert.Empty(t, Validate(completeDraft(), patient(), DefaultOptions()))
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	errs := Validate(Draft{Email: "nope", Phone: "12345"}, nil, DefaultOptions())

	for _, field := range []string{
		FieldProvince, FieldClinic, FieldFullName, FieldIDNumber, FieldEmail,
		FieldPhone, FieldServiceReason, FieldDate, FieldSlot,
	} {
		assert.Contains(t, errs, field)
	}
	msg, ok := errs.Auth()
	require.True(t, ok)
	assert.Equal(t, MsgUnauthenticated, msg)
	assert.NotContains(t, errs.Fields(), AuthKey)
	assert.NotContains(t, errs, FieldProvider)
	assert.NotContains(t, errs, FieldRoom)
}

func TestValidate_Phone(t *testing.T) {
	cases := map[string]bool{
		"0821234567":  true,
		" 0821234567": true,
		"082123456":   false,
		"08212345678": false,
		"082-123-456": false,
		"082123456a":  false,
		"":            false,
	}
	for phone, ok := range cases {
		d := completeDraft()
		d.Phone = phone
		_, bad := Validate(d, patient(), DefaultOptions())[FieldPhone]
		assert.Equal(t, !ok, bad, "phone %q", phone)
	}
}

func TestValidate_EmailNeedsAt(t *testing.T) {
	d := completeDraft()
	d.Email = "thandi.example.com"
	assert.Contains(t, Validate(d, patient(), DefaultOptions()), FieldEmail)

	d.Email = "a@b"
	assert.Empty(t, Validate(d, patient(), DefaultOptions()))
}

func TestValidate_WhitespaceIsBlank(t *testing.T) {
	d := completeDraft()
	d.FullName = "   "
	assert.Contains(t, Validate(d, patient(), DefaultOptions()), FieldFullName)
}

func TestValidate_Options(t *testing.T) {
	d := completeDraft()
	d.Province = ""
	assert.Empty(t, Validate(d, patient(), Options{}))

	errs := Validate(d, patient(), Options{RequireProvider: true, RequireRoom: true})
	assert.Contains(t, errs, FieldProvider)
	assert.Contains(t, errs, FieldRoom)

	d.ProviderID, d.RoomID = "p-1", "r-1"
	assert.Empty(t, Validate(d, patient(), Options{RequireProvider: true, RequireRoom: true}))
}

func TestValidate_IdentityWithoutIDIsUnauthenticated(t *testing.T) {
	_, ok := Validate(completeDraft(), &identity.Identity{Name: "ghost"}, DefaultOptions()).Auth()
	assert.True(t, ok)
}

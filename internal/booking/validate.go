package booking

import (
	"regexp"
	"strings"

	"github.com/wolfman30/clinic-scheduler/internal/identity"
)

// Field names used as keys in Errors.
const (
	FieldProvince      = "province"
	FieldClinic        = "clinic_id"
	FieldProvider      = "provider_id"
	FieldRoom          = "room_id"
	FieldFullName      = "full_name"
	FieldIDNumber      = "id_number"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldServiceReason = "service_reason"
	FieldDate          = "date"
	FieldSlot          = "selected_slot"

	// AuthKey holds the authentication error. It is not a form field.
	AuthKey = "_auth"
)

// MsgUnauthenticated is shown when nobody is logged in.
const MsgUnauthenticated = "You must be logged in to book an appointment."

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Options switch the optional parts of the form on or off.
type Options struct {
	// ProvinceGrouping shows the province picker and makes it required.
	ProvinceGrouping bool
	RequireProvider  bool
	RequireRoom      bool
}

// DefaultOptions groups clinics by province with provider and room optional.
func DefaultOptions() Options {
	return Options{ProvinceGrouping: true}
}

// Errors maps a field name to its message. Empty means submittable.
type Errors map[string]string

// Auth returns the authentication error, if any.
func (e Errors) Auth() (string, bool) {
	msg, ok := e[AuthKey]
	return msg, ok
}

// Fields returns only the form-field errors.
func (e Errors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		if k != AuthKey {
			out[k] = v
		}
	}
	return out
}

// Validate checks every rule and returns all violations at once.
func Validate(d Draft, who *identity.Identity, opts Options) Errors {
	errs := Errors{}

	if opts.ProvinceGrouping && blank(d.Province) {
		errs[FieldProvince] = "Please select a province."
	}
	if blank(d.ClinicID) {
		errs[FieldClinic] = "Please select a clinic."
	}
	if opts.RequireProvider && blank(d.ProviderID) {
		errs[FieldProvider] = "Please select a provider."
	}
	if opts.RequireRoom && blank(d.RoomID) {
		errs[FieldRoom] = "Please select a room."
	}
	if blank(d.FullName) {
		errs[FieldFullName] = "Full name is required."
	}
	if blank(d.IDNumber) {
		errs[FieldIDNumber] = "ID number is required."
	}
	if !strings.Contains(d.Email, "@") {
		errs[FieldEmail] = "Enter a valid email address."
	}
	if !phonePattern.MatchString(strings.TrimSpace(d.Phone)) {
		errs[FieldPhone] = "Phone number must be exactly 10 digits."
	}
	if blank(d.ServiceReason) {
		errs[FieldServiceReason] = "Please select a reason for your visit."
	}
	if blank(d.Date) {
		errs[FieldDate] = "Please select a date."
	}
	if blank(d.SelectedSlot) {
		errs[FieldSlot] = "Please select a time slot."
	}
	if !who.Authenticated() {
		errs[AuthKey] = MsgUnauthenticated
	}

	return errs
}

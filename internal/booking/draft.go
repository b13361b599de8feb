// Package booking implements the appointment booking workflow: the draft a
// patient edits, its validation, and submission to the scheduling API.
package booking

import "strings"

// Draft is the in-progress booking form.
type Draft struct {
	Province     string `json:"province"`
	ClinicID     string `json:"clinic_id"`
	ProviderID   string `json:"provider_id"`
	RoomID       string `json:"room_id"`
	Date         string `json:"date"`
	SelectedSlot string `json:"selected_slot"`

	FullName string `json:"full_name"`
	IDType   string `json:"id_type"`
	IDNumber string `json:"id_number"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`

	ServiceReason string `json:"service_reason"`
	Notes         string `json:"notes"`
}

// DetailsPatch updates the free-form parts of a Draft. Nil fields are left
// unchanged. Clinic, date and slot have dedicated operations because changing
// them invalidates the slot list.
type DetailsPatch struct {
	ProviderID    *string `json:"provider_id,omitempty"`
	RoomID        *string `json:"room_id,omitempty"`
	FullName      *string `json:"full_name,omitempty"`
	IDType        *string `json:"id_type,omitempty"`
	IDNumber      *string `json:"id_number,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	ServiceReason *string `json:"service_reason,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DetailsPatch) Empty() bool {
	return p == DetailsPatch{}
}

// Apply copies the set fields of p into d.
func (p DetailsPatch) Apply(d *Draft) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.ProviderID, p.ProviderID)
	set(&d.RoomID, p.RoomID)
	set(&d.FullName, p.FullName)
	set(&d.IDType, p.IDType)
	set(&d.IDNumber, p.IDNumber)
	set(&d.Email, p.Email)
	set(&d.Phone, p.Phone)
	set(&d.ServiceReason, p.ServiceReason)
	set(&d.Notes, p.Notes)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
)

var slotPattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})\s*$`)

// ParseSlot turns "HH:MM - HH:MM" on date into "dateTHH:MM" bounds. Opaque
// labels such as "Walk-in" yield nil bounds rather than a guess.
func ParseSlot(date, slot string) (start, end *string) {
	date = strings.TrimSpace(date)
	m := slotPattern.FindStringSubmatch(slot)
	if m == nil || date == "" {
		return nil, nil
	}
	s := clockOn(date, m[1], m[2])
	e := clockOn(date, m[3], m[4])
	return &s, &e
}

func clockOn(date, hh, mm string) string {
	h, _ := strconv.Atoi(hh)
	return fmt.Sprintf("%sT%02d:%s", date, h, mm)
}

// BuildPayload assembles the appointment request. Optional references that
// are unset go out as null so the API always sees the same keys.
func BuildPayload(d Draft, who *identity.Identity) schedulerapi.AppointmentRequest {
	start, end := ParseSlot(d.Date, d.SelectedSlot)
	var patientID *string
	if who.Authenticated() {
		patientID = optional(who.ID)
	}
	return schedulerapi.AppointmentRequest{
		ClinicID:      optional(d.ClinicID),
		RoomID:        optional(d.RoomID),
		PatientID:     patientID,
		ProviderID:    optional(d.ProviderID),
		StartTime:     start,
		EndTime:       end,
		FullName:      strings.TrimSpace(d.FullName),
		IDType:        strings.TrimSpace(d.IDType),
		IDNumber:      strings.TrimSpace(d.IDNumber),
		Email:         strings.TrimSpace(d.Email),
		Phone:         strings.TrimSpace(d.Phone),
		ServiceReason: strings.TrimSpace(d.ServiceReason),
		Notes:         d.Notes,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Package schedulerapi is a REST client for the clinic scheduling API that
// owns clinics, availability, appointments and user accounts.
package schedulerapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Clinic is a clinic as returned by GET /clinics. Older deployments send
// "_id" and "address" instead of "id" and "location"; both are accepted.
type Clinic struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Province string   `json:"province,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

func (c *Clinic) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		MongoID  json.RawMessage `json:"_id"`
		Name     string          `json:"name"`
		Location string          `json:"location"`
		Address  string          `json:"address"`
		Province string          `json:"province"`
		Phone    string          `json:"phone"`
		Lat      *float64        `json:"lat"`
		Lng      *float64        `json:"lng"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := rawID(raw.ID)
	if id == "" {
		id = rawID(raw.MongoID)
	}
	location := raw.Location
	if location == "" {
		location = raw.Address
	}
	*c = Clinic{
		ID:       id,
		Name:     raw.Name,
		Location: location,
		Province: raw.Province,
		Phone:    raw.Phone,
		Lat:      raw.Lat,
		Lng:      raw.Lng,
	}
	return nil
}

// rawID accepts string or numeric identifiers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

// Provider is a clinician that can be attached to an appointment.
type Provider struct {
	ID        string `json:"id"`
	ClinicID  string `json:"clinic_id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Room is a consultation room within a clinic.
type Room struct {
	ID       string `json:"id"`
	ClinicID string `json:"clinic_id"`
	Name     string `json:"name"`
	RoomType string `json:"room_type,omitempty"`
}

// AppointmentRequest is the POST /appointments body. Every key is always
// sent; unset optional values are encoded as null.
type AppointmentRequest struct {
	ClinicID      *string `json:"clinic_id"`
	RoomID        *string `json:"room_id"`
	PatientID     *string `json:"patient_id"`
	ProviderID    *string `json:"provider_id"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	FullName      string  `json:"full_name"`
	IDType        string  `json:"id_type"`
	IDNumber      string  `json:"id_number"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	ServiceReason string  `json:"service_reason"`
	Notes         string  `json:"notes"`
}

// Confirmation is the API's answer to a successful booking. The body is kept
// verbatim; ID and Status are filled when the API includes them.
type Confirmation struct {
	ID     string          `json:"-"`
	Status string          `json:"-"`
	Raw    json.RawMessage `json:"-"`
}

func (c *Confirmation) UnmarshalJSON(data []byte) error {
	c.Raw = append(json.RawMessage(nil), data...)
	var wire struct {
		ApptID json.RawMessage `json:"appt_id"`
		ID     json.RawMessage `json:"id"`
		Status string          `json:"status"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		// Non-object confirmations are legal; keep the raw body only.
		return nil
	}
	c.ID = rawID(wire.ApptID)
	if c.ID == "" {
		c.ID = rawID(wire.ID)
	}
	c.Status = wire.Status
	return nil
}

// Appointment is a stored appointment as listed by GET /appointments.
type Appointment struct {
	ID         string `json:"appt_id"`
	ClinicID   string `json:"clinic_id"`
	RoomID     string `json:"room_id"`
	PatientID  string `json:"patient_id"`
	ProviderID string `json:"provider_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
}

// AppointmentStatus values accepted by PUT /appointments/{id}/status.
type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no_show"
)

// ParseAppointmentStatus validates a user-supplied status.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusBooked, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return st, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// AppointmentFilter narrows GET /appointments.
type AppointmentFilter struct {
	ProviderID string
	PatientID  string
	Date       string
}

// TokenResponse is returned by POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	TokenType   string `json:"token_type"`
}

// BearerToken returns whichever token field the server populated.
func (t TokenResponse) BearerToken() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.Token
}

// RegisterRequest is the POST /auth/register body. An empty Role lets the
// server apply its default (patient).
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Registration is the created account. Deployments that log the user in on
// registration also return a token.
type Registration struct {
	Profile
	AccessToken string `json:"access_token,omitempty"`
	Token       string `json:"token,omitempty"`
}

// BearerToken returns the issued token, or "" when the server issued none.
func (r Registration) BearerToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// Profile is the authenticated user's profile (GET/PUT /auth/profile).
type Profile struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	Phone            string `json:"phone,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name             *string `json:"name,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	Address          *string `json:"address,omitempty"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
}

func (c Confirmation) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("null"), nil
	}
	return c.Raw, nil
}

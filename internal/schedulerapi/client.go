package schedulerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 15 * time.Second
)

// TokenSource returns the bearer token to send, or "" for anonymous calls.
type TokenSource func(ctx context.Context) string

// StaticToken is a TokenSource that always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) string { return token }
}

// Client wraps the scheduling API's REST endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      TokenSource
	tracer     trace.Tracer
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource attaches a bearer token to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// NewClient constructs a scheduling API client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tracer:     otel.Tracer("clinicscheduler.internal.schedulerapi"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListClinics returns the clinic directory.
func (c *Client) ListClinics(ctx context.Context) ([]Clinic, error) {
	var clinics []Clinic
	if err := c.doJSON(ctx, http.MethodGet, "/clinics", nil, &clinics); err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	return clinics, nil
}

// GetAvailability returns the slot labels for a clinic on date (YYYY-MM-DD).
func (c *Client) GetAvailability(ctx context.Context, clinicID, date string) ([]string, error) {
	q := url.Values{}
	q.Set("date", date)
	path := fmt.Sprintf("/clinics/%s/availability?%s", url.PathEscape(clinicID), q.Encode())

	var wrapped struct {
		Slots []string `json:"slots"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapped); err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return wrapped.Slots, nil
}

// CreateAppointment books an appointment.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*Confirmation, error) {
	var conf Confirmation
	if err := c.doJSON(ctx, http.MethodPost, "/appointments", req, &conf); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &conf, nil
}

// ListAppointments lists appointments, optionally filtered.
func (c *Client) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error) {
	q := url.Values{}
	if filter.ProviderID != "" {
		q.Set("doctorId", filter.ProviderID)
	}
	if filter.PatientID != "" {
		q.Set("patientId", filter.PatientID)
	}
	if filter.Date != "" {
		q.Set("date", filter.Date)
	}
	path := "/appointments/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var appts []Appointment
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &appts); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// ListProviderAppointments lists the appointments assigned to one provider.
func (c *Client) ListProviderAppointments(ctx context.Context, providerID string) ([]Appointment, error) {
	path := fmt.Sprintf("/appointments/doctor/%s", url.PathEscape(providerID))
	var appts []Appointment
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &appts); err != nil {
		return nil, fmt.Errorf("list provider appointments: %w", err)
	}
	return appts, nil
}

// UpdateAppointmentStatus moves an appointment to status.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, apptID string, status AppointmentStatus) (*Appointment, error) {
	q := url.Values{}
	q.Set("status", string(status))
	path := fmt.Sprintf("/appointments/%s/status?%s", url.PathEscape(apptID), q.Encode())

	var appt Appointment
	if err := c.doJSON(ctx, http.MethodPut, path, nil, &appt); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return &appt, nil
}

// ListProviders returns every provider.
func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	var providers []Provider
	if err := c.doJSON(ctx, http.MethodGet, "/providers/", nil, &providers); err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

// ListRooms returns every room.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.doJSON(ctx, http.MethodGet, "/rooms/", nil, &rooms); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var tok TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &tok); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if tok.BearerToken() == "" {
		return nil, fmt.Errorf("login: response carried no token")
	}
	return &tok, nil
}

// Register creates an account. A duplicate email comes back as a 400
// APIError whose Detail explains it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	var reg Registration
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", req, &reg); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &reg, nil
}

// GetProfile returns the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, &p); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile applies update and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodPut, "/auth/profile", update, &p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &p, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "schedulerapi "+method)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http request failed")
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		c.logger.Warn("scheduler API non-2xx response", "status", resp.StatusCode, "method", method, "path", path, "body", apiErr.Body)
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

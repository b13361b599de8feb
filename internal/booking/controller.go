package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Submission messages.
const (
	MsgSuccess        = "Appointment booked successfully!"
	MsgFailed         = "Failed to book appointment."
	MsgIncompleteForm = "Please complete the highlighted fields."
)

// ErrSubmissionInFlight is returned when a submit arrives while another one
// is still waiting on the API.
var ErrSubmissionInFlight = errors.New("booking: submission already in flight")

// State is the submission lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// ErrorKind classifies a failed submission.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindValidation      ErrorKind = "validation"
	KindAPI             ErrorKind = "api"
)

// SubmitError describes why a submission failed.
type SubmitError struct {
	Kind    ErrorKind
	Message string
	// Fields holds per-field messages from local validation or from the API.
	Fields map[string]string
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booking %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("booking %s: %s", e.Kind, e.Message)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Submitter creates appointments.
type Submitter interface {
	CreateAppointment(ctx context.Context, req schedulerapi.AppointmentRequest) (*schedulerapi.Confirmation, error)
}

// SubmissionRecorder observes submission outcomes.
type SubmissionRecorder interface {
	ObserveSubmission(outcome string, seconds float64)
}

// Status is a point-in-time view of the controller.
type Status struct {
	State        State                      `json:"state"`
	Message      string                     `json:"message,omitempty"`
	Errors       map[string]string          `json:"errors,omitempty"`
	Confirmation *schedulerapi.Confirmation `json:"confirmation,omitempty"`
}

// Controller runs validation and submission with at most one request in
// flight.
type Controller struct {
	api     Submitter
	opts    Options
	metrics SubmissionRecorder
	logger  *logging.Logger

	inFlight atomic.Bool

	mu           sync.Mutex
	state        State
	message      string
	errors       Errors
	confirmation *schedulerapi.Confirmation
}

// NewController creates an idle controller.
func NewController(api Submitter, opts Options, metrics SubmissionRecorder, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{api: api, opts: opts, metrics: metrics, logger: logger, state: StateIdle}
}

// Submit validates d for who and, if it passes, books it. A second call while
// one is outstanding returns ErrSubmissionInFlight and changes nothing.
func (c *Controller) Submit(ctx context.Context, d Draft, who *identity.Identity) (*schedulerapi.Confirmation, error) {
	if !c.begin() {
		return nil, ErrSubmissionInFlight
	}
	return c.run(ctx, d, who)
}

// begin claims the single submission slot. A successful begin must be
// followed by run, which releases it.
func (c *Controller) begin() bool {
	return c.inFlight.CompareAndSwap(false, true)
}

func (c *Controller) run(ctx context.Context, d Draft, who *identity.Identity) (*schedulerapi.Confirmation, error) {
	defer c.inFlight.Store(false)

	started := time.Now()
	c.transition(StateValidating, "", nil, nil)

	errs := Validate(d, who, c.opts)
	if msg, ok := errs.Auth(); ok {
		c.transition(StateFailed, msg, errs, nil)
		c.observe("unauthenticated", started)
		return nil, &SubmitError{Kind: KindUnauthenticated, Message: msg, Fields: errs.Fields()}
	}
	if len(errs) > 0 {
		c.transition(StateFailed, MsgIncompleteForm, errs, nil)
		c.observe("invalid", started)
		return nil, &SubmitError{Kind: KindValidation, Message: MsgIncompleteForm, Fields: errs.Fields()}
	}

	if c.api == nil {
		c.transition(StateFailed, MsgFailed, nil, nil)
		c.observe("error", started)
		return nil, &SubmitError{Kind: KindAPI, Message: MsgFailed, Err: errors.New("no scheduling api configured")}
	}

	payload := BuildPayload(d, who)
	c.transition(StateSubmitting, "", nil, nil)

	conf, err := c.api.CreateAppointment(ctx, payload)
	if err != nil {
		msg := schedulerapi.DetailOf(err)
		if msg == "" {
			msg = MsgFailed
		}
		var fields map[string]string
		var apiErr *schedulerapi.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			fields = apiErr.Fields
		}
		c.transition(StateFailed, msg, Errors(fields), nil)
		c.observe("error", started)
		c.logger.Warn("appointment submission failed", "clinic_id", d.ClinicID, "date", d.Date, "error", err)
		return nil, &SubmitError{Kind: KindAPI, Message: msg, Fields: fields, Err: err}
	}

	c.transition(StateSuccess, MsgSuccess, nil, conf)
	c.observe("success", started)
	c.logger.Info("appointment booked", "clinic_id", d.ClinicID, "date", d.Date, "slot", d.SelectedSlot)
	return conf, nil
}

// Submitting reports whether a request is outstanding.
func (c *Controller) Submitting() bool {
	return c.inFlight.Load()
}

// Touch records a user edit. A finished submission returns to idle and its
// message is dropped.
func (c *Controller) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSuccess || c.state == StateFailed {
		c.state = StateIdle
		c.message = ""
		c.errors = nil
		c.confirmation = nil
	}
}

// Reset returns to idle unless a submission is in flight.
func (c *Controller) Reset() error {
	if !c.begin() {
		return ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)
	c.transition(StateIdle, "", nil, nil)
	return nil
}

// Status returns the current state and message.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state, Message: c.message, Confirmation: c.confirmation}
	if len(c.errors) > 0 {
		st.Errors = make(map[string]string, len(c.errors))
		for k, v := range c.errors {
			st.Errors[k] = v
		}
	}
	return st
}

func (c *Controller) transition(state State, message string, errs Errors, conf *schedulerapi.Confirmation) {
	c.mu.Lock()
	c.state = state
	c.message = message
	c.errors = errs
	c.confirmation = conf
	c.mu.Unlock()
}

func (c *Controller) observe(outcome string, started time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveSubmission(outcome, time.Since(started).Seconds())
	}
}

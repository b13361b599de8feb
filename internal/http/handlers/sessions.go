package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-scheduler/internal/booking"
	"github.com/wolfman30/clinic-scheduler/internal/geo"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const maxBodyBytes = 64 << 10

// WorkflowBuilder assembles a workflow whose API calls authenticate with
// tokens.
type WorkflowBuilder func(tokens schedulerapi.TokenSource, who *identity.Identity) *booking.Workflow

// SessionsHandler exposes booking workflows over HTTP, one per session.
type SessionsHandler struct {
	registry *Registry
	build    WorkflowBuilder
	secret   string
	logger   *logging.Logger
}

// NewSessionsHandler creates the handler. secret verifies bearer tokens when
// set; registry may be nil for an unbounded in-memory registry.
func NewSessionsHandler(build WorkflowBuilder, registry *Registry, secret string, logger *logging.Logger) *SessionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if registry == nil {
		registry = NewRegistry(0)
	}
	return &SessionsHandler{registry: registry, build: build, secret: secret, logger: logger}
}

// Registry exposes the live sessions.
func (h *SessionsHandler) Registry() *Registry { return h.registry }

// Routes mounts the session API.
func (h *SessionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/province", h.SelectProvince)
		r.Put("/clinic", h.SelectClinic)
		r.Put("/date", h.SelectDate)
		r.Put("/slot", h.SelectSlot)
		r.Patch("/draft", h.Edit)
		r.Post("/position", h.Position)
		r.Post("/submit", h.Submit)
		r.Post("/clear", h.Clear)
	})
	return r
}

type createSessionRequest struct {
	Position *geo.Position `json:"position,omitempty"`
}

type sessionResponse struct {
	ID      string           `json:"id"`
	Session booking.Snapshot `json:"session"`
}

// Create opens a session, loads clinics and applies a browser position if one
// was posted.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, _ := httpmiddleware.BearerFromContext(r.Context())
	store := identity.NewMemoryStore(token)
	resolver := identity.NewResolver(store, h.secret, h.logger)
	who := resolver.Resolve(r.Context())

	sess := &Session{
		Workflow: h.build(identity.TokenSource(store), who),
		store:    store,
		resolver: resolver,
		token:    token,
	}
	h.registry.add(sess)

	sess.Workflow.LoadClinics(r.Context())
	if req.Position != nil {
		sess.Workflow.ApplyPosition(r.Context(), *req.Position)
	}

	h.logger.Info("booking session opened", "session_id", sess.ID, "authenticated", who.Authenticated())
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, Session: sess.Workflow.Snapshot()})
}

// Get returns the session state.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeSnapshot(w, http.StatusOK, sess)
}

// Delete closes the session.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.registry.Delete(chi.URLParam(r, "sessionID")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectProvince filters the clinic list.
func (h *SessionsHandler) SelectProvince(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Province string `json:"province"`
	}
	sess, ok := h.sessionWithBody(w, r, &req)
	if !ok {
		return
	}
	if err := sess.Workflow.SelectProvince(r.Context(), req.Province); err != nil {
		h.writeWorkflowError(w, sess, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, sess)
}

// SelectClinic chooses a clinic and refreshes slots.
func (h *SessionsHandler) SelectClinic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClinicID string `json:"clinic_id"`
	}
	sess, ok := h.sessionWithBody(w, r, &req)
	if !ok {
		return
	}
	if err := sess.Workflow.SelectClinic(r.Context(), req.ClinicID); err != nil {
		h.writeWorkflowError(w, sess, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, sess)
}

// SelectDate sets the date and refreshes slots.
func (h *SessionsHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	sess, ok := h.sessionWithBody(w, r, &req)
	if !ok {
		return
	}
	if err := sess.Workflow.SelectDate(r.Context(), req.Date); err != nil {
		h.writeWorkflowError(w, sess, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, sess)
}

// SelectSlot picks a listed slot.
func (h *SessionsHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slot string `json:"slot"`
	}
	sess, ok := h.sessionWithBody(w, r, &req)
	if !ok {
		return
	}
	if err := sess.Workflow.SelectSlot(req.Slot); err != nil {
		h.writeWorkflowError(w, sess, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, sess)
}

// Edit patches the patient and visit fields.
func (h *SessionsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var patch booking.DetailsPatch
	sess, ok := h.sessionWithBody(w, r, &patch)
	if !ok {
		return
	}
	if err := sess.Workflow.Edit(patch); err != nil {
		h.writeWorkflowError(w, sess, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, sess)
}

// Position applies a position reported by the browser.
func (h *SessionsHandler) Position(w http.ResponseWriter, r *http.Request) {
	var pos geo.Position
	sess, ok := h.sessionWithBody(w, r, &pos)
	if !ok {
		return
	}
	sess.Workflow.ApplyPosition(r.Context(), pos)
	h.writeSnapshot(w, http.StatusOK, sess)
}

type submitResponse struct {
	Confirmation *schedulerapi.Confirmation `json:"confirmation"`
	Session      booking.Snapshot           `json:"session"`
}

// Submit books the session's draft.
func (h *SessionsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	conf, err := sess.Workflow.Submit(r.Context())
	if err != nil {
		h.writeWorkflowError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Confirmation: conf, Session: sess.Workflow.Snapshot()})
}

// Clear empties the form.
func (h *SessionsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Workflow.Clear(); err != nil {
		h.writeWorkflowError(w, sess, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, sess)
}

// session resolves the session named in the URL and applies any change of
// bearer token as an identity update.
func (h *SessionsHandler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := h.registry.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	token, _ := httpmiddleware.BearerFromContext(r.Context())
	if who, changed := sess.syncToken(r.Context(), token); changed {
		sess.Workflow.IdentityUpdated(who)
		h.logger.Info("booking session identity updated", "session_id", sess.ID, "authenticated", who.Authenticated())
	}
	return sess, true
}

func (h *SessionsHandler) sessionWithBody(w http.ResponseWriter, r *http.Request, v any) (*Session, bool) {
	sess, ok := h.session(w, r)
	if !ok {
		return nil, false
	}
	if !decodeBody(w, r, v) {
		return nil, false
	}
	return sess, true
}

type errorResponse struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Session *booking.Snapshot `json:"session,omitempty"`
}

func (h *SessionsHandler) writeWorkflowError(w http.ResponseWriter, sess *Session, err error) {
	snap := sess.Workflow.Snapshot()
	resp := errorResponse{Error: err.Error(), Session: &snap}
	status := http.StatusInternalServerError

	var subErr *booking.SubmitError
	switch {
	case errors.Is(err, booking.ErrSubmissionInFlight):
		status = http.StatusConflict
	case errors.Is(err, booking.ErrUnknownClinic), errors.Is(err, booking.ErrUnknownSlot), errors.Is(err, booking.ErrInvalidDate):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &subErr):
		resp.Error = subErr.Message
		resp.Fields = subErr.Fields
		switch subErr.Kind {
		case booking.KindUnauthenticated:
			status = http.StatusUnauthorized
		case booking.KindValidation:
			status = http.StatusUnprocessableEntity
		default:
			status = http.StatusBadGateway
			if schedulerapi.IsStatus(err, http.StatusConflict) {
				status = http.StatusConflict
			}
		}
	default:
		h.logger.Error("booking session request failed", "session_id", sess.ID, "error", err)
	}
	writeJSON(w, status, resp)
}

func (h *SessionsHandler) writeSnapshot(w http.ResponseWriter, status int, sess *Session) {
	writeJSON(w, status, sessionResponse{ID: sess.ID, Session: sess.Workflow.Snapshot()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

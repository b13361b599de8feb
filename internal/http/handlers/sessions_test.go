package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinic-scheduler/internal/booking"
	"github.com/wolfman30/clinic-scheduler/internal/clinics"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/internal/slots"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// fakeScheduler is a minimal scheduling API.
type fakeScheduler struct {
	mu       sync.Mutex
	conflict bool
	auth     string
	booked   map[string]any
}

func (f *fakeScheduler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/clinics":
		_, _ = io.WriteString(w, `[
			{"id":"gt-1","name":"PWF Health","location":"Johannesburg","province":"Gauteng","lat":-26.2041,"lng":28.0473},
			{"_id":7,"name":"Ubuntu Clinic","address":"Durban","province":"KwaZulu-Natal","lat":-29.8587,"lng":31.0218}
		]`)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/availability"):
		if r.URL.Query().Get("date") == "2025-12-01" {
			_, _ = io.WriteString(w, `{"slots":["08:00 - 08:30","09:00 - 09:30"]}`)
			return
		}
		_, _ = io.WriteString(w, `{"slots":[]}`)
	case r.Method == http.MethodPost && r.URL.Path == "/appointments":
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&f.booked)
		if f.conflict {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"detail":"Slot already booked"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"appt_id":"appt-9","status":"booked"}`)
	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	api    *fakeScheduler
	router http.Handler
	h      *SessionsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := &fakeScheduler{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	logger := logging.Discard()
	build := func(tokens schedulerapi.TokenSource, who *identity.Identity) *booking.Workflow {
		client := schedulerapi.NewClient(srv.URL, logger, schedulerapi.WithTokenSource(tokens))
		return booking.NewWorkflow(who, booking.Deps{
			Clinics:   clinics.NewSelector(clinics.NewAPIDirectory(client), nil, logger),
			Slots:     slots.NewResolver(client, true, nil, logger),
			Submitter: client,
			Options:   booking.DefaultOptions(),
			Logger:    logger,
		})
	}
	h := NewSessionsHandler(build, NewRegistry(time.Hour), "", logger)

	r := chi.NewRouter()
	r.Use(httpmiddleware.BearerToken(""))
	r.Mount("/sessions", h.Routes())
	return &testEnv{api: api, router: r, h: h}
}

func patientToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-7",
		"name":    "Thandi Mokoena",
		"role":    "patient",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("unused"))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (e *testEnv) open(t *testing.T, token string, body any) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/sessions", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeSession(t, rec)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "/sessions/"+resp.ID, rec.Header().Get("Location"))
	return resp.ID
}

func TestCreateSessionLoadsClinics(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeSession(t, rec)
	assert.Nil(t, resp.Session.Identity)
	assert.Equal(t, clinics.SourceAPI, resp.Session.ClinicSource)
	require.Len(t, resp.Session.Clinics, 2)
	assert.Equal(t, "7", resp.Session.Clinics[1].ID)
	assert.Equal(t, []string{"Gauteng", "KwaZulu-Natal"}, resp.Session.Provinces)
	assert.Equal(t, 1, env.h.Registry().Len())
}

func TestCreateSessionWithPositionPreselectsNearest(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/sessions", "", map[string]any{
		"position": map[string]float64{"lat": -29.9, "lng": 31.0},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeSession(t, rec)
	assert.Equal(t, "7", resp.Session.Draft.ClinicID)
	assert.Equal(t, "KwaZulu-Natal", resp.Session.Draft.Province)
	assert.Equal(t, "7", resp.Session.NearestClinicID)
}

func fillDraft(t *testing.T, env *testEnv, id, token string) {
	t.Helper()
	base := "/sessions/" + id
	steps := []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, base + "/province", map[string]string{"province": "Gauteng"}},
		{http.MethodPut, base + "/clinic", map[string]string{"clinic_id": "gt-1"}},
		{http.MethodPut, base + "/date", map[string]string{"date": "2025-12-01"}},
		{http.MethodPut, base + "/slot", map[string]string{"slot": "09:00 - 09:30"}},
		{http.MethodPatch, base + "/draft", map[string]string{
			"full_name":      "Thandi Mokoena",
			"id_type":        "sa_id",
			"id_number":      "9001015009087",
			"email":          "thandi@example.com",
			"phone":          "0821234567",
			"service_reason": "general_consultation",
		}},
	}
	for _, step := range steps {
		rec := env.do(t, step.method, step.path, token, step.body)
		require.Equal(t, http.StatusOK, rec.Code, "%s %s: %s", step.method, step.path, rec.Body.String())
	}
}

func TestSubmitBooksAppointment(t *testing.T) {
	env := newTestEnv(t)
	token := patientToken(t)
	id := env.open(t, token, nil)
	fillDraft(t, env, id, token)

	rec := env.do(t, http.MethodPost, "/sessions/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Confirmation)
	assert.Equal(t, "appt-9", resp.Confirmation.ID)
	assert.Equal(t, booking.StateSuccess, resp.Session.Submission.State)
	assert.Equal(t, booking.MsgSuccess, resp.Session.Submission.Message)

	env.api.mu.Lock()
	defer env.api.mu.Unlock()
	assert.Equal(t, "Bearer "+token, env.api.auth)
	assert.Equal(t, "gt-1", env.api.booked["clinic_id"])
	assert.Equal(t, "u-7", env.api.booked["patient_id"])
	assert.Equal(t, "2025-12-01T09:00", env.api.booked["start_time"])
	assert.Nil(t, env.api.booked["room_id"])
}

func TestSubmitWithoutLoginIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	id := env.open(t, "", nil)
	fillDraft(t, env, id, "")

	rec := env.do(t, http.MethodPost, "/sessions/"+id+"/submit", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, booking.MsgUnauthenticated, resp.Error)
	assert.Nil(t, env.api.booked)
}

func TestLoginMidSessionUpdatesIdentity(t *testing.T) {
	env := newTestEnv(t)
	id := env.open(t, "", nil)
	fillDraft(t, env, id, "")

	token := patientToken(t)
	rec := env.do(t, http.MethodGet, "/sessions/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSession(t, rec)
	require.NotNil(t, resp.Session.Identity)
	assert.Equal(t, "u-7", resp.Session.Identity.ID)

	rec = env.do(t, http.MethodPost, "/sessions/"+id+"/submit", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSubmitConflictShowsDetail(t *testing.T) {
	env := newTestEnv(t)
	env.api.conflict = true
	token := patientToken(t)
	id := env.open(t, token, nil)
	fillDraft(t, env, id, token)

	rec := env.do(t, http.MethodPost, "/sessions/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Slot already booked", resp.Error)
	require.NotNil(t, resp.Session)
	assert.Equal(t, booking.StateFailed, resp.Session.Submission.State)
}

func TestSubmitIncompleteDraft(t *testing.T) {
	env := newTestEnv(t)
	token := patientToken(t)
	id := env.open(t, token, nil)

	rec := env.do(t, http.MethodPost, "/sessions/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, booking.FieldClinic)
	assert.Contains(t, resp.Fields, booking.FieldPhone)
	assert.Nil(t, env.api.booked)
}

func TestFallbackSlotsWhenAPIHasNone(t *testing.T) {
	env := newTestEnv(t)
	id := env.open(t, "", nil)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/sessions/"+id+"/clinic", "", map[string]string{"clinic_id": "gt-1"}).Code)

	rec := env.do(t, http.MethodPut, "/sessions/"+id+"/date", "", map[string]string{"date": "2025-12-25"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSession(t, rec)
	assert.Equal(t, slots.StatusUnavailable, resp.Session.Slots.Status)
	assert.True(t, resp.Session.Slots.Fallback)
	assert.Len(t, resp.Session.Slots.Slots, 13)
}

func TestWorkflowErrors(t *testing.T) {
	env := newTestEnv(t)
	id := env.open(t, "", nil)

	rec := env.do(t, http.MethodPut, "/sessions/"+id+"/slot", "", map[string]string{"slot": "09:00 - 09:30"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPut, "/sessions/"+id+"/clinic", "", map[string]string{"clinic_id": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPut, "/sessions/"+id+"/date", "", map[string]string{"date": "tomorrow"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req := httptest.NewRequest(http.MethodPut, "/sessions/"+id+"/date", strings.NewReader("{"))
	bad := httptest.NewRecorder()
	env.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestClearAndDelete(t *testing.T) {
	env := newTestEnv(t)
	id := env.open(t, "", nil)
	fillDraft(t, env, id, "")

	rec := env.do(t, http.MethodPost, "/sessions/"+id+"/clear", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.Draft{}, decodeSession(t, rec).Session.Draft)

	rec = env.do(t, http.MethodDelete, "/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistryExpiresIdleSessions(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	reg := NewRegistry(time.Minute)
	reg.now = func() time.Time { return now }

	sess := &Session{}
	reg.add(sess)
	_, ok := reg.Get(sess.ID)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, reg.Prune())
	_, ok = reg.Get(sess.ID)
	assert.False(t, ok)
}

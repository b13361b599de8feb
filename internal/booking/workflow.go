package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/clinics"
	"github.com/wolfman30/clinic-scheduler/internal/geo"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/internal/slots"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const dateLayout = "2006-01-02"

var (
	ErrUnknownClinic = errors.New("booking: clinic is not in the current list")
	ErrUnknownSlot   = errors.New("booking: slot is not in the current list")
	ErrInvalidDate   = errors.New("booking: date must be YYYY-MM-DD")
)

// Geolocation outcomes reported to the recorder.
const (
	GeoApplied     = "applied"
	GeoKept        = "kept"
	GeoNoMatch     = "no_match"
	GeoDenied      = "denied"
	GeoUnavailable = "unavailable"
)

// Recorder observes workflow events that are not tied to a single component.
type Recorder interface {
	ObserveStaleSlotResponse()
	ObserveGeolocation(result string)
}

// Deps wires a Workflow to its collaborators.
type Deps struct {
	Clinics    *clinics.Selector
	Slots      *slots.Resolver
	Submitter  Submitter
	Locator    geo.Locator
	GeoTimeout time.Duration
	Options    Options
	Metrics    interface {
		Recorder
		SubmissionRecorder
	}
	Logger *logging.Logger
}

// Snapshot is everything a booking form renders.
type Snapshot struct {
	Identity        *identity.Identity `json:"identity"`
	Draft           Draft              `json:"draft"`
	Provinces       []string           `json:"provinces,omitempty"`
	Clinics         []clinics.Clinic   `json:"clinics"`
	ClinicSource    clinics.Source     `json:"clinic_source,omitempty"`
	NearestClinicID string             `json:"nearest_clinic_id,omitempty"`
	Slots           slots.Result       `json:"slots"`
	LoadingSlots    bool               `json:"loading_slots"`
	Submission      Status             `json:"submission"`
}

// Workflow is one patient's booking session. Methods are safe for concurrent
// use; network calls are made without holding the session lock.
type Workflow struct {
	selector   *clinics.Selector
	resolver   *slots.Resolver
	locator    geo.Locator
	geoTimeout time.Duration
	opts       Options
	metrics    Recorder
	logger     *logging.Logger
	controller *Controller
	tracker    slots.Tracker

	mu           sync.Mutex
	who          *identity.Identity
	draft        Draft
	all          []clinics.Clinic
	source       clinics.Source
	candidates   []clinics.Clinic
	nearestID    string
	slotResult   slots.Result
	loadingSlots bool
}

// NewWorkflow starts an empty session for who (nil when logged out).
func NewWorkflow(who *identity.Identity, deps Deps) *Workflow {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if deps.Clinics == nil {
		deps.Clinics = clinics.NewSelector(nil, nil, logger)
	}
	if deps.Slots == nil {
		deps.Slots = slots.NewResolver(nil, true, nil, logger)
	}
	w := &Workflow{
		selector:   deps.Clinics,
		resolver:   deps.Slots,
		locator:    deps.Locator,
		geoTimeout: deps.GeoTimeout,
		opts:       deps.Options,
		logger:     logger,
		who:        who,
		slotResult: slots.Result{Status: slots.StatusSkipped},
	}
	var subRec SubmissionRecorder
	if deps.Metrics != nil {
		w.metrics = deps.Metrics
		subRec = deps.Metrics
	}
	w.controller = NewController(deps.Submitter, deps.Options, subRec, logger)
	return w
}

// LoadClinics fetches the clinic directory. It never fails; the seed list
// stands in when the API cannot.
func (w *Workflow) LoadClinics(ctx context.Context) ([]clinics.Clinic, clinics.Source) {
	list, source := w.selector.Load(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.all = list
	w.source = source
	w.candidates = w.filtered()
	return append([]clinics.Clinic(nil), w.candidates...), source
}

// Geolocate asks the locator for a position and pre-selects the nearest
// clinic. Failures are logged and otherwise ignored.
func (w *Workflow) Geolocate(ctx context.Context) (string, bool) {
	pos, err := geo.BestEffort(ctx, w.locator, w.geoTimeout)
	if err != nil {
		result := GeoUnavailable
		if errors.Is(err, geo.ErrDenied) {
			result = GeoDenied
		}
		w.observeGeo(result)
		w.logger.Debug("geolocation skipped", "reason", err)
		return "", false
	}
	return w.ApplyPosition(ctx, *pos)
}

// ApplyPosition pre-selects the clinic nearest to pos. A clinic the user has
// already chosen is never replaced. It reports the nearest clinic and whether
// it was applied.
func (w *Workflow) ApplyPosition(ctx context.Context, pos geo.Position) (string, bool) {
	w.mu.Lock()
	loaded := len(w.all) > 0
	w.mu.Unlock()
	if !loaded {
		w.LoadClinics(ctx)
	}

	w.mu.Lock()
	nearest, ok := clinics.LocateNearest(w.all, &pos)
	if !ok {
		w.mu.Unlock()
		w.observeGeo(GeoNoMatch)
		return "", false
	}
	w.nearestID = nearest
	if w.draft.ClinicID != "" || w.controller.Submitting() {
		w.mu.Unlock()
		w.observeGeo(GeoKept)
		return nearest, false
	}

	clinic, _ := clinics.Find(w.all, nearest)
	if w.opts.ProvinceGrouping {
		if w.draft.Province == "" {
			w.draft.Province = clinic.Province
			w.candidates = w.filtered()
		} else if _, inProvince := clinics.Find(w.candidates, nearest); !inProvince {
			w.mu.Unlock()
			w.observeGeo(GeoKept)
			return nearest, false
		}
	}
	w.draft.ClinicID = nearest
	ticket, date := w.resetSlotsLocked()
	w.mu.Unlock()

	w.observeGeo(GeoApplied)
	w.logger.Info("nearest clinic pre-selected", "clinic_id", nearest)
	w.fetchSlots(ctx, ticket, nearest, date)
	return nearest, true
}

// SelectProvince narrows the clinic list. The current clinic survives if it
// is in the province; otherwise the nearest clinic is chosen when it is, and
// the selection is cleared when neither is.
func (w *Workflow) SelectProvince(ctx context.Context, province string) error {
	province = strings.TrimSpace(province)

	w.mu.Lock()
	if w.controller.Submitting() {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	w.controller.Touch()
	w.draft.Province = province
	w.candidates = w.filtered()

	next := ""
	if _, ok := clinics.Find(w.candidates, w.draft.ClinicID); ok && w.draft.ClinicID != "" {
		next = w.draft.ClinicID
	} else if _, ok := clinics.Find(w.candidates, w.nearestID); ok && w.nearestID != "" {
		next = w.nearestID
	}
	if next == w.draft.ClinicID {
		w.mu.Unlock()
		return nil
	}
	w.draft.ClinicID = next
	ticket, date := w.resetSlotsLocked()
	w.mu.Unlock()

	w.fetchSlots(ctx, ticket, next, date)
	return nil
}

// SelectClinic chooses a clinic from the current list. An empty id clears
// the selection. With province grouping on, an unset province is taken from
// the clinic.
func (w *Workflow) SelectClinic(ctx context.Context, clinicID string) error {
	clinicID = strings.TrimSpace(clinicID)

	w.mu.Lock()
	if w.controller.Submitting() {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if clinicID != "" {
		clinic, ok := clinics.Find(w.candidates, clinicID)
		if !ok {
			w.mu.Unlock()
			return ErrUnknownClinic
		}
		if w.opts.ProvinceGrouping && w.draft.Province == "" && clinic.Province != "" {
			w.draft.Province = clinic.Province
			w.candidates = w.filtered()
		}
	}
	w.controller.Touch()
	if clinicID == w.draft.ClinicID {
		w.mu.Unlock()
		return nil
	}
	w.draft.ClinicID = clinicID
	ticket, date := w.resetSlotsLocked()
	w.mu.Unlock()

	w.fetchSlots(ctx, ticket, clinicID, date)
	return nil
}

// SelectDate sets the appointment date (YYYY-MM-DD). An empty date clears it.
func (w *Workflow) SelectDate(ctx context.Context, date string) error {
	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return ErrInvalidDate
		}
	}

	w.mu.Lock()
	if w.controller.Submitting() {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	w.controller.Touch()
	if date == w.draft.Date {
		w.mu.Unlock()
		return nil
	}
	w.draft.Date = date
	ticket, _ := w.resetSlotsLocked()
	clinicID := w.draft.ClinicID
	w.mu.Unlock()

	w.fetchSlots(ctx, ticket, clinicID, date)
	return nil
}

// SelectSlot picks one of the listed slots. An empty slot clears it.
func (w *Workflow) SelectSlot(slot string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.controller.Submitting() {
		return ErrSubmissionInFlight
	}
	if slot != "" && !contains(w.slotResult.Slots, slot) {
		return ErrUnknownSlot
	}
	w.controller.Touch()
	w.draft.SelectedSlot = slot
	return nil
}

// Edit updates the patient and visit fields.
func (w *Workflow) Edit(patch DetailsPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.controller.Submitting() {
		return ErrSubmissionInFlight
	}
	w.controller.Touch()
	patch.Apply(&w.draft)
	return nil
}

// Submit books the current draft. Until it returns, every edit is refused
// with ErrSubmissionInFlight, so the retained draft is the one that was sent.
func (w *Workflow) Submit(ctx context.Context) (*schedulerapi.Confirmation, error) {
	w.mu.Lock()
	if !w.controller.begin() {
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	draft := w.draft
	who := w.who
	w.mu.Unlock()

	return w.controller.run(ctx, draft, who)
}

// Clear empties the form. It is refused while a submission is in flight.
func (w *Workflow) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.controller.Reset(); err != nil {
		return err
	}
	w.draft = Draft{}
	w.candidates = w.filtered()
	w.tracker.Invalidate()
	w.slotResult = slots.Result{Status: slots.StatusSkipped}
	w.loadingSlots = false
	return nil
}

// IdentityUpdated replaces the session identity after a login, logout or
// profile change.
func (w *Workflow) IdentityUpdated(who *identity.Identity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.who = who
}

// Snapshot returns a copy of the session state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{
		Draft:           w.draft,
		Clinics:         append([]clinics.Clinic(nil), w.candidates...),
		ClinicSource:    w.source,
		NearestClinicID: w.nearestID,
		Slots:           w.slotResult,
		LoadingSlots:    w.loadingSlots,
		Submission:      w.controller.Status(),
	}
	snap.Slots.Slots = append([]string(nil), w.slotResult.Slots...)
	if w.opts.ProvinceGrouping {
		snap.Provinces = clinics.Provinces(w.all)
	}
	if w.who != nil {
		who := *w.who
		snap.Identity = &who
	}
	return snap
}

// resetSlotsLocked clears the slot and supersedes any outstanding lookup.
// The caller must hold w.mu.
func (w *Workflow) resetSlotsLocked() (slots.Ticket, string) {
	w.draft.SelectedSlot = ""
	w.slotResult = slots.Result{Status: slots.StatusSkipped}
	ticket := w.tracker.Begin(w.draft.ClinicID, w.draft.Date)
	w.loadingSlots = w.draft.ClinicID != "" && w.draft.Date != ""
	return ticket, w.draft.Date
}

// fetchSlots runs one lookup and stores it unless a newer one has started.
func (w *Workflow) fetchSlots(ctx context.Context, ticket slots.Ticket, clinicID, date string) {
	res := w.resolver.Fetch(ctx, clinicID, date)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.tracker.Current(ticket) {
		if w.metrics != nil && res.Status != slots.StatusSkipped {
			w.metrics.ObserveStaleSlotResponse()
		}
		w.logger.Debug("discarding stale slot response", "clinic_id", clinicID, "date", date)
		return
	}
	w.slotResult = res
	w.loadingSlots = false
}

func (w *Workflow) filtered() []clinics.Clinic {
	if !w.opts.ProvinceGrouping {
		return append([]clinics.Clinic(nil), w.all...)
	}
	return clinics.FilterByProvince(w.all, w.draft.Province)
}

func (w *Workflow) observeGeo(result string) {
	if w.metrics != nil {
		w.metrics.ObserveGeolocation(result)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

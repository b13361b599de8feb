package slots

import (
	"context"
	"strings"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Status distinguishes why a slot list looks the way it does.
type Status string

const (
	// StatusSkipped: clinic or date missing, nothing was requested.
	StatusSkipped Status = "skipped"
	// StatusAvailable: the API returned slots.
	StatusAvailable Status = "available"
	// StatusUnavailable: the API answered with no slots. The API does not say
	// whether the day is fully booked or simply has no data.
	StatusUnavailable Status = "unavailable"
	// StatusUnreachable: the API could not be asked.
	StatusUnreachable Status = "unreachable"
)

// Result is the outcome of one slot lookup.
type Result struct {
	Status Status   `json:"status"`
	Slots  []string `json:"slots"`
	// Fallback is true when Slots is the built-in grid rather than API data.
	Fallback bool `json:"fallback"`
}

// Source answers availability questions, normally the scheduling API.
type Source interface {
	GetAvailability(ctx context.Context, clinicID, date string) ([]string, error)
}

// Recorder observes slot lookup outcomes.
type Recorder interface {
	ObserveSlotFetch(status string, fallback bool)
}

// Resolver fetches slots and applies the fallback grid.
type Resolver struct {
	source   Source
	fallback bool
	metrics  Recorder
	logger   *logging.Logger
}

// NewResolver creates a resolver. With fallback enabled, unavailable and
// unreachable answers carry the fallback grid so the form stays usable.
func NewResolver(source Source, fallback bool, metrics Recorder, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{source: source, fallback: fallback, metrics: metrics, logger: logger}
}

// Fetch looks up slots for clinicID on date (YYYY-MM-DD). Missing inputs
// short-circuit without touching the network.
func (r *Resolver) Fetch(ctx context.Context, clinicID, date string) Result {
	clinicID, date = strings.TrimSpace(clinicID), strings.TrimSpace(date)
	if clinicID == "" || date == "" {
		return Result{Status: StatusSkipped}
	}

	res := r.fetch(ctx, clinicID, date)
	if r.metrics != nil {
		r.metrics.ObserveSlotFetch(string(res.Status), res.Fallback)
	}
	return res
}

func (r *Resolver) fetch(ctx context.Context, clinicID, date string) Result {
	if r.source == nil {
		return r.degraded(StatusUnreachable)
	}
	slots, err := r.source.GetAvailability(ctx, clinicID, date)
	if err != nil {
		r.logger.Warn("slot availability unreachable", "clinic_id", clinicID, "date", date, "error", err)
		return r.degraded(StatusUnreachable)
	}
	if len(slots) == 0 {
		r.logger.Info("slot availability empty", "clinic_id", clinicID, "date", date)
		return r.degraded(StatusUnavailable)
	}
	return Result{Status: StatusAvailable, Slots: slots}
}

func (r *Resolver) degraded(status Status) Result {
	if !r.fallback {
		return Result{Status: status}
	}
	return Result{Status: status, Slots: FallbackGrid(), Fallback: true}
}

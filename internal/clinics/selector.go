package clinics

import (
	"context"

	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Directory lists clinics from an authoritative source.
type Directory interface {
	ListClinics(ctx context.Context) ([]Clinic, error)
}

// Recorder observes where clinic lists came from.
type Recorder interface {
	ObserveClinicDirectory(source string)
}

// Selector loads the clinic list, falling back to the seed list.
type Selector struct {
	dir     Directory
	metrics Recorder
	logger  *logging.Logger
}

// NewSelector creates a selector. dir may be nil, in which case the seed list
// is always used.
func NewSelector(dir Directory, metrics Recorder, logger *logging.Logger) *Selector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Selector{dir: dir, metrics: metrics, logger: logger}
}

// Load returns the directory's clinics, or the seed list when the directory
// errors or is empty. It never fails.
func (s *Selector) Load(ctx context.Context) ([]Clinic, Source) {
	clinics, source := s.load(ctx)
	if s.metrics != nil {
		s.metrics.ObserveClinicDirectory(string(source))
	}
	return clinics, source
}

func (s *Selector) load(ctx context.Context) ([]Clinic, Source) {
	if s.dir == nil {
		return SeedClinics(), SourceSeed
	}
	clinics, err := s.dir.ListClinics(ctx)
	if err != nil {
		s.logger.Warn("clinic directory unreachable; using seed clinics", "error", err)
		return SeedClinics(), SourceSeed
	}
	if len(clinics) == 0 {
		s.logger.Warn("clinic directory empty; using seed clinics")
		return SeedClinics(), SourceSeed
	}
	return clinics, SourceAPI
}

// APIDirectory adapts the scheduling API client to Directory.
type APIDirectory struct {
	client interface {
		ListClinics(ctx context.Context) ([]schedulerapi.Clinic, error)
	}
}

// NewAPIDirectory wraps client.
func NewAPIDirectory(client *schedulerapi.Client) *APIDirectory {
	return &APIDirectory{client: client}
}

func (d *APIDirectory) ListClinics(ctx context.Context) ([]Clinic, error) {
	raw, err := d.client.ListClinics(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Clinic, 0, len(raw))
	for _, c := range raw {
		if c.ID == "" {
			continue
		}
		clinic := Clinic{ID: c.ID, Name: c.Name, Location: c.Location, Province: c.Province}
		if c.Lat != nil && c.Lng != nil {
			clinic.Coordinates = &Coordinates{Lat: *c.Lat, Lng: *c.Lng}
		}
		out = append(out, clinic)
	}
	return out, nil
}

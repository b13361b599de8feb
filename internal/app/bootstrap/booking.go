package bootstrap

import (
	"net/http"

	"github.com/wolfman30/clinic-scheduler/internal/booking"
	"github.com/wolfman30/clinic-scheduler/internal/clinics"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/geo"
	"github.com/wolfman30/clinic-scheduler/internal/http/handlers"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/internal/slots"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// BuildAPIClient returns a scheduling API client that authenticates with
// tokens. httpClient may be nil.
func BuildAPIClient(cfg *appconfig.Config, httpClient *http.Client, tokens schedulerapi.TokenSource, logger *logging.Logger) *schedulerapi.Client {
	return schedulerapi.NewClient(cfg.APIBaseURL, logger,
		schedulerapi.WithHTTPClient(httpClient),
		schedulerapi.WithTimeout(cfg.APITimeout),
		schedulerapi.WithTokenSource(tokens),
	)
}

// BookingOptions maps configuration onto the booking form switches.
func BookingOptions(cfg *appconfig.Config) booking.Options {
	return booking.Options{
		ProvinceGrouping: cfg.ProvinceGrouping,
		RequireProvider:  cfg.RequireProvider,
		RequireRoom:      cfg.RequireRoom,
	}
}

// BuildLocator picks the position source: fixed coordinates when configured,
// otherwise an IP lookup, or nil when geolocation is disabled.
func BuildLocator(cfg *appconfig.Config, logger *logging.Logger) geo.Locator {
	if cfg == nil || !cfg.GeolocationEnabled {
		return nil
	}
	if cfg.HasStaticPosition() {
		return geo.StaticLocator{Position: geo.Position{Lat: *cfg.GeolocationLat, Lng: *cfg.GeolocationLng}}
	}
	if cfg.GeoIPURL == "" {
		return nil
	}
	return geo.NewIPLocator(cfg.GeoIPURL, logger)
}

// NewWorkflowBuilder wires workflows to the scheduling API. locator may be
// nil, e.g. for the HTTP server where browsers post their own position.
func NewWorkflowBuilder(cfg *appconfig.Config, httpClient *http.Client, locator geo.Locator, m *metrics.BookingMetrics, logger *logging.Logger) handlers.WorkflowBuilder {
	if logger == nil {
		logger = logging.Default()
	}
	return func(tokens schedulerapi.TokenSource, who *identity.Identity) *booking.Workflow {
		client := BuildAPIClient(cfg, httpClient, tokens, logger)
		deps := booking.Deps{
			Clinics:    clinics.NewSelector(clinics.NewAPIDirectory(client), m, logger),
			Slots:      slots.NewResolver(client, cfg.FallbackSlots, m, logger),
			Submitter:  client,
			Locator:    locator,
			GeoTimeout: cfg.GeolocationTimeout,
			Options:    BookingOptions(cfg),
			Logger:     logger,
		}
		if m != nil {
			deps.Metrics = m
		}
		return booking.NewWorkflow(who, deps)
	}
}

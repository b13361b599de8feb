package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking workflow.
type BookingMetrics struct {
	clinicDirectoryTotal *prometheus.CounterVec
	slotFetchTotal       *prometheus.CounterVec
	staleSlotTotal       prometheus.Counter
	geolocationTotal     *prometheus.CounterVec
	submissionTotal      *prometheus.CounterVec
	submissionLatency    prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		clinicDirectoryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "clinic_directory_loads_total",
			Help:      "Clinic directory loads by source (api or seed)",
		}, []string{"source"}),
		slotFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_fetch_total",
			Help:      "Slot availability lookups by outcome",
		}, []string{"status", "fallback"}),
		staleSlotTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_responses_discarded_total",
			Help:      "Slot responses dropped because the clinic or date changed first",
		}),
		geolocationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "geolocation_total",
			Help:      "Geolocation attempts by result",
		}, []string{"result"}),
		submissionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "submission_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		submissionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "submission_latency_seconds",
			Help:      "Latency of booking requests sent to the scheduling API",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.clinicDirectoryTotal,
		m.slotFetchTotal,
		m.staleSlotTotal,
		m.geolocationTotal,
		m.submissionTotal,
		m.submissionLatency,
	)
	return m
}

func (m *BookingMetrics) ObserveClinicDirectory(source string) {
	if m == nil {
		return
	}
	m.clinicDirectoryTotal.WithLabelValues(source).Inc()
}

func (m *BookingMetrics) ObserveSlotFetch(status string, fallback bool) {
	if m == nil {
		return
	}
	label := "false"
	if fallback {
		label = "true"
	}
	m.slotFetchTotal.WithLabelValues(status, label).Inc()
}

func (m *BookingMetrics) ObserveStaleSlotResponse() {
	if m == nil {
		return
	}
	m.staleSlotTotal.Inc()
}

func (m *BookingMetrics) ObserveGeolocation(result string) {
	if m == nil {
		return
	}
	m.geolocationTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionTotal.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		m.submissionLatency.Observe(seconds)
	}
}

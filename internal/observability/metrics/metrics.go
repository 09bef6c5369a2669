package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters for the appointment and waitlist engine.
type EngineMetrics struct {
	bookingsTotal      prometheus.Counter
	conflictsTotal     prometheus.Counter
	cancellationsTotal prometheus.Counter
	reschedulesTotal   prometheus.Counter
	waitlistEnrolled   prometheus.Counter
	waitlistOffers     prometheus.Counter
	offersReleased     prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	jobRunsTotal       *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		bookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total appointments booked",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "conflicts_total",
			Help:      "Total booking/reschedule attempts rejected for a held slot",
		}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "cancellations_total",
			Help:      "Total appointments cancelled",
		}),
		reschedulesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "reschedules_total",
			Help:      "Total appointments rescheduled",
		}),
		waitlistEnrolled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "waitlist",
			Name:      "enrolled_total",
			Help:      "Total waitlist enrollments",
		}),
		waitlistOffers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "waitlist",
			Name:      "offers_total",
			Help:      "Total freed-slot offers sent to waitlisted patients",
		}),
		offersReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "waitlist",
			Name:      "offers_released_total",
			Help:      "Total stale offers reverted to waiting by the sweep",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Total notification attempts by kind and outcome",
		}, []string{"kind", "status"}),
		jobRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total batch job runs by job name",
		}, []string{"job"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.bookingsTotal, m.conflictsTotal, m.cancellationsTotal, m.reschedulesTotal,
		m.waitlistEnrolled, m.waitlistOffers, m.offersReleased,
		m.notificationsTotal, m.jobRunsTotal,
	)
	return m
}

func (m *EngineMetrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookingsTotal.Inc()
}

func (m *EngineMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *EngineMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *EngineMetrics) ObserveReschedule() {
	if m == nil {
		return
	}
	m.reschedulesTotal.Inc()
}

func (m *EngineMetrics) ObserveWaitlistEnrolled() {
	if m == nil {
		return
	}
	m.waitlistEnrolled.Inc()
}

func (m *EngineMetrics) ObserveWaitlistOffer() {
	if m == nil {
		return
	}
	m.waitlistOffers.Inc()
}

func (m *EngineMetrics) ObserveOffersReleased(n int) {
	if m == nil {
		return
	}
	m.offersReleased.Add(float64(n))
}

func (m *EngineMetrics) ObserveNotification(kind string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *EngineMetrics) ObserveJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRunsTotal.WithLabelValues(job).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "battlecar_matches_started_total",
		Help: "Matches started by mode",
	}, []string{"mode"})

	matchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "battlecar_matches_finished_total",
		Help: "Matches finished by mode and winning side",
	}, []string{"mode", "winner"}) // winner=chaser|hider

	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battlecar_active_rooms",
		Help: "Rooms currently running",
	})

	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battlecar_connected_clients",
		Help: "WebSocket clients currently connected",
	})

	droppedInputs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlecar_dropped_inputs_total",
		Help: "Client input messages dropped by the rate limiter",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "battlecar_tick_duration_seconds",
		Help:    "Wall time spent simulating one room tick",
		Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025},
	})

	recordErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battlecar_record_errors_total",
		Help: "Match results that failed to persist",
	})
)

func IncMatchStarted(mode string) {
	matchesStarted.WithLabelValues(mode).Inc()
}

func IncMatchFinished(mode, winner string) {
	matchesFinished.WithLabelValues(mode, winner).Inc()
}

func IncActiveRooms() { activeRooms.Inc() }
func DecActiveRooms() { activeRooms.Dec() }

func IncConnectedClients() { connectedClients.Inc() }
func DecConnectedClients() { connectedClients.Dec() }

func IncDroppedInput() { droppedInputs.Inc() }

func ObserveTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

func IncRecordError() { recordErrors.Inc() }

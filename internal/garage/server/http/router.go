package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/internal/garage/service"
	"github.com/autopeer-io/garage/internal/garage/weather"
	"github.com/autopeer-io/garage/internal/pkg/metrics"
	"github.com/autopeer-io/garage/pkg/log"
)

// Deps are the collaborators behind the API. Weather and Details may be nil,
// in which case their routes answer 503.
type Deps struct {
	Garage         *service.Garage
	Weather        *weather.Client
	Details        core.DetailsProvider
	ReminderWindow time.Duration
}

const requestIDHeader = "X-Request-ID"

type handler struct {
	Deps
	logger log.Logger
}

// NewRouter builds the API routes.
func NewRouter(deps Deps) http.Handler {
	if deps.ReminderWindow <= 0 {
		deps.ReminderWindow = service.DefaultReminderWindow
	}
	h := &handler{Deps: deps, logger: log.WithName("http")}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.HandleFunc("/healthz", probe).Methods(http.MethodGet)
	r.HandleFunc("/readyz", probe).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/vehicles", h.listVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", h.createVehicle).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", h.getVehicle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", h.deleteVehicle).Methods(http.MethodDelete)
	api.HandleFunc("/vehicles/{id}/actions/{action}", h.runAction).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/maintenance", h.listMaintenance).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}/maintenance", h.addMaintenance).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/maintenance/{recordID}", h.removeMaintenance).Methods(http.MethodDelete)
	api.HandleFunc("/vehicles/{id}/details", h.getDetails).Methods(http.MethodGet)

	api.HandleFunc("/selection", h.getSelection).Methods(http.MethodGet)
	api.HandleFunc("/selection", h.putSelection).Methods(http.MethodPut)
	api.HandleFunc("/selection", h.deleteSelection).Methods(http.MethodDelete)

	api.HandleFunc("/reminders", h.listReminders).Methods(http.MethodGet)
	api.HandleFunc("/reminders/notify", h.notifyReminders).Methods(http.MethodPost)

	api.HandleFunc("/weather", h.getWeather).Methods(http.MethodGet)
	api.HandleFunc("/weather/daily", h.getDailyWeather).Methods(http.MethodGet)

	return r
}

func probe(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := h.logger.WithValues("requestID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(log.NewContext(r.Context(), logger)))
		logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

package httpapi

import (
	"net/http"

	"senser/internal/metrics"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Router gorilla/mux with the request-id, access-log and metrics middleware chain
type Router struct {
	mux    *mux.Router
	logger *zap.Logger
}

func NewRouter(m *metrics.Metrics, logger *zap.Logger) *Router {
	chain := []mux.MiddlewareFunc{requestIDMiddleware, accessLogMiddleware(logger)}
	if m != nil {
		chain = append(chain, metricsMiddleware(m))
	}

	r := mux.NewRouter()
	r.Use(chain...)
	// mux skips Use middleware when no route matches
	r.NotFoundHandler = wrapChain(chain, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, Fail("Not Found"))
	}))
	r.MethodNotAllowedHandler = wrapChain(chain, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Fail("Method Not Allowed"))
	}))
	return &Router{mux: r, logger: logger}
}

// wrapChain applies chain in r.Use order, first element outermost
func wrapChain(chain []mux.MiddlewareFunc, h http.Handler) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func (r *Router) Handle(pattern string, h http.HandlerFunc, methods ...string) {
	route := r.mux.HandleFunc(pattern, h)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// HandleHandler mounts an http.Handler (metrics exposition)
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterSystemRoutes /, /health and /metrics
func (r *Router) RegisterSystemRoutes(name, version string, m *metrics.Metrics) {
	r.Handle("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"name": name, "version": version})
	}, http.MethodGet)
	r.Handle("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}, http.MethodGet)
	if m != nil {
		r.HandleHandler("/metrics", m.Handler())
	}
}

// RegisterSensorRoutes fixed /sensors/* paths are registered before /sensors/{id}
func (r *Router) RegisterSensorRoutes(h *SensorHandler) {
	r.Handle("/sensors/near", h.GetSensorsNear, http.MethodGet)
	r.Handle("/sensors/temperature/values", h.GetTemperatureValues, http.MethodGet)
	r.Handle("/sensors/quantity_by_type", h.GetSensorTypeCounts, http.MethodGet)
	r.Handle("/sensors/low_battery", h.GetLowBatterySensors, http.MethodGet)

	r.Handle("/sensors", h.ListSensors, http.MethodGet)
	r.Handle("/sensors", h.RegisterSensor, http.MethodPost)
	r.Handle("/sensors/{id:[0-9]+}", h.GetSensor, http.MethodGet)
	r.Handle("/sensors/{id:[0-9]+}", h.DeleteSensor, http.MethodDelete)
	r.Handle("/sensors/{id:[0-9]+}/data", h.RecordData, http.MethodPost)
	r.Handle("/sensors/{id:[0-9]+}/data", h.GetData, http.MethodGet)
}

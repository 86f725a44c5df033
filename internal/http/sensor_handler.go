package httpapi

import (
	"net/http"
	"strconv"

	"senser/internal/domain"
	"senser/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SensorHandler /sensors API
type SensorHandler struct {
	sensorService     service.SensorService
	sensorDataService service.SensorDataService
	rollupService     service.RollupService
	logger            *zap.Logger
}

func NewSensorHandler(
	sensorService service.SensorService,
	sensorDataService service.SensorDataService,
	rollupService service.RollupService,
	logger *zap.Logger,
) *SensorHandler {
	return &SensorHandler{
		sensorService:     sensorService,
		sensorDataService: sensorDataService,
		rollupService:     rollupService,
		logger:            logger,
	}
}

type sensorsEnvelope struct {
	Sensors any `json:"sensors"`
}

func (h *SensorHandler) sensorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		badRequest(w, r, h.logger, "invalid sensor id")
		return 0, false
	}
	return id, true
}

// ListSensors GET /sensors?skip&limit
func (h *SensorHandler) ListSensors(w http.ResponseWriter, r *http.Request) {
	skip, ok := queryInt(r, "skip", 0)
	if !ok {
		badRequest(w, r, h.logger, "skip must be an integer")
		return
	}
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		badRequest(w, r, h.logger, "limit must be an integer")
		return
	}

	sensors, err := h.sensorService.ListSensors(r.Context(), service.ListSensorsRequest{Skip: skip, Limit: limit})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

// RegisterSensor POST /sensors
func (h *SensorHandler) RegisterSensor(w http.ResponseWriter, r *http.Request) {
	var req domain.SensorCreate
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		badRequest(w, r, h.logger, "invalid request body")
		return
	}

	resp, err := h.sensorService.RegisterSensor(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSensor GET /sensors/{id}
func (h *SensorHandler) GetSensor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sensorID(w, r)
	if !ok {
		return
	}
	view, err := h.sensorService.GetSensor(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteSensor DELETE /sensors/{id}
func (h *SensorHandler) DeleteSensor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sensorID(w, r)
	if !ok {
		return
	}
	deleted, err := h.sensorService.DeleteSensor(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

// RecordData POST /sensors/{id}/data
func (h *SensorHandler) RecordData(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sensorID(w, r)
	if !ok {
		return
	}
	var reading domain.Reading
	if err := readBodyJSON(r, maxBodyBytes, &reading); err != nil {
		badRequest(w, r, h.logger, "invalid request body")
		return
	}

	if err := h.sensorDataService.RecordReading(r.Context(), id, &reading); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data recorded successfully"})
}

// GetData GET /sensors/{id}/data?from&to&bucket; from_ is accepted for from
func (h *SensorHandler) GetData(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sensorID(w, r)
	if !ok {
		return
	}

	resp, err := h.sensorDataService.GetSensorData(r.Context(), service.GetSensorDataRequest{
		SensorID: id,
		From:     queryFirst(r, "from", "from_"),
		To:       queryFirst(r, "to"),
		Bucket:   queryFirst(r, "bucket"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if resp.Latest != nil {
		writeJSON(w, http.StatusOK, resp.Latest)
		return
	}
	writeJSON(w, http.StatusOK, resp.Aggregate)
}

// GetSensorsNear GET /sensors/near?latitude&longitude&radius
func (h *SensorHandler) GetSensorsNear(w http.ResponseWriter, r *http.Request) {
	lat, ok := queryFloat(r, "latitude")
	if !ok {
		badRequest(w, r, h.logger, "latitude is required")
		return
	}
	lon, ok := queryFloat(r, "longitude")
	if !ok {
		badRequest(w, r, h.logger, "longitude is required")
		return
	}
	radius, ok := queryFloat(r, "radius")
	if !ok {
		badRequest(w, r, h.logger, "radius is required")
		return
	}

	views, err := h.sensorService.GetSensorsNear(r.Context(), service.GetSensorsNearRequest{
		Latitude:  lat,
		Longitude: lon,
		Radius:    radius,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetTemperatureValues GET /sensors/temperature/values
func (h *SensorHandler) GetTemperatureValues(w http.ResponseWriter, r *http.Request) {
	out, err := h.rollupService.GetTemperatureValues(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sensorsEnvelope{Sensors: out})
}

// GetSensorTypeCounts GET /sensors/quantity_by_type
func (h *SensorHandler) GetSensorTypeCounts(w http.ResponseWriter, r *http.Request) {
	out, err := h.rollupService.GetSensorTypeCounts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sensorsEnvelope{Sensors: out})
}

// GetLowBatterySensors GET /sensors/low_battery
func (h *SensorHandler) GetLowBatterySensors(w http.ResponseWriter, r *http.Request) {
	out, err := h.rollupService.GetLowBatterySensors(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sensorsEnvelope{Sensors: out})
}

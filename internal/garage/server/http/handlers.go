package http

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/internal/garage/service"
	"github.com/autopeer-io/garage/internal/garage/weather"
	"github.com/autopeer-io/garage/pkg/log"
)

type createVehicleRequest struct {
	Kind          model.Kind `json:"kind"`
	Model         string     `json:"model"`
	Color         string     `json:"color"`
	CargoCapacity float64    `json:"cargoCapacity"`
}

type amountRequest struct {
	Amount *float64 `json:"amount"`
}

type maintenanceRequest struct {
	Timestamp   string   `json:"timestamp"`
	ServiceType string   `json:"serviceType"`
	Cost        flexText `json:"cost"`
	Notes       string   `json:"notes"`
}

type selectionRequest struct {
	ID string `json:"id"`
}

type selectionResponse struct {
	ID      string      `json:"id"`
	Vehicle *model.View `json:"vehicle,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

type historyResponse struct {
	Past     []recordView `json:"past"`
	Upcoming []recordView `json:"upcoming"`
}

// vehicleAction runs a named action. amount is nil when the request carried none.
type vehicleAction func(v *model.Vehicle, amount *float64) model.Result

var actions = map[string]vehicleAction{
	"turn-on":    func(v *model.Vehicle, _ *float64) model.Result { return v.TurnOn() },
	"turn-off":   func(v *model.Vehicle, _ *float64) model.Result { return v.TurnOff() },
	"accelerate": func(v *model.Vehicle, _ *float64) model.Result { return v.Accelerate() },
	"brake":      func(v *model.Vehicle, _ *float64) model.Result { return v.Brake() },
	"turbo":      func(v *model.Vehicle, _ *float64) model.Result { return v.ActivateTurbo() },
	"load": func(v *model.Vehicle, amount *float64) model.Result {
		return v.Load(amountOr(amount, model.DefaultLoadAmount))
	},
	"unload": func(v *model.Vehicle, amount *float64) model.Result {
		return v.Unload(amountOr(amount, model.DefaultUnloadAmount))
	},
}

func amountOr(amount *float64, def float64) float64 {
	if amount == nil {
		return def
	}
	return *amount
}

func (h *handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Garage.Views())
}

func (h *handler) createVehicle(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	v, err := model.NewVehicle(model.Params{
		Kind:          req.Kind,
		Model:         req.Model,
		Color:         req.Color,
		CargoCapacity: req.CargoCapacity,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Garage.Add(r.Context(), v)
	warn, err := warning(err)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusConflict, resultResponse{Result: res})
		return
	}
	// The garage owns v now; read it back under the garage lock.
	resp := resultResponse{Result: res, Warning: warn}
	if view, ok := h.Garage.View(v.ID); ok {
		resp.Vehicle = &view
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *handler) getVehicle(w http.ResponseWriter, r *http.Request) {
	view, ok := h.Garage.View(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := h.Garage.Remove(r.Context(), id)
	warn, err := warning(err)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		Result:  model.Result{Success: true, Message: "Vehicle removed from the garage."},
		Warning: warn,
	})
}

func (h *handler) runAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["action"]
	action, ok := actions[name]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown action "+name+".")
		return
	}

	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	res, err := h.Garage.Update(r.Context(), vars["id"], name, func(v *model.Vehicle) model.Result {
		return action(v, req.Amount)
	})
	if errors.Is(err, service.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}
	warn, err := warning(err)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	body := resultResponse{Result: res, Warning: warn}
	if view, ok := h.Garage.View(vars["id"]); ok {
		body.Vehicle = &view
	}
	writeJSON(w, actionStatus(res, req.Amount), body)
}

// actionStatus is 200 on success, 422 when the request carried an unusable
// amount and 409 when the vehicle's state refused the action.
func actionStatus(res model.Result, amount *float64) int {
	switch {
	case res.Success:
		return http.StatusOK
	case amount != nil && (*amount <= 0 || math.IsNaN(*amount)):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

func (h *handler) listMaintenance(w http.ResponseWriter, r *http.Request) {
	history, err := h.Garage.History(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Past:     newRecordViews(history.At, history.Past),
		Upcoming: newRecordViews(history.At, history.Upcoming),
	})
}

func (h *handler) addMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	rec := model.ParseMaintenanceRecord(req.Timestamp, req.ServiceType, string(req.Cost), req.Notes)
	res, err := h.Garage.AddMaintenance(r.Context(), mux.Vars(r)["id"], rec)
	if errors.Is(err, service.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}
	warn, err := warning(err)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusUnprocessableEntity, resultResponse{Result: res})
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		resultResponse
		Record recordView `json:"record"`
	}{resultResponse{Result: res, Warning: warn}, newRecordViews(h.Garage.Now(), []*model.MaintenanceRecord{rec})[0]})
}

func (h *handler) removeMaintenance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.Garage.RemoveMaintenance(r.Context(), vars["id"], vars["recordID"])
	if errors.Is(err, service.ErrVehicleNotFound) {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}
	warn, err := warning(err)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusNotFound, resultResponse{Result: res})
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: res, Warning: warn})
}

func (h *handler) getDetails(w http.ResponseWriter, r *http.Request) {
	if h.Details == nil {
		writeError(w, http.StatusServiceUnavailable, "Vehicle details lookup is not configured.")
		return
	}
	id := mux.Vars(r)["id"]
	if _, ok := h.Garage.View(id); !ok {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}

	d, err := h.Details.Lookup(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Error fetching vehicle details.")
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "No extra details found for this vehicle.")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) getSelection(w http.ResponseWriter, r *http.Request) {
	resp := selectionResponse{}
	if v, ok := h.Garage.Selected(); ok {
		resp.ID = v.ID
		if view, ok := h.Garage.View(v.ID); ok {
			resp.Vehicle = &view
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) putSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "A vehicle id is required.")
		return
	}

	ok, err := h.Garage.Select(r.Context(), req.ID)
	warn, err := warning(err)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Vehicle not found.")
		return
	}
	resp := selectionResponse{ID: req.ID, Warning: warn}
	if view, ok := h.Garage.View(req.ID); ok {
		resp.Vehicle = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) deleteSelection(w http.ResponseWriter, r *http.Request) {
	_, err := h.Garage.Select(r.Context(), "")
	warn, err := warning(err)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Warning: warn})
}

func (h *handler) listReminders(w http.ResponseWriter, r *http.Request) {
	window := h.ReminderWindow
	if text := r.URL.Query().Get("window"); text != "" {
		d, err := time.ParseDuration(text)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration such as 48h.")
			return
		}
		window = d
	}
	reminders := h.Garage.Reminders(window)
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (h *handler) notifyReminders(w http.ResponseWriter, r *http.Request) {
	n := h.Garage.NotifyReminders(r.Context(), h.ReminderWindow)
	writeJSON(w, http.StatusOK, map[string]int{"published": n})
}

func weatherQuery(r *http.Request) weather.Query {
	q := r.URL.Query()
	return weather.Query{City: q.Get("city"), Lat: q.Get("lat"), Lon: q.Get("lon")}
}

func (h *handler) getWeather(w http.ResponseWriter, r *http.Request) {
	if h.Weather == nil {
		writeError(w, http.StatusServiceUnavailable, "Weather proxy is not configured.")
		return
	}
	report, err := h.Weather.Lookup(r.Context(), weatherQuery(r))
	if err != nil {
		h.weatherError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) getDailyWeather(w http.ResponseWriter, r *http.Request) {
	if h.Weather == nil {
		writeError(w, http.StatusServiceUnavailable, "Weather proxy is not configured.")
		return
	}
	days, err := h.Weather.Daily(r.Context(), weatherQuery(r))
	if err != nil {
		h.weatherError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *handler) weatherError(w http.ResponseWriter, err error) {
	var werr *weather.Error
	if errors.As(err, &werr) {
		writeError(w, werr.Status, werr.Message)
		return
	}
	writeError(w, weather.StatusOf(err), err.Error())
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context(), h.logger).Error(err, "Request failed", "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "Internal error.")
}

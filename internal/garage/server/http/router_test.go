package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/internal/garage/service"
	"github.com/autopeer-io/garage/internal/garage/storage"
	"github.com/autopeer-io/garage/internal/garage/weather"
	"github.com/autopeer-io/garage/pkg/options"
)

type brokenStore struct {
	*storage.MemoryStore
}

func (brokenStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type fakeDetails map[string]*model.Details

func (f fakeDetails) Lookup(_ context.Context, id string) (*model.Details, error) {
	return f[id], nil
}

func newTestRouter(t *testing.T) (http.Handler, *service.Garage) {
	t.Helper()
	g := service.New(storage.NewMemoryStore())
	return NewRouter(Deps{Garage: g}), g
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createVehicle(t *testing.T, h http.Handler, body string) model.View {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/vehicles", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vehicle: status %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[resultResponse](t, rec)
	if resp.Vehicle == nil {
		t.Fatalf("create vehicle: no vehicle in %s", rec.Body.String())
	}
	return *resp.Vehicle
}

func TestProbesAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Errorf("GET %s = %d %q", path, rec.Code, rec.Body.String())
		}
	}

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "garage_vehicles") {
		t.Errorf("GET /metrics = %d, missing garage_vehicles", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || decode[errorResponse](t, rec).Message == "" {
		t.Errorf("GET /nope = %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("response has no request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want the caller's id", got)
	}
}

func TestCreateAndListVehicles(t *testing.T) {
	h, _ := newTestRouter(t)

	civic := createVehicle(t, h, `{"kind":"Car","model":"Civic","color":"Red"}`)
	if civic.Kind != model.KindCar || civic.MaxSpeed != 150 || civic.IgnitionOn {
		t.Errorf("unexpected view %+v", civic)
	}
	createVehicle(t, h, `{"kind":"Truck","model":"Atlas","color":"White","cargoCapacity":5000}`)

	views := decode[[]model.View](t, do(t, h, http.MethodGet, "/api/vehicles", ""))
	if len(views) != 2 || views[0].Model != "Atlas" || views[1].Model != "Civic" {
		t.Errorf("GET /api/vehicles = %+v", views)
	}

	if rec := do(t, h, http.MethodGet, "/api/vehicles/"+civic.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("GET vehicle = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/vehicles/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown vehicle = %d", rec.Code)
	}
}

func TestCreateVehicleErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"kind":`},
		{"unknown kind", `{"kind":"Boat","model":"X","color":"Y"}`},
		{"missing model", `{"kind":"Car","model":" ","color":"Red"}`},
		{"missing color", `{"kind":"Car","model":"Civic"}`},
		{"truck capacity", `{"kind":"Truck","model":"Atlas","color":"White","cargoCapacity":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/api/vehicles", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateDuplicateVehicle(t *testing.T) {
	h, _ := newTestRouter(t)
	createVehicle(t, h, `{"kind":"Car","model":"Civic","color":"Red"}`)

	rec := do(t, h, http.MethodPost, "/api/vehicles", `{"kind":"SportsCar","model":"CIVIC","color":"red"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (%s)", rec.Code, rec.Body.String())
	}
	if resp := decode[resultResponse](t, rec); resp.Success || resp.Vehicle != nil {
		t.Errorf("duplicate create = %+v", resp)
	}
}

func TestActions(t *testing.T) {
	h, _ := newTestRouter(t)
	civic := createVehicle(t, h, `{"kind":"Car","model":"Civic","color":"Red"}`)
	base := "/api/vehicles/" + civic.ID + "/actions/"

	rec := do(t, h, http.MethodPost, base+"accelerate", "")
	if rec.Code != http.StatusConflict || decode[resultResponse](t, rec).Message != "Turn on the Civic first!" {
		t.Errorf("accelerate while off = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, h, http.MethodPost, base+"turn-on", ""); rec.Code != http.StatusOK {
		t.Fatalf("turn-on = %d %s", rec.Code, rec.Body.String())
	}
	resp := decode[resultResponse](t, do(t, h, http.MethodPost, base+"accelerate", ""))
	if !resp.Success || resp.Vehicle == nil || resp.Vehicle.Speed != 10 {
		t.Errorf("accelerate = %+v", resp)
	}

	if rec := do(t, h, http.MethodPost, base+"fly", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/vehicles/unknown/actions/brake", ""); rec.Code != http.StatusNotFound {
		t.Errorf("action on unknown vehicle = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, base+"turbo", ""); rec.Code != http.StatusConflict {
		t.Errorf("turbo on a car = %d", rec.Code)
	}
}

func TestTruckCargoActions(t *testing.T) {
	h, _ := newTestRouter(t)
	atlas := createVehicle(t, h, `{"kind":"Truck","model":"Atlas","color":"White","cargoCapacity":5000}`)
	base := "/api/vehicles/" + atlas.ID + "/actions/"

	resp := decode[resultResponse](t, do(t, h, http.MethodPost, base+"load", ""))
	if !resp.Success || resp.CurrentCargo == nil || *resp.CurrentCargo != 1000 {
		t.Errorf("default load = %+v", resp)
	}

	resp = decode[resultResponse](t, do(t, h, http.MethodPost, base+"unload", `{"amount":200}`))
	if !resp.Success || *resp.CurrentCargo != 800 {
		t.Errorf("unload 200 = %+v", resp)
	}

	if rec := do(t, h, http.MethodPost, base+"load", `{"amount":-5}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative load = %d %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteVehicleClearsSelection(t *testing.T) {
	h, g := newTestRouter(t)
	civic := createVehicle(t, h, `{"kind":"Car","model":"Civic","color":"Red"}`)

	if rec := do(t, h, http.MethodPut, "/api/selection", `{"id":"`+civic.ID+`"}`); rec.Code != http.StatusOK {
		t.Fatalf("select = %d %s", rec.Code, rec.Body.String())
	}
	sel := decode[selectionResponse](t, do(t, h, http.MethodGet, "/api/selection", ""))
	if sel.ID != civic.ID || sel.Vehicle == nil {
		t.Errorf("selection = %+v", sel)
	}

	if rec := do(t, h, http.MethodDelete, "/api/vehicles/"+civic.ID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	if g.SelectedID() != "" {
		t.Errorf("selection not cleared")
	}
	if rec := do(t, h, http.MethodDelete, "/api/vehicles/"+civic.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d", rec.Code)
	}
}

func TestSelectionErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	if rec := do(t, h, http.MethodPut, "/api/selection", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty id = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/api/selection", `{"id":"ghost"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/selection", ""); rec.Code != http.StatusOK {
		t.Errorf("clear = %d", rec.Code)
	}
}

func TestMaintenanceAndReminders(t *testing.T) {
	h, _ := newTestRouter(t)
	civic := createVehicle(t, h, `{"kind":"Car","model":"Civic","color":"Red"}`)
	base := "/api/vehicles/" + civic.ID + "/maintenance"

	due := time.Now().Add(2 * time.Hour).Format("2006-01-02T15:04")
	rec := do(t, h, http.MethodPost, base, `{"timestamp":"`+due+`","serviceType":"Oil change","cost":"150,50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add maintenance = %d %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		Record recordView `json:"record"`
	}](t, rec)
	if created.Record.Cost != 150.5 || created.Record.Timestamp == nil {
		t.Errorf("record = %+v", created.Record)
	}

	rec = do(t, h, http.MethodPost, base, `{"timestamp":"2024-01-10","serviceType":"Alignment","cost":80}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add past maintenance = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, h, http.MethodPost, base, `{"timestamp":"2024-01-10","serviceType":""}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid record = %d", rec.Code)
	}

	history := decode[historyResponse](t, do(t, h, http.MethodGet, base, ""))
	if len(history.Past) != 1 || len(history.Upcoming) != 1 || history.Upcoming[0].ServiceType != "Oil change" {
		t.Errorf("history = %+v", history)
	}

	reminders := decode[[]model.Reminder](t, do(t, h, http.MethodGet, "/api/reminders", ""))
	if len(reminders) != 1 || !strings.HasPrefix(reminders[0].Message, "Reminder: Oil change for Civic") {
		t.Errorf("reminders = %+v", reminders)
	}
	if rec := do(t, h, http.MethodGet, "/api/reminders?window=soon", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad window = %d", rec.Code)
	}
	if got := decode[map[string]int](t, do(t, h, http.MethodPost, "/api/reminders/notify", "")); got["published"] != 1 {
		t.Errorf("notify = %v", got)
	}

	path := base + "/" + created.Record.ID
	if rec := do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusOK {
		t.Errorf("remove record = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("remove record twice = %d", rec.Code)
	}
}

func TestMaintenanceUsesGarageClock(t *testing.T) {
	now := time.Now().Add(-10 * 24 * time.Hour)
	g := service.New(storage.NewMemoryStore(), service.WithClock(testingclock.NewFakePassiveClock(now)))
	h := NewRouter(Deps{Garage: g})
	civic := createVehicle(t, h, `{"kind":"Car","model":"Civic","color":"Red"}`)

	// Five days ago in wall time, but still ahead of the garage clock.
	due := time.Now().Add(-5 * 24 * time.Hour).Format(time.RFC3339)
	base := "/api/vehicles/" + civic.ID + "/maintenance"
	rec := do(t, h, http.MethodPost, base, `{"timestamp":"`+due+`","serviceType":"Inspection","cost":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add maintenance = %d %s", rec.Code, rec.Body.String())
	}
	added := decode[struct {
		Record recordView `json:"record"`
	}](t, rec)
	if added.Record.CostText != "Scheduled" {
		t.Errorf("added record cost = %q, want Scheduled", added.Record.CostText)
	}

	history := decode[historyResponse](t, do(t, h, http.MethodGet, base, ""))
	if len(history.Upcoming) != 1 || len(history.Past) != 0 {
		t.Fatalf("history = %+v", history)
	}
	if got := history.Upcoming[0].CostText; got != "Scheduled" {
		t.Errorf("upcoming cost = %q, want Scheduled", got)
	}
}

func TestPersistFailureIsWarning(t *testing.T) {
	g := service.New(brokenStore{storage.NewMemoryStore()})
	h := NewRouter(Deps{Garage: g})

	rec := do(t, h, http.MethodPost, "/api/vehicles", `{"kind":"Car","model":"Civic","color":"Red"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	if resp := decode[resultResponse](t, rec); !resp.Success || resp.Warning == "" {
		t.Errorf("expected success with warning, got %+v", resp)
	}
	if g.Len() != 1 {
		t.Errorf("vehicle should stay in memory")
	}
}

func TestDetails(t *testing.T) {
	g := service.New(storage.NewMemoryStore())
	unconfigured := NewRouter(Deps{Garage: g})
	civic := createVehicle(t, unconfigured, `{"kind":"Car","model":"Civic","color":"Red"}`)
	path := "/api/vehicles/" + civic.ID + "/details"

	if rec := do(t, unconfigured, http.MethodGet, path, ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured details = %d", rec.Code)
	}

	h := NewRouter(Deps{Garage: g, Details: fakeDetails{civic.ID: {ID: civic.ID, MarketValue: 85000}}})
	got := decode[model.Details](t, do(t, h, http.MethodGet, path, ""))
	if got.MarketValue != 85000 {
		t.Errorf("details = %+v", got)
	}

	atlas := createVehicle(t, h, `{"kind":"Truck","model":"Atlas","color":"White","cargoCapacity":100}`)
	if rec := do(t, h, http.MethodGet, "/api/vehicles/"+atlas.ID+"/details", ""); rec.Code != http.StatusNotFound {
		t.Errorf("details without entry = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/vehicles/ghost/details", ""); rec.Code != http.StatusNotFound {
		t.Errorf("details for unknown vehicle = %d", rec.Code)
	}
}

func TestWeather(t *testing.T) {
	g := service.New(storage.NewMemoryStore())
	if rec := do(t, NewRouter(Deps{Garage: g}), http.MethodGet, "/api/weather?city=Recife", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured weather = %d", rec.Code)
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Write([]byte(`{"list":[{"dt_txt":"2025-06-10 12:00:00","main":{"temp":20},"weather":[{"description":"sol","icon":"01d"}]}]}`))
	}))
	defer upstream.Close()

	opts := options.NewWeatherOptions()
	opts.BaseURL = upstream.URL
	opts.APIKey = "secret"
	h := NewRouter(Deps{Garage: g, Weather: weather.New(opts)})

	if rec := do(t, h, http.MethodGet, "/api/weather", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing query = %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/weather/daily?city=Atlantis", "")
	if rec.Code != http.StatusNotFound || decode[errorResponse](t, rec).Message != "city not found" {
		t.Errorf("upstream error = %d %s", rec.Code, rec.Body.String())
	}

	days := decode[[]weather.DailySummary](t, do(t, h, http.MethodGet, "/api/weather/daily?city=Recife", ""))
	if len(days) != 1 || days[0].Description != "Sol" {
		t.Errorf("daily = %+v", days)
	}

	if rec := do(t, h, http.MethodGet, "/api/weather?lat=-8.05&lon=-34.9", ""); rec.Code != http.StatusOK {
		t.Errorf("weather by coordinates = %d %s", rec.Code, rec.Body.String())
	}
}

func TestFlexText(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{`"150,50"`, "150,50", false},
		{`99.9`, "99.9", false},
		{`null`, "", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		var f flexText
		err := json.Unmarshal([]byte(tt.in), &f)
		if (err != nil) != tt.err || string(f) != tt.want {
			t.Errorf("unmarshal %s = %q, %v", tt.in, f, err)
		}
	}
}

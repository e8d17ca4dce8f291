package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/internal/garage/service"
)

type errorResponse struct {
	Message string `json:"message"`
}

// resultResponse is a Result plus the optional persistence warning and the
// state of the vehicle after the operation.
type resultResponse struct {
	model.Result
	Warning string      `json:"warning,omitempty"`
	Vehicle *model.View `json:"vehicle,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

// warning turns a persistence failure into a user-facing note. Other errors
// are returned unchanged.
func warning(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	if errors.Is(err, service.ErrPersist) {
		return "Change applied, but saving the garage failed: " + err.Error(), nil
	}
	return "", err
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// flexText accepts either a JSON string or a JSON number and keeps its text.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexText(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return err
	}
	*f = flexText(strings.TrimSpace(string(data)))
	return nil
}

// recordView is a maintenance record as shown to API clients.
type recordView struct {
	ID          string  `json:"id"`
	Timestamp   *string `json:"timestamp"`
	ServiceType string  `json:"serviceType"`
	Cost        float64 `json:"cost"`
	CostText    string  `json:"costText"`
	Notes       string  `json:"notes,omitempty"`
	Text        string  `json:"text"`
}

func newRecordViews(now time.Time, records []*model.MaintenanceRecord) []recordView {
	out := make([]recordView, 0, len(records))
	for _, rec := range records {
		rv := recordView{
			ID:          rec.ID,
			ServiceType: rec.ServiceType,
			Cost:        rec.Cost,
			CostText:    rec.FormatCostAt(now),
			Notes:       rec.Notes,
			Text:        rec.FormatAt(now, true),
		}
		if rec.IsValidDate() {
			ts := rec.Timestamp.Format(time.RFC3339)
			rv.Timestamp = &ts
		}
		out = append(out, rv)
	}
	return out
}

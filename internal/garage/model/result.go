package model

import "fmt"

// Result is the outcome of a vehicle action. Business-rule violations are
// reported through Success=false rather than as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	// CurrentCargo is set by truck cargo operations only.
	CurrentCargo *float64 `json:"currentCargo,omitempty"`
}

func ok(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

func (r Result) withCargo(cargo float64) Result {
	r.CurrentCargo = &cargo
	return r
}

package model

// Details is the extended information published for a vehicle by an
// external catalogue.
type Details struct {
	ID                string  `json:"id"`
	MarketValue       float64 `json:"marketValue"`
	LastServiceDate   string  `json:"lastServiceDate,omitempty"`
	RecallPending     bool    `json:"recallPending"`
	RecallDescription string  `json:"recallDescription,omitempty"`
	MaintenanceTip    string  `json:"maintenanceTip,omitempty"`
	FunFact           string  `json:"funFact,omitempty"`
}

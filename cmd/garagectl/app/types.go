package app

type vehicle struct {
	ID               string   `json:"id"`
	Kind             string   `json:"kind"`
	Model            string   `json:"model"`
	Color            string   `json:"color"`
	State            string   `json:"state"`
	Speed            float64  `json:"speed"`
	MaxSpeed         float64  `json:"maxSpeed"`
	TurboUsed        *bool    `json:"turboUsed"`
	CargoCapacity    *float64 `json:"cargoCapacity"`
	CurrentCargo     *float64 `json:"currentCargo"`
	LoadPercent      *float64 `json:"loadPercent"`
	MaintenanceCount int      `json:"maintenanceCount"`
}

type result struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	Warning      string   `json:"warning"`
	CurrentCargo *float64 `json:"currentCargo"`
	Vehicle      *vehicle `json:"vehicle"`
}

type record struct {
	ID          string `json:"id"`
	ServiceType string `json:"serviceType"`
	CostText    string `json:"costText"`
	Text        string `json:"text"`
}

type history struct {
	Past     []record `json:"past"`
	Upcoming []record `json:"upcoming"`
}

type selection struct {
	ID      string   `json:"id"`
	Warning string   `json:"warning"`
	Vehicle *vehicle `json:"vehicle"`
}

type reminder struct {
	VehicleID string `json:"vehicleId"`
	Model     string `json:"model"`
	Message   string `json:"message"`
}

type dailyWeather struct {
	Date        string  `json:"date"`
	TempMin     float64 `json:"tempMin"`
	TempMax     float64 `json:"tempMax"`
	Description string  `json:"description"`
}

type weatherReport struct {
	Tip string `json:"tip"`
}

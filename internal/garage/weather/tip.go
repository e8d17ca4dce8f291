package weather

// Conditions is the subset of the /weather payload used for driving tips.
type Conditions struct {
	Name    string      `json:"name"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
}

// Tip returns a driving hint for the current conditions at the given local
// hour, or "" when there is nothing worth saying.
func (c Conditions) Tip(hour int) string {
	id := 0
	if len(c.Weather) > 0 {
		id = c.Weather[0].ID
	}

	switch {
	case id >= 200 && id < 600:
		return "Slippery road. Slow down."
	case id >= 600 && id < 700:
		return "Dangerous conditions. Avoid driving."
	case id == 800 && hour > 18:
		return "Nice night for a drive!"
	case c.Main.Temp < 5:
		return "Intense cold! Check the tire pressure."
	case c.Main.Temp > 30:
		return "Extreme heat! Check the cooling system."
	}
	return ""
}

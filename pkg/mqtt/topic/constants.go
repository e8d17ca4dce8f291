package topic

// MQTT wildcards.
const (
	// Wildcard matches exactly one level: "garage/v1/events/+".
	Wildcard = "+"

	// MultiWildcard matches the remaining levels and must come last: "garage/v1/#".
	MultiWildcard = "#"
)

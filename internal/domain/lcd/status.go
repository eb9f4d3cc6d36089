package lcd

// Status is an overall or weekly compliance determination.
type Status string

const (
	StatusCompliant              Status = "compliant"
	StatusCompliantWithException Status = "compliant-with-exception"
	StatusAtRisk                 Status = "at-risk"
	StatusNonCompliant           Status = "non-compliant"
)

type TrafficLight string

const (
	LightGreen  TrafficLight = "green"
	LightYellow TrafficLight = "yellow"
	LightRed    TrafficLight = "red"
)

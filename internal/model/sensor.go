package model

type SensorReading struct {
	Name    string   `json:"name"`
	Value   string   `json:"value"`
	Unit    string   `json:"unit"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Current *float64 `json:"current"`
}

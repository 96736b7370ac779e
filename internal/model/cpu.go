package model

// CPUUsage is one row of the CPU table. The aggregate row is labeled "Total",
// individual cores "Core N". Usage is preformatted with one decimal digit.
type CPUUsage struct {
	Core  string `json:"core"`
	Usage string `json:"usage"`
}

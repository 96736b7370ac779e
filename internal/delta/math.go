package delta

import "math"

const (
	sectorSize = 512
	bytesPerMB = 1024.0 * 1024.0
)

func sectorsToMB(sectors uint64) float64 {
	return float64(sectors) * sectorSize / bytesPerMB
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

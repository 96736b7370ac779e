package system

// SaturatingSub returns cur-prev, or 0 when the counter went backwards
// (reset or device re-attach).
func SaturatingSub(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func ClampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// Package delta holds the cross-tick counter baselines used to turn
// monotonically increasing kernel counters into per-second rates.
package delta

import (
	"sort"
	"sync"
	"time"

	"hostwatch-agent/internal/model"
	"hostwatch-agent/internal/system"
)

// FamilyDiskIO is the counter family fed from /proc/diskstats.
const FamilyDiskIO = "disk_io"

// DefaultMinInterval is the shortest window over which disk rates are computed.
const DefaultMinInterval = 2 * time.Second

type Clock func() time.Time

type sample struct {
	counters map[string]system.DiskCounters
	at       time.Time
}

// Window stores one baseline per counter family. It is safe for concurrent
// use; each SampleDisk call is a single read-compute-replace critical section.
type Window struct {
	mu      sync.Mutex
	now     Clock
	samples map[string]sample
}

func NewWindow(now Clock) *Window {
	if now == nil {
		now = time.Now
	}
	return &Window{now: now, samples: make(map[string]sample)}
}

// Now reads the window's clock. Callers take it right after reading the
// counters they pass to SampleDisk.
func (w *Window) Now() time.Time {
	return w.now()
}

// SampleDisk records counters taken at `at` for family and returns rates
// against the stored baseline. The first call stores the baseline. A sample
// that is not newer than the baseline, or is within minInterval of it,
// returns an empty slice and leaves the baseline untouched, so the baseline
// never moves backwards.
func (w *Window) SampleDisk(family string, counters map[string]system.DiskCounters, at time.Time, minInterval time.Duration) []model.DiskIORate {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev, exists := w.samples[family]
	if !exists {
		w.samples[family] = sample{counters: cloneCounters(counters), at: at}
		return []model.DiskIORate{}
	}

	if !at.After(prev.at) {
		return []model.DiskIORate{}
	}
	elapsed := at.Sub(prev.at)
	if elapsed < minInterval {
		return []model.DiskIORate{}
	}

	rates := DiskRates(prev.counters, counters, elapsed)
	w.samples[family] = sample{counters: cloneCounters(counters), at: at}
	return rates
}

// Baseline returns a copy of the stored counters for family and when they were taken.
func (w *Window) Baseline(family string) (map[string]system.DiskCounters, time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.samples[family]
	if !ok {
		return nil, time.Time{}, false
	}
	return cloneCounters(s.counters), s.at, true
}

// DiskRates computes per-device rates between two counter tables. Devices
// missing from prev are skipped. A non-positive elapsed yields no rows.
func DiskRates(prev, cur map[string]system.DiskCounters, elapsed time.Duration) []model.DiskIORate {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return []model.DiskIORate{}
	}

	out := make([]model.DiskIORate, 0, len(cur))
	for device, c := range cur {
		p, ok := prev[device]
		if !ok {
			continue
		}
		reads := system.SaturatingSub(c.ReadsCompleted, p.ReadsCompleted)
		writes := system.SaturatingSub(c.WritesCompleted, p.WritesCompleted)
		sectorsRead := system.SaturatingSub(c.SectorsRead, p.SectorsRead)
		sectorsWritten := system.SaturatingSub(c.SectorsWritten, p.SectorsWritten)
		busyMs := system.SaturatingSub(c.TimeDoingIOms, p.TimeDoingIOms)

		out = append(out, model.DiskIORate{
			Device:               device,
			ReadIOPS:             round2(float64(reads) / secs),
			WriteIOPS:            round2(float64(writes) / secs),
			ReadMBS:              round2(sectorsToMB(sectorsRead) / secs),
			WriteMBS:             round2(sectorsToMB(sectorsWritten) / secs),
			Utilization:          round2(system.ClampPercent(float64(busyMs) / 1000 / secs * 100)),
			TotalReadsCompleted:  c.ReadsCompleted,
			TotalSectorsRead:     c.SectorsRead,
			TotalWritesCompleted: c.WritesCompleted,
			TotalSectorsWritten:  c.SectorsWritten,
			TotalTimeSpentIO:     c.TimeDoingIOms,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Device < out[j].Device
	})
	return out
}

func cloneCounters(in map[string]system.DiskCounters) map[string]system.DiskCounters {
	out := make(map[string]system.DiskCounters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

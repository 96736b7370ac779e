package system

import (
	"context"
	"fmt"
	"math"

	"github.com/shirou/gopsutil/v4/disk"

	"hostwatch-agent/internal/model"
)

const bytesPerGiB = 1024.0 * 1024.0 * 1024.0

func ReadDiskUsage(ctx context.Context, root string) (model.DiskUsage, error) {
	if root == "" {
		root = "/"
	}
	usage, err := disk.UsageWithContext(ctx, root)
	if err != nil {
		return model.DiskUsage{}, fmt.Errorf("filesystem statistics for %s: %w", root, err)
	}
	return DiskUsageFromStat(usage), nil
}

// DiskUsageFromStat formats sizes in GiB with one decimal; used space counts
// reserved blocks, available space does not.
func DiskUsageFromStat(u *disk.UsageStat) model.DiskUsage {
	percentage := uint32(0)
	if u.Total > 0 {
		percentage = uint32(math.Round(float64(u.Used) / float64(u.Total) * 100))
	}
	fs := u.Fstype
	if u.Path == "/" || fs == "" {
		fs = "rootfs"
	}
	size := gib(u.Total)
	return model.DiskUsage{
		Filesystem: fs,
		Size:       size,
		Used:       gib(u.Used),
		Avail:      gib(u.Free),
		UsePerc:    fmt.Sprintf("%d%%", percentage),
		Mount:      u.Path,
		Total:      size,
		Percentage: percentage,
	}
}

func gib(b uint64) string {
	return fmt.Sprintf("%.1fG", float64(b)/bytesPerGiB)
}

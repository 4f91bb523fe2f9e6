//go:build windows

package system

import (
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// getPartitionForPath finds the partition the given path is stored on. On
// Windows mountpoints are drive letters such as "C:" or "C:\".
func getPartitionForPath(path string, partitions []disk.PartitionStat) (disk.PartitionStat, bool) {
	volumeName := strings.ToUpper(filepath.VolumeName(path))
	if volumeName == "" {
		return disk.PartitionStat{}, false
	}
	for _, part := range partitions {
		if strings.ToUpper(strings.TrimRight(part.Mountpoint, "\\")) == volumeName {
			return part, true
		}
	}
	return disk.PartitionStat{}, false
}

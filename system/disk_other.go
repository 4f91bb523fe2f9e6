//go:build !linux && !windows

package system

import "github.com/shirou/gopsutil/v3/disk"

func getPartitionForPath(path string, partitions []disk.PartitionStat) (disk.PartitionStat, bool) {
	return longestMountpoint(path, partitions)
}

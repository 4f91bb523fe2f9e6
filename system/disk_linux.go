//go:build linux

package system

import (
	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"
)

// getPartitionForPath finds the partition the given path is stored on by
// comparing filesystem ids. Bind mounts share an id, so the deepest matching
// mountpoint wins.
func getPartitionForPath(path string, partitions []disk.PartitionStat) (disk.PartitionStat, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return longestMountpoint(path, partitions)
	}

	var matches []disk.PartitionStat
	for _, part := range partitions {
		var pStat unix.Statfs_t
		if err := unix.Statfs(part.Mountpoint, &pStat); err != nil {
			continue
		}
		if stat.Fsid == pStat.Fsid {
			matches = append(matches, part)
		}
	}
	if len(matches) == 0 {
		return longestMountpoint(path, partitions)
	}
	if part, ok := longestMountpoint(path, matches); ok {
		return part, true
	}
	return matches[0], true
}

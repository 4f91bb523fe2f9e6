package system

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInformation(t *testing.T) {
	info, err := GetInformation()
	require.NoError(t, err)

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.GOARCH, info.System.Architecture)
	assert.Equal(t, runtime.GOOS, info.System.OSType)
	assert.Equal(t, runtime.NumCPU(), info.System.CPUThreads)
	assert.NotEmpty(t, info.System.OS)
}

func TestGetDeviceUsage(t *testing.T) {
	du, err := GetDeviceUsage(t.TempDir())
	require.NoError(t, err)

	assert.NotZero(t, du.TotalSpace)
	assert.LessOrEqual(t, du.UsedSpace, du.TotalSpace)
}

func TestGetDeviceUsage_Missing(t *testing.T) {
	_, err := GetDeviceUsage(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLongestMountpoint(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix style mountpoints")
	}
	partitions := []disk.PartitionStat{
		{Device: "/dev/sda1", Mountpoint: "/"},
		{Device: "/dev/sdb1", Mountpoint: "/home"},
		{Device: "/dev/sdc1", Mountpoint: "/home/user/data"},
		{Device: "/dev/sdd1", Mountpoint: "/homeless"},
	}

	part, ok := longestMountpoint("/home/user/data/photos", partitions)
	assert.True(t, ok)
	assert.Equal(t, "/dev/sdc1", part.Device)

	part, ok = longestMountpoint("/home/user/music", partitions)
	assert.True(t, ok)
	assert.Equal(t, "/dev/sdb1", part.Device)

	part, ok = longestMountpoint("/var/log", partitions)
	assert.True(t, ok)
	assert.Equal(t, "/dev/sda1", part.Device)

	_, ok = longestMountpoint("/var/log", partitions[1:2])
	assert.False(t, ok)
}
